package events

import (
	"time"

	"calparse/internal/services/llm"
)

// CanonicalEvent is a validated, normalized event record ready for
// persistence. Never mutated after normalization.
type CanonicalEvent struct {
	Title         string         `json:"title"`
	StartDatetime time.Time      `json:"start_datetime"`
	EndDatetime   time.Time      `json:"end_datetime"`
	Location      string         `json:"location"`
	Venue         string         `json:"venue"`
	Notes         string         `json:"notes"`
	Suggestions   string         `json:"suggestions"`
	Attendees     []llm.Attendee `json:"attendees"`
	OriginalText  string         `json:"original_text"`
}

// ExtractionBatch is the complete result of one extraction run. Either every
// event in the batch validated and normalized, or the batch does not exist.
type ExtractionBatch struct {
	Events       []CanonicalEvent `json:"events"`
	IsMultiEvent bool             `json:"is_multi_event"`
}

func newBatch(events []CanonicalEvent) *ExtractionBatch {
	return &ExtractionBatch{
		Events:       events,
		IsMultiEvent: len(events) > 1,
	}
}

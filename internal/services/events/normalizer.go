package events

import (
	"fmt"
	"strings"
	"time"

	"calparse/internal/services/llm"
)

const defaultDuration = time.Hour

// Normalize converts a validated candidate into a canonical event record.
// End-instant resolution order: explicit end_date+end_time, then end_time on
// the start date, then start + 1 hour. All instants are UTC.
func Normalize(c llm.EventCandidate, originalText string) (CanonicalEvent, error) {
	start, err := combine(c.StartDate, c.StartTime)
	if err != nil {
		return CanonicalEvent{}, fmt.Errorf("parsing start datetime: %w", err)
	}

	var end time.Time
	switch {
	case c.EndDate != "" && c.EndTime != "":
		end, err = combine(c.EndDate, c.EndTime)
		if err != nil {
			return CanonicalEvent{}, fmt.Errorf("parsing end datetime: %w", err)
		}
	case c.EndTime != "":
		end, err = combine(c.StartDate, c.EndTime)
		if err != nil {
			return CanonicalEvent{}, fmt.Errorf("parsing end time: %w", err)
		}
	default:
		end = start.Add(defaultDuration)
	}

	attendees := make([]llm.Attendee, 0, len(c.Attendees))
	attendees = append(attendees, c.Attendees...)

	return CanonicalEvent{
		Title:         c.Title,
		StartDatetime: start,
		EndDatetime:   end,
		Location:      c.Location,
		Venue:         c.Venue,
		Notes:         c.Notes,
		Suggestions:   strings.Join(c.Suggestions, "\n"),
		Attendees:     attendees,
		OriginalText:  originalText,
	}, nil
}

func combine(date, clock string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04", date+" "+clock, time.UTC)
}

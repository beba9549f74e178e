package events

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"calparse/internal/services/llm"
	"calparse/internal/services/nlp"
)

// defaultSuggestions backfills candidates from the local-inference path, which
// is allowed to omit suggestions.
var defaultSuggestions = []string{
	"Remember to confirm attendance",
	"Set up a reminder",
}

// Service drives the extraction pipeline end to end: prompt, provider call,
// parse, validate, normalize. The primary and alternate remote clients are
// both resolved at construction, so fallback never touches shared
// configuration and concurrent requests cannot observe a provider swap.
type Service struct {
	primary   llm.Client
	alternate llm.Client
	local     llm.Client
	rules     *nlp.Extractor
	now       func() time.Time
}

func NewService(primary, alternate, local llm.Client) *Service {
	return &Service{
		primary:   primary,
		alternate: alternate,
		local:     local,
		rules:     nlp.NewExtractor(),
		now:       time.Now,
	}
}

// Extract parses natural-language text into a batch of canonical events.
// With useLLM set, the configured remote provider runs first and the alternate
// remote provider is tried exactly once on failure; otherwise the local
// inference server handles the request with no fallback.
func (s *Service) Extract(ctx context.Context, text string, useLLM bool) (*ExtractionBatch, error) {
	if !useLLM {
		return s.run(ctx, s.local, text, true)
	}

	batch, primaryErr := s.run(ctx, s.primary, text, false)
	if primaryErr == nil {
		return batch, nil
	}

	log.Warn().
		Str("provider", s.primary.Name()).
		Err(primaryErr).
		Msg("Primary provider failed, trying fallback")

	batch, fallbackErr := s.run(ctx, s.alternate, text, false)
	if fallbackErr != nil {
		return nil, &ExtractionError{Primary: primaryErr, Fallback: fallbackErr}
	}

	log.Info().
		Str("provider", s.alternate.Name()).
		Msg("Successfully recovered using fallback provider")
	return batch, nil
}

// ExtractOffline runs the rule-based path. It cannot fail; at worst it yields
// a single low-confidence event.
func (s *Service) ExtractOffline(text string) *ExtractionBatch {
	parsed := s.rules.Extract(text, s.now())

	event := CanonicalEvent{
		Title:         parsed.Title,
		StartDatetime: parsed.Start,
		EndDatetime:   parsed.End,
		Location:      parsed.Location,
		Venue:         parsed.Venue,
		Notes:         parsed.Description,
		Suggestions:   strings.Join(defaultSuggestions, "\n"),
		Attendees:     parsed.Attendees,
		OriginalText:  text,
	}

	return newBatch([]CanonicalEvent{event})
}

// run executes one full pipeline pass against a single provider. Batch
// semantics are atomic: the first failing event aborts the whole batch.
func (s *Service) run(ctx context.Context, client llm.Client, text string, localPath bool) (*ExtractionBatch, error) {
	now := s.now()
	prompt := llm.BuildPrompt(text, now)

	raw, err := client.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	resp, err := llm.Parse(raw)
	if err != nil {
		return nil, err
	}

	canonical := make([]CanonicalEvent, 0, len(resp.Events))
	for _, candidate := range resp.Events {
		if localPath && len(candidate.Suggestions) == 0 {
			candidate.Suggestions = defaultSuggestions
		}

		if err := Validate(candidate, now); err != nil {
			return nil, err
		}

		event, err := Normalize(candidate, text)
		if err != nil {
			return nil, err
		}
		canonical = append(canonical, event)
	}

	return newBatch(canonical), nil
}

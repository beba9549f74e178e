package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"calparse/internal/services/llm"
)

// stubClient plays a remote provider with a canned response or failure.
type stubClient struct {
	name  string
	raw   string
	err   error
	calls int
}

func (s *stubClient) Name() string { return s.name }

func (s *stubClient) Complete(ctx context.Context, prompt string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.raw, nil
}

func testService(primary, alternate, local llm.Client) *Service {
	s := NewService(primary, alternate, local)
	s.now = func() time.Time {
		return time.Date(2099, time.January, 5, 10, 0, 0, 0, time.UTC)
	}
	return s
}

const singleEventJSON = `{
	"is_multi_event": false,
	"events": [{
		"title": "Team standup",
		"start_date": "2099-01-10",
		"start_time": "09:00",
		"suggestions": ["Set up a reminder"]
	}]
}`

func TestExtractPrimarySucceeds(t *testing.T) {
	primary := &stubClient{name: "openai", raw: singleEventJSON}
	alternate := &stubClient{name: "anthropic"}

	batch, err := testService(primary, alternate, nil).Extract(context.Background(), "standup", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(batch.Events) != 1 {
		t.Fatalf("got %d events", len(batch.Events))
	}
	if batch.Events[0].Title != "Team standup" {
		t.Errorf("title = %q", batch.Events[0].Title)
	}
	if alternate.calls != 0 {
		t.Error("alternate should not be called when primary succeeds")
	}
}

func TestExtractFallbackRecovers(t *testing.T) {
	primary := &stubClient{name: "openai", err: &llm.ProviderError{Provider: "openai", Err: fmt.Errorf("rate limited")}}
	alternate := &stubClient{name: "anthropic", raw: singleEventJSON}
	svc := testService(primary, alternate, nil)

	batch, err := svc.Extract(context.Background(), "standup", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(batch.Events) != 1 {
		t.Fatalf("got %d events", len(batch.Events))
	}
	if alternate.calls != 1 {
		t.Errorf("alternate calls = %d", alternate.calls)
	}

	// A later request starts from the primary again: fallback is per-request,
	// not a sticky provider switch.
	primary.err = nil
	primary.raw = singleEventJSON
	if _, err := svc.Extract(context.Background(), "standup", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if primary.calls != 2 {
		t.Errorf("primary calls = %d, want 2", primary.calls)
	}
	if alternate.calls != 1 {
		t.Errorf("alternate calls = %d, want still 1", alternate.calls)
	}
}

func TestExtractBothProvidersFail(t *testing.T) {
	primary := &stubClient{name: "openai", err: &llm.ProviderError{Provider: "openai", Err: fmt.Errorf("rate limited")}}
	alternate := &stubClient{name: "anthropic", err: &llm.ProviderError{Provider: "anthropic", Err: fmt.Errorf("overloaded")}}

	_, err := testService(primary, alternate, nil).Extract(context.Background(), "standup", true)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var exErr *ExtractionError
	if !errors.As(err, &exErr) {
		t.Fatalf("expected ExtractionError, got %T", err)
	}
	for _, want := range []string{"rate limited", "overloaded"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err.Error(), want)
		}
	}
}

func TestExtractLocalPathNoFallback(t *testing.T) {
	primary := &stubClient{name: "openai", raw: singleEventJSON}
	alternate := &stubClient{name: "anthropic", raw: singleEventJSON}
	local := &stubClient{name: "ollama", err: &llm.ProviderError{Provider: "ollama", Err: fmt.Errorf("connection refused")}}

	_, err := testService(primary, alternate, local).Extract(context.Background(), "standup", false)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if primary.calls != 0 || alternate.calls != 0 {
		t.Error("remote providers must not back up the local path")
	}
}

func TestExtractLocalPathDefaultSuggestions(t *testing.T) {
	// Local models routinely omit suggestions; the pipeline backfills them
	// before validation instead of rejecting the batch.
	local := &stubClient{name: "ollama", raw: `{
		"is_multi_event": false,
		"events": [{
			"title": "Team standup",
			"start_date": "2099-01-10",
			"start_time": "09:00"
		}]
	}`}

	batch, err := testService(nil, nil, local).Extract(context.Background(), "standup", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if batch.Events[0].Suggestions != strings.Join(defaultSuggestions, "\n") {
		t.Errorf("suggestions = %q", batch.Events[0].Suggestions)
	}
}

func TestExtractBatchAtomic(t *testing.T) {
	primary := &stubClient{name: "openai", raw: `{
		"is_multi_event": true,
		"events": [
			{"title": "Kickoff", "start_date": "2099-01-10", "start_time": "09:00", "suggestions": ["Set up a reminder"]},
			{"title": "", "start_date": "2099-01-10", "start_time": "11:00", "suggestions": ["Set up a reminder"]}
		]
	}`}
	alternate := &stubClient{name: "anthropic", err: &llm.ProviderError{Provider: "anthropic", Err: fmt.Errorf("overloaded")}}

	_, err := testService(primary, alternate, nil).Extract(context.Background(), "two meetings", true)
	if err == nil {
		t.Fatal("a single invalid event must fail the whole batch")
	}
}

func TestExtractMalformedResponse(t *testing.T) {
	primary := &stubClient{name: "openai", raw: "sorry, I cannot do that"}
	alternate := &stubClient{name: "anthropic", raw: singleEventJSON}

	// Malformed output counts as a provider failure and triggers fallback.
	batch, err := testService(primary, alternate, nil).Extract(context.Background(), "standup", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(batch.Events) != 1 {
		t.Fatalf("got %d events", len(batch.Events))
	}
	if alternate.calls != 1 {
		t.Errorf("alternate calls = %d", alternate.calls)
	}
}

func TestExtractMultiEventFlag(t *testing.T) {
	primary := &stubClient{name: "openai", raw: `{
		"is_multi_event": true,
		"events": [
			{"title": "Kickoff", "start_date": "2099-01-10", "start_time": "09:00", "suggestions": ["Set up a reminder"]},
			{"title": "Retro", "start_date": "2099-01-10", "start_time": "16:00", "suggestions": ["Set up a reminder"]}
		]
	}`}

	batch, err := testService(primary, &stubClient{name: "anthropic"}, nil).Extract(context.Background(), "two meetings", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !batch.IsMultiEvent {
		t.Error("expected multi-event batch")
	}
	if len(batch.Events) != 2 {
		t.Errorf("got %d events", len(batch.Events))
	}
}

func TestExtractOffline(t *testing.T) {
	svc := testService(nil, nil, nil)

	batch := svc.ExtractOffline("Meeting with Sarah and Mike tomorrow at 3pm in Room 204")
	if len(batch.Events) != 1 {
		t.Fatalf("got %d events", len(batch.Events))
	}

	ev := batch.Events[0]
	if ev.Venue != "Room 204" {
		t.Errorf("venue = %q", ev.Venue)
	}
	if len(ev.Attendees) != 2 || ev.Attendees[0].Name != "Sarah" || ev.Attendees[1].Name != "Mike" {
		t.Errorf("attendees = %+v", ev.Attendees)
	}
	if ev.StartDatetime.Hour() != 15 {
		t.Errorf("start hour = %d, want 15", ev.StartDatetime.Hour())
	}
	if ev.Suggestions == "" {
		t.Error("offline events still carry suggestions")
	}
	if ev.OriginalText == "" {
		t.Error("original text must be preserved")
	}
}

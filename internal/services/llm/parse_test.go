package llm

import (
	"errors"
	"testing"
)

const validPayload = `{
	"is_multi_event": false,
	"events": [
		{
			"title": "Standup",
			"start_date": "2099-01-10",
			"start_time": "09:00",
			"suggestions": ["Bring the sprint board"]
		}
	]
}`

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantErr   bool
		wantCount int
	}{
		{"bare JSON", validPayload, false, 1},
		{"json fenced block", "```json\n" + validPayload + "\n```", false, 1},
		{"fenced with leading prose", "Here is the result:\n```json\n" + validPayload + "\n```\nLet me know!", false, 1},
		{"surrounding whitespace", "\n\n  " + validPayload + "  \n", false, 1},
		{"not JSON at all", "I could not find any events in that text.", true, 0},
		{"missing events key", `{"is_multi_event": false}`, true, 0},
		{"events not an array", `{"events": {"title": "Standup"}}`, true, 0},
		{"empty events array", `{"events": []}`, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := Parse(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				var malformed *MalformedResponseError
				if !errors.As(err, &malformed) {
					t.Fatalf("expected MalformedResponseError, got %T", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(resp.Events) != tt.wantCount {
				t.Fatalf("got %d events, want %d", len(resp.Events), tt.wantCount)
			}
		})
	}
}

func TestParseFencedRoundTrip(t *testing.T) {
	plain, err := Parse(validPayload)
	if err != nil {
		t.Fatalf("parsing bare payload: %v", err)
	}
	fenced, err := Parse("```json\n" + validPayload + "\n```")
	if err != nil {
		t.Fatalf("parsing fenced payload: %v", err)
	}

	if len(plain.Events) != len(fenced.Events) {
		t.Fatalf("fenced parse diverged: %d vs %d events", len(fenced.Events), len(plain.Events))
	}
	if plain.Events[0].Title != fenced.Events[0].Title {
		t.Errorf("title diverged: %q vs %q", fenced.Events[0].Title, plain.Events[0].Title)
	}
	if plain.Events[0].StartDate != fenced.Events[0].StartDate {
		t.Errorf("start date diverged: %q vs %q", fenced.Events[0].StartDate, plain.Events[0].StartDate)
	}
}

func TestParseMultiEventFlag(t *testing.T) {
	raw := `{"is_multi_event": true, "events": [
		{"title": "A", "start_date": "2099-01-10", "start_time": "09:00", "suggestions": ["x"]},
		{"title": "B", "start_date": "2099-01-11", "start_time": "10:00", "suggestions": ["y"]}
	]}`

	resp, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.IsMultiEvent {
		t.Error("is_multi_event flag not carried through")
	}
	if len(resp.Events) != 2 {
		t.Fatalf("got %d events, want 2", len(resp.Events))
	}
}

func TestAttendeeUnmarshal(t *testing.T) {
	raw := `{"events": [{
		"title": "Sync",
		"start_date": "2099-01-10",
		"start_time": "09:00",
		"suggestions": ["x"],
		"attendees": ["Sarah", {"name": "Mike", "email": "mike@example.com"}]
	}]}`

	resp, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	attendees := resp.Events[0].Attendees
	if len(attendees) != 2 {
		t.Fatalf("got %d attendees, want 2", len(attendees))
	}
	if attendees[0].Name != "Sarah" || attendees[0].Email != "" {
		t.Errorf("bare string attendee not promoted: %+v", attendees[0])
	}
	if attendees[1].Name != "Mike" || attendees[1].Email != "mike@example.com" {
		t.Errorf("object attendee mangled: %+v", attendees[1])
	}
}

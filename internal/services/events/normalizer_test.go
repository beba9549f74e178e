package events

import (
	"testing"
	"time"

	"calparse/internal/services/llm"
)

func TestNormalizeDefaultEnd(t *testing.T) {
	c := llm.EventCandidate{
		Title:       "Team standup",
		StartDate:   "2099-01-10",
		StartTime:   "09:00",
		Suggestions: []string{"Set up a reminder"},
	}

	ev, err := Normalize(c, "Standup tomorrow at 9am")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantStart := time.Date(2099, time.January, 10, 9, 0, 0, 0, time.UTC)
	if !ev.StartDatetime.Equal(wantStart) {
		t.Errorf("start = %v, want %v", ev.StartDatetime, wantStart)
	}
	if !ev.EndDatetime.Equal(wantStart.Add(time.Hour)) {
		t.Errorf("end = %v, want start + 1h", ev.EndDatetime)
	}
	if ev.OriginalText != "Standup tomorrow at 9am" {
		t.Errorf("original text = %q", ev.OriginalText)
	}
}

func TestNormalizeEndTimeOnStartDate(t *testing.T) {
	c := llm.EventCandidate{
		Title:       "Review",
		StartDate:   "2099-01-10",
		StartTime:   "14:00",
		EndTime:     "15:30",
		Suggestions: []string{"Set up a reminder"},
	}

	ev, err := Normalize(c, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2099, time.January, 10, 15, 30, 0, 0, time.UTC)
	if !ev.EndDatetime.Equal(want) {
		t.Errorf("end = %v, want %v", ev.EndDatetime, want)
	}
}

func TestNormalizeExplicitEnd(t *testing.T) {
	c := llm.EventCandidate{
		Title:       "Offsite",
		StartDate:   "2099-01-10",
		StartTime:   "09:00",
		EndDate:     "2099-01-11",
		EndTime:     "17:00",
		Suggestions: []string{"Set up a reminder"},
	}

	ev, err := Normalize(c, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2099, time.January, 11, 17, 0, 0, 0, time.UTC)
	if !ev.EndDatetime.Equal(want) {
		t.Errorf("end = %v, want %v", ev.EndDatetime, want)
	}
}

func TestNormalizeSuggestionsJoined(t *testing.T) {
	c := llm.EventCandidate{
		Title:       "Dinner",
		StartDate:   "2099-01-10",
		StartTime:   "19:00",
		Suggestions: []string{"Book a table", "Confirm headcount"},
	}

	ev, err := Normalize(c, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Suggestions != "Book a table\nConfirm headcount" {
		t.Errorf("suggestions = %q", ev.Suggestions)
	}
}

func TestNormalizeCarriesFields(t *testing.T) {
	c := llm.EventCandidate{
		Title:       "Meeting",
		StartDate:   "2099-01-10",
		StartTime:   "15:00",
		Location:    "Downtown office",
		Venue:       "Room 204",
		Notes:       "Bring the slides",
		Suggestions: []string{"Set up a reminder"},
		Attendees:   []llm.Attendee{{Name: "Sarah"}, {Name: "Mike"}},
	}

	ev, err := Normalize(c, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Location != "Downtown office" || ev.Venue != "Room 204" || ev.Notes != "Bring the slides" {
		t.Errorf("fields not carried: %+v", ev)
	}
	if len(ev.Attendees) != 2 || ev.Attendees[0].Name != "Sarah" {
		t.Errorf("attendees = %+v", ev.Attendees)
	}
}

func TestNormalizeInstantsUTC(t *testing.T) {
	c := llm.EventCandidate{
		Title:       "Call",
		StartDate:   "2099-01-10",
		StartTime:   "09:00",
		Suggestions: []string{"Set up a reminder"},
	}

	ev, err := Normalize(c, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.StartDatetime.Location() != time.UTC || ev.EndDatetime.Location() != time.UTC {
		t.Error("instants must be UTC")
	}
}

package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MalformedResponseError means a provider returned text that is not parseable
// as the expected JSON envelope.
type MalformedResponseError struct {
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed provider response: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed provider response: %s", e.Reason)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// Response is the envelope every provider is prompted to return.
type Response struct {
	IsMultiEvent bool
	Events       []EventCandidate
}

// EventCandidate is one raw event as extracted by a provider, prior to
// validation. All date/time fields are strings in the prompt's wire format.
type EventCandidate struct {
	Title       string     `json:"title"`
	StartDate   string     `json:"start_date"`
	StartTime   string     `json:"start_time"`
	EndDate     string     `json:"end_date"`
	EndTime     string     `json:"end_time"`
	Location    string     `json:"location"`
	Venue       string     `json:"venue"`
	Notes       string     `json:"notes"`
	Suggestions []string   `json:"suggestions"`
	Attendees   []Attendee `json:"attendees"`
}

// Attendee accepts both object form {"name": ..., "email": ...} and the bare
// string form some models emit; bare strings become a name with empty email.
type Attendee struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (a *Attendee) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		a.Name = name
		a.Email = ""
		return nil
	}

	var obj struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	a.Name = obj.Name
	a.Email = obj.Email
	return nil
}

// Parse extracts the JSON envelope from raw provider output, tolerating
// markdown code-fence wrapping around the payload.
func Parse(raw string) (*Response, error) {
	jsonStr := stripFence(strings.TrimSpace(raw))

	var envelope struct {
		IsMultiEvent bool            `json:"is_multi_event"`
		Events       json.RawMessage `json:"events"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &envelope); err != nil {
		return nil, &MalformedResponseError{Reason: "not valid JSON", Err: err}
	}

	if envelope.Events == nil {
		return nil, &MalformedResponseError{Reason: "response missing events array"}
	}

	var events []EventCandidate
	if err := json.Unmarshal(envelope.Events, &events); err != nil {
		return nil, &MalformedResponseError{Reason: "events must be an array", Err: err}
	}

	return &Response{
		IsMultiEvent: envelope.IsMultiEvent,
		Events:       events,
	}, nil
}

// stripFence unwraps a ```json fenced block if one is present.
func stripFence(s string) string {
	if !strings.Contains(s, "```json") {
		return s
	}
	after := strings.SplitN(s, "```json", 2)[1]
	return strings.TrimSpace(strings.SplitN(after, "```", 2)[0])
}

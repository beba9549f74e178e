// Package nlp is the dependency-free extraction path: deterministic regex and
// keyword heuristics over the input text. It never fails; the worst case is a
// single low-confidence event defaulting to the current hour.
package nlp

import (
	"regexp"
	"strings"
	"time"

	"calparse/internal/services/llm"
)

// ParsedEvent is the extractor's output, already carrying concrete instants.
type ParsedEvent struct {
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	Location    string
	Venue       string
	Attendees   []llm.Attendee
}

type Extractor struct {
	singleTime   *regexp.Regexp
	timeRange    *regexp.Regexp
	duration     *regexp.Regexp
	numberedRoom *regexp.Regexp
	venueWord    *regexp.Regexp
	venueLabel   *regexp.Regexp
	locationAfter *regexp.Regexp
	locationLabel *regexp.Regexp
	withClause   *regexp.Regexp
	inviteClause *regexp.Regexp
	nameSplit    *regexp.Regexp
	titleCut     *regexp.Regexp
	titlePrefix  []*regexp.Regexp
}

func NewExtractor() *Extractor {
	return &Extractor{
		singleTime:   regexp.MustCompile(`(?i)(?:at|from|@)\s*(\d{1,2}(?::\d{2})?\s*(?:am|pm))`),
		timeRange:    regexp.MustCompile(`(?i)(\d{1,2}(?::\d{2})?\s*(?:am|pm)?)\s*(?:to|until|till|-)\s*(\d{1,2}(?::\d{2})?\s*(?:am|pm))`),
		duration:     regexp.MustCompile(`(?i)for\s+(\d+)\s*(hours?|hrs?|minutes?|mins?)`),
		numberedRoom: regexp.MustCompile(`(?i)\b(?:at|in)\s+(?:the\s+)?((?:room|suite|hall)\s*#?\d+\w*)`),
		venueWord:    regexp.MustCompile(`(?i)\b(?:at|in)\s+(?:the\s+)?([\w'\- ]*?(?:room|office|building|hall|cafe|restaurant|hotel))\b`),
		venueLabel:   regexp.MustCompile(`(?i)venue:\s*([^.\n]+)`),
		locationAfter: regexp.MustCompile(`(?i)\b(?:at|in)\s+([A-Z][\w'\- ]*?)(?:\s+(?:on|at|from|next|this)\b|\s*[,.]|\s*$)`),
		locationLabel: regexp.MustCompile(`(?i)location:\s*([^.\n]+)`),
		withClause:   regexp.MustCompile(`(?i)\bwith\s+(.+?)(?:\s+(?:in|at|on)\b|\s*[,.]|\s*$)`),
		inviteClause: regexp.MustCompile(`(?i)\binvite\s+(.+?)(?:\s+(?:to|for)\b|\s*[,.]|\s*$)`),
		nameSplit:    regexp.MustCompile(`\s*(?:,|\band\b|&|\+)\s*`),
		titleCut:     regexp.MustCompile(`(?i)\s+(?:with|at|on|in|from|tomorrow|today|next|this)\b.*$`),
		titlePrefix: []*regexp.Regexp{
			regexp.MustCompile(`(?i)^(?:schedule|create|plan|organize|set up|arrange)\s+(?:a|an)?\s*`),
			regexp.MustCompile(`(?i)^(?:new|quick)\s+`),
			regexp.MustCompile(`(?i)^(?:please|could you|can you)\s+`),
		},
	}
}

// Extract parses the text into a single event using pattern matching only.
func (e *Extractor) Extract(text string, now time.Time) ParsedEvent {
	start, end := e.extractDatetime(text, now)
	location, venue := e.extractLocation(text)

	return ParsedEvent{
		Title:       e.extractTitle(text),
		Description: e.cleanDescription(text),
		Start:       start,
		End:         end,
		Location:    location,
		Venue:       venue,
		Attendees:   e.extractAttendees(text),
	}
}

func (e *Extractor) extractDatetime(text string, now time.Time) (time.Time, time.Time) {
	day := now.UTC().Truncate(24 * time.Hour)
	if strings.Contains(strings.ToLower(text), "tomorrow") {
		day = day.AddDate(0, 0, 1)
	}

	startClock, endClock, dur := e.extractClocks(text, now)

	start := day.Add(startClock)
	var end time.Time
	switch {
	case endClock >= 0:
		end = day.Add(endClock)
	case dur > 0:
		end = start.Add(dur)
	default:
		end = start.Add(time.Hour)
	}

	// A start that already passed today rolls over to the same time tomorrow.
	if start.Before(now.UTC()) {
		start = start.AddDate(0, 0, 1)
		end = end.AddDate(0, 0, 1)
	}

	return start, end
}

// extractClocks returns the start clock offset, an end clock offset (negative
// when absent), and an explicit duration when one is given.
func (e *Extractor) extractClocks(text string, now time.Time) (time.Duration, time.Duration, time.Duration) {
	if m := e.timeRange.FindStringSubmatch(text); m != nil && strings.TrimSpace(m[1]) != "" {
		start, okS := parseClock(m[1])
		end, okE := parseClock(m[2])
		if okS && okE {
			return start, end, 0
		}
	}

	if m := e.singleTime.FindStringSubmatch(text); m != nil {
		if start, ok := parseClock(m[1]); ok {
			if d := e.extractDuration(text); d > 0 {
				return start, -1, d
			}
			return start, -1, 0
		}
	}

	// No recognizable time: default to the current hour.
	currentHour := time.Duration(now.UTC().Hour()) * time.Hour
	return currentHour, -1, e.extractDuration(text)
}

func (e *Extractor) extractDuration(text string) time.Duration {
	m := e.duration.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	n := 0
	for _, r := range m[1] {
		n = n*10 + int(r-'0')
	}
	if strings.HasPrefix(strings.ToLower(m[2]), "h") {
		return time.Duration(n) * time.Hour
	}
	return time.Duration(n) * time.Minute
}

// parseClock turns expressions like "3pm", "3:30 pm" or "15:00" into an
// offset from midnight.
func parseClock(s string) (time.Duration, bool) {
	s = strings.ToLower(strings.TrimSpace(s))

	meridiem := ""
	if strings.HasSuffix(s, "am") {
		meridiem = "am"
		s = strings.TrimSpace(strings.TrimSuffix(s, "am"))
	} else if strings.HasSuffix(s, "pm") {
		meridiem = "pm"
		s = strings.TrimSpace(strings.TrimSuffix(s, "pm"))
	}

	hour, minute := 0, 0
	if h, m, found := strings.Cut(s, ":"); found {
		hour = atoi(h)
		minute = atoi(m)
	} else {
		hour = atoi(s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, false
	}

	if meridiem == "pm" && hour != 12 {
		hour += 12
	} else if meridiem == "am" && hour == 12 {
		hour = 0
	}

	return time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute, true
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return -1
		}
		n = n*10 + int(r-'0')
	}
	if s == "" {
		return -1
	}
	return n
}

func (e *Extractor) extractLocation(text string) (string, string) {
	if m := e.numberedRoom.FindStringSubmatch(text); m != nil {
		return "", strings.TrimSpace(m[1])
	}
	if m := e.venueLabel.FindStringSubmatch(text); m != nil {
		return "", strings.TrimSpace(m[1])
	}
	if m := e.venueWord.FindStringSubmatch(text); m != nil {
		return "", strings.TrimSpace(m[1])
	}

	if m := e.locationLabel.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), ""
	}
	if m := e.locationAfter.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), ""
	}

	return "", ""
}

var attendeeStopwords = map[string]bool{
	"meeting": true, "the": true, "a": true, "an": true, "in": true,
	"at": true, "on": true, "with": true, "tomorrow": true, "today": true,
	"everyone": true, "team": true,
}

func (e *Extractor) extractAttendees(text string) []llm.Attendee {
	var names []string
	seen := map[string]bool{}

	for _, clause := range []*regexp.Regexp{e.withClause, e.inviteClause} {
		m := clause.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		for _, fragment := range e.nameSplit.Split(m[1], -1) {
			name := leadingProperNoun(fragment)
			if len(name) < 2 || attendeeStopwords[strings.ToLower(name)] || seen[name] {
				continue
			}
			seen[name] = true
			names = append(names, name)
		}
	}

	attendees := make([]llm.Attendee, 0, len(names))
	for _, name := range names {
		attendees = append(attendees, llm.Attendee{Name: name})
	}
	return attendees
}

// leadingProperNoun keeps the initial run of capitalized words in a fragment,
// dropping trailing lowercase words like "tomorrow" in "Mike tomorrow".
func leadingProperNoun(fragment string) string {
	var kept []string
	for _, word := range strings.Fields(strings.TrimSpace(fragment)) {
		r := rune(word[0])
		if r < 'A' || r > 'Z' {
			break
		}
		kept = append(kept, word)
	}
	return strings.Join(kept, " ")
}

func (e *Extractor) extractTitle(text string) string {
	title := strings.TrimSpace(text)
	for _, prefix := range e.titlePrefix {
		title = prefix.ReplaceAllString(title, "")
	}
	title = strings.TrimSpace(e.titleCut.ReplaceAllString(title, ""))

	if title == "" {
		return "New Event"
	}
	if len(title) > 60 {
		title = strings.TrimSpace(title[:60])
	}
	return strings.ToUpper(title[:1]) + title[1:]
}

func (e *Extractor) cleanDescription(text string) string {
	desc := strings.TrimSpace(text)
	for _, prefix := range e.titlePrefix {
		desc = prefix.ReplaceAllString(desc, "")
	}
	if desc == "" {
		return "No description provided"
	}
	return strings.ToUpper(desc[:1]) + desc[1:]
}

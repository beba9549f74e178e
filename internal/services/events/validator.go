package events

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"calparse/internal/services/llm"
)

var (
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timePattern = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// Validate checks a single extracted candidate against the semantic rules.
// Nothing is silently corrected: every violation found is collected and
// reported together in one ValidationError.
func Validate(c llm.EventCandidate, referenceDate time.Time) error {
	var violations []string

	var missing []string
	if c.Title == "" {
		missing = append(missing, "title")
	}
	if c.StartDate == "" {
		missing = append(missing, "start_date")
	}
	if c.StartTime == "" {
		missing = append(missing, "start_time")
	}
	if c.Suggestions == nil {
		missing = append(missing, "suggestions")
	}
	if len(missing) > 0 {
		violations = append(violations, "missing required fields: "+strings.Join(missing, ", "))
	}

	if c.StartDate != "" && !datePattern.MatchString(c.StartDate) {
		violations = append(violations, fmt.Sprintf("invalid start date format: %s, expected YYYY-MM-DD", c.StartDate))
	}
	if c.EndDate != "" && !datePattern.MatchString(c.EndDate) {
		violations = append(violations, fmt.Sprintf("invalid end date format: %s, expected YYYY-MM-DD", c.EndDate))
	}
	if c.StartTime != "" && !timePattern.MatchString(c.StartTime) {
		violations = append(violations, fmt.Sprintf("invalid start time format: %s, expected HH:MM", c.StartTime))
	}
	if c.EndTime != "" && !timePattern.MatchString(c.EndTime) {
		violations = append(violations, fmt.Sprintf("invalid end time format: %s, expected HH:MM", c.EndTime))
	}

	if c.Suggestions != nil && len(c.Suggestions) == 0 {
		violations = append(violations, "at least one suggestion is required")
	}

	for _, a := range c.Attendees {
		if a.Name == "" {
			violations = append(violations, "each attendee must have a name")
			break
		}
	}

	violations = append(violations, validateOrdering(c, referenceDate)...)

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

// validateOrdering checks date and time ordering. A missing end_date defaults
// to start_date for comparison only; the candidate is not mutated.
func validateOrdering(c llm.EventCandidate, referenceDate time.Time) []string {
	startDate, err := time.Parse("2006-01-02", c.StartDate)
	if err != nil {
		return nil
	}

	var violations []string

	today := referenceDate.Truncate(24 * time.Hour)
	if startDate.Before(today) {
		violations = append(violations, fmt.Sprintf("start date %s is in the past", c.StartDate))
	}

	endDateStr := c.EndDate
	if endDateStr == "" {
		endDateStr = c.StartDate
	}
	endDate, err := time.Parse("2006-01-02", endDateStr)
	if err != nil {
		return violations
	}
	if endDate.Before(startDate) {
		violations = append(violations, fmt.Sprintf("end date %s is before start date", c.EndDate))
	}

	// The time-order rule only applies when start and end fall on the same
	// day; a later end_date with an earlier wall-clock time is allowed.
	if c.EndTime != "" && endDate.Equal(startDate) {
		startTime, serr := time.Parse("15:04", c.StartTime)
		endTime, eerr := time.Parse("15:04", c.EndTime)
		if serr == nil && eerr == nil && !endTime.After(startTime) {
			violations = append(violations, "end time must be after start time on the same day")
		}
	}

	return violations
}

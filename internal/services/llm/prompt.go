package llm

import (
	"fmt"
	"time"
)

// BuildPrompt formats raw input text into the extraction prompt. The current
// date and weekday are embedded so relative expressions like "next Tuesday"
// resolve deterministically. Pure function, no I/O.
func BuildPrompt(text string, now time.Time) string {
	return fmt.Sprintf(`Please parse the following text into one or more events and return the result as JSON.

Today is %s (%s).

The text may contain multiple events. Please analyze and identify if multiple events are described.

Return your response as a JSON object with the following structure:
{
    "is_multi_event": boolean,
    "events": [
        {
            "title": string (required),
            "start_date": "YYYY-MM-DD" (required),
            "start_time": "HH:MM" 24-hour format (required),
            "end_date": "YYYY-MM-DD" (if not provided, use start_date),
            "end_time": "HH:MM" 24-hour format (if not provided, start_time + 1 hour),
            "location": string (optional),
            "venue": string (optional),
            "attendees": [
                {
                    "name": string,
                    "email": string (optional)
                }
            ],
            "notes": string (optional - special instructions/reminders),
            "suggestions": array of strings (1-2 helpful suggestions) (required)
        }
    ]
}

Text to parse: %s

Remember to return only valid JSON matching the above structure without any additional text or explanations.`,
		now.Format("2006-01-02"), now.Weekday(), text)
}

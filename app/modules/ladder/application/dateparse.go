package ladderservice

import (
	"regexp"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

var compactTimePattern = regexp.MustCompile(`(\d{1,2})(\d{2})(am|pm)`)

// parseProposedDate accepts RFC 3339 or natural language relative to now.
// The result must not be in the past.
func parseProposedDate(input string, now time.Time) (*time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}

	parsed, err := time.Parse(time.RFC3339, input)
	if err != nil {
		normalized := strings.ToLower(input)
		normalized = strings.ReplaceAll(normalized, "today ", "today at ")
		normalized = compactTimePattern.ReplaceAllString(normalized, "$1:$2 $3")

		w := when.New(nil)
		w.Add(en.All...)
		w.Add(common.All...)

		r, werr := w.Parse(normalized, now)
		if werr != nil || r == nil {
			return nil, invalid("proposed_date", "could not understand %q", input)
		}
		parsed = r.Time
	}

	parsed = parsed.UTC().Truncate(time.Minute)
	if parsed.Before(now.UTC().Truncate(time.Minute)) {
		return nil, invalid("proposed_date", "proposed date must be in the future")
	}
	return &parsed, nil
}

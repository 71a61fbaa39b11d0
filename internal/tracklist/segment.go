package tracklist

import (
	"iter"
	"regexp"
	"strings"
)

// EntrySeparator marks the start of a new "artist - title" entry.
const EntrySeparator = " - "

var timestampPattern = regexp.MustCompile(`\b\d{1,2}:\d{2}(:\d{2})?\b`)

// Segment splits an OCR text block into raw title candidates.
//
// Lines are walked in order with an accumulator. Timestamps (H:MM or H:MM:SS) are
// stripped from each line. A line containing [EntrySeparator] closes the current
// accumulator, if it holds any text, and starts the next one; every other line is
// folded into the accumulator. Candidates are whitespace-collapsed.
//
// Text without a separator yields exactly one candidate.
func Segment(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		var current []string

		flush := func() bool {
			candidate := collapseSpace(strings.Join(current, " "))
			current = current[:0]
			if candidate == "" {
				return true
			}
			return yield(candidate)
		}

		for line := range strings.Lines(text) {
			line = timestampPattern.ReplaceAllString(strings.TrimRight(line, "\r\n"), "")

			if strings.Contains(line, EntrySeparator) && !blank(current) {
				if !flush() {
					return
				}
			}
			current = append(current, line)
		}

		flush()
	}
}

func blank(parts []string) bool {
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			return false
		}
	}
	return true
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

package tracklist

import (
	"iter"
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MinTitleLength is the shortest title, in runes, that survives normalization.
const MinTitleLength = 4

// DefaultNoiseWords are removed from single-query search strings.
var DefaultNoiseWords = []string{
	"MUSIC", "LYRICS", "MV", "Official", "Audio", "USIC", "II", "Vancouver",
	"EVERYWHERE", "EVERYWH", "WHERE",
}

var (
	parenSpan      = regexp.MustCompile(`\(.*?\)`)
	bracketSpan    = regexp.MustCompile(`\[.*?\]`)
	clockPattern   = regexp.MustCompile(`\b\d{1,2}:\d{2}\b`)
	numberPattern  = regexp.MustCompile(`\b\d+\b`)
	defaultNoiseRe = noiseRegexps(DefaultNoiseWords)
)

// NormalizeTitles cleans each candidate and returns the unique survivors in first-seen order.
//
// Per candidate: NFC-normalize so OCR'd Hangul jamo recombine, keep only Latin and Hangul
// letters, ASCII digits, whitespace, '-', '(' and ')', then collapse whitespace. Titles of
// fewer than [MinTitleLength] runes or made only of digits are dropped.
func NormalizeTitles(candidates iter.Seq[string]) []string {
	titles := []string{}
	seen := make(map[string]struct{})

	for c := range candidates {
		title := collapseSpace(strings.Map(keepTitleRune, norm.NFC.String(c)))
		if !usableTitle(title) {
			continue
		}
		if _, dup := seen[title]; dup {
			continue
		}
		seen[title] = struct{}{}
		titles = append(titles, title)
	}
	return titles
}

// NormalizeQuery reduces a whole OCR block to one best-effort search string.
//
// Parenthesized and bracketed spans go first, then punctuation, then noise words
// (case-insensitive, whole word), then clock times and standalone numbers. Passing a nil
// noise list uses [DefaultNoiseWords].
func NormalizeQuery(text string, noise []string) string {
	q := parenSpan.ReplaceAllString(text, "")
	q = bracketSpan.ReplaceAllString(q, "")
	q = strings.Map(keepQueryRune, q)

	patterns := defaultNoiseRe
	if noise != nil {
		patterns = noiseRegexps(noise)
	}
	for _, re := range patterns {
		q = re.ReplaceAllString(q, "")
	}

	q = clockPattern.ReplaceAllString(q, "")
	q = numberPattern.ReplaceAllString(q, "")
	return collapseSpace(q)
}

func noiseRegexps(words []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(words))
	for _, w := range words {
		if w = strings.TrimSpace(w); w == "" {
			continue
		}
		out = append(out, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(w)+`\b`))
	}
	return out
}

func usableTitle(title string) bool {
	if utf8.RuneCountInString(title) < MinTitleLength {
		return false
	}
	return strings.ContainsFunc(title, func(r rune) bool {
		return !isASCIIDigit(r) && !unicode.IsSpace(r)
	})
}

func keepTitleRune(r rune) rune {
	if isScriptLetter(r) || isASCIIDigit(r) || unicode.IsSpace(r) || slices.Contains([]rune("-()"), r) {
		return r
	}
	return -1
}

func keepQueryRune(r rune) rune {
	if isScriptLetter(r) || isASCIIDigit(r) || unicode.IsSpace(r) || r == '-' {
		return r
	}
	return -1
}

func isScriptLetter(r rune) bool {
	return unicode.IsLetter(r) && unicode.In(r, unicode.Latin, unicode.Hangul)
}

func isASCIIDigit(r rune) bool { return r >= '0' && r <= '9' }

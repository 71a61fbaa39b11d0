package tracklist

import (
	"fmt"
	"strings"

	"github.com/desertthunder/snaplist/internal/shared"
)

// Mode selects how an OCR block is turned into search input.
type Mode string

const (
	// ModeMulti segments the block into one title per entry and searches each.
	ModeMulti Mode = "multi"
	// ModeSingle strips the block into a single search query.
	ModeSingle Mode = "single"
)

// ParseMode maps a config or query string to a [Mode]. An empty string selects [ModeMulti].
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeMulti:
		return ModeMulti, nil
	case ModeSingle:
		return ModeSingle, nil
	default:
		return "", fmt.Errorf("%w: unknown mode %q (want %s or %s)", shared.ErrInvalidArgument, s, ModeMulti, ModeSingle)
	}
}

func (m Mode) String() string { return string(m) }

// Normalizer turns OCR text into the titles handed to a resolver.
type Normalizer interface {
	Normalize(text string) []string
}

// TitleNormalizer is the multi-title strategy: [Segment] followed by [NormalizeTitles].
type TitleNormalizer struct{}

func (TitleNormalizer) Normalize(text string) []string {
	return NormalizeTitles(Segment(text))
}

// QueryNormalizer is the single-query strategy. It returns at most one query.
type QueryNormalizer struct {
	// NoiseWords replaces [DefaultNoiseWords] when non-nil.
	NoiseWords []string
}

func (n QueryNormalizer) Normalize(text string) []string {
	q := NormalizeQuery(text, n.NoiseWords)
	if q == "" {
		return []string{}
	}
	return []string{q}
}

// NewNormalizer returns the strategy for mode.
func NewNormalizer(mode Mode) Normalizer {
	if mode == ModeSingle {
		return QueryNormalizer{}
	}
	return TitleNormalizer{}
}

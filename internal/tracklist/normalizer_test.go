package tracklist

import (
	"errors"
	"slices"
	"testing"

	"github.com/desertthunder/snaplist/internal/shared"
)

func TestParseMode(t *testing.T) {
	tc := []struct {
		in   string
		want Mode
	}{
		{"", ModeMulti},
		{"multi", ModeMulti},
		{" Single ", ModeSingle},
	}
	for _, tt := range tc {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseMode(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}

	if _, err := ParseMode("batch"); !errors.Is(err, shared.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestNormalizers(t *testing.T) {
	text := "BTS - Dynamite (Official MV)\n0:01\nBLACKPINK - How You Like That\n3:03"

	t.Run("multi", func(t *testing.T) {
		n := NewNormalizer(ModeMulti)
		if _, ok := n.(TitleNormalizer); !ok {
			t.Fatalf("expected TitleNormalizer, got %T", n)
		}

		got := n.Normalize(text)
		want := []string{"BTS - Dynamite (Official MV)", "BLACKPINK - How You Like That"}
		if !slices.Equal(got, want) {
			t.Errorf("Normalize() = %q, want %q", got, want)
		}
	})

	t.Run("single", func(t *testing.T) {
		n := NewNormalizer(ModeSingle)
		if _, ok := n.(QueryNormalizer); !ok {
			t.Fatalf("expected QueryNormalizer, got %T", n)
		}

		got := n.Normalize(text)
		want := []string{"BTS - Dynamite BLACKPINK - How You Like That"}
		if !slices.Equal(got, want) {
			t.Errorf("Normalize() = %q, want %q", got, want)
		}
	})

	t.Run("single with nothing usable", func(t *testing.T) {
		got := QueryNormalizer{}.Normalize("[MV] 0:01")
		if got == nil || len(got) != 0 {
			t.Errorf("expected empty slice, got %q", got)
		}
	})
}

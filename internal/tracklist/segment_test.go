package tracklist

import (
	"slices"
	"strings"
	"testing"
)

func TestSegment(t *testing.T) {
	tc := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "labels and timestamps fold into the preceding entry",
			text: "BTS - Dynamite\n0:01\nHYBE LABELS\nBLACKPINK - How You Like That\n3:03",
			want: []string{"BTS - Dynamite HYBE LABELS", "BLACKPINK - How You Like That"},
		},
		{
			name: "no separator collapses to one candidate",
			text: "Night Letter\n3:45\nIU",
			want: []string{"Night Letter IU"},
		},
		{
			name: "separator on the first line starts the accumulator",
			text: "IU - Night Letter\nlive clip",
			want: []string{"IU - Night Letter live clip"},
		},
		{
			name: "one candidate per entry",
			text: "A1 - One\nB2 - Two\nC3 - Three",
			want: []string{"A1 - One", "B2 - Two", "C3 - Three"},
		},
		{
			name: "carriage returns",
			text: "AKMU - Love Lee\r\n2:59\r\nNewJeans - Ditto\r\n",
			want: []string{"AKMU - Love Lee", "NewJeans - Ditto"},
		},
		{
			name: "inline timestamps with seconds",
			text: "01:02:03 BTS - Butter 3:45",
			want: []string{"BTS - Butter"},
		},
		{
			name: "leading blank lines do not close an entry",
			text: "\n0:00\nBTS - Butter\nSEVENTEEN - HOT",
			want: []string{"BTS - Butter", "SEVENTEEN - HOT"},
		},
		{
			name: "empty text",
			text: "",
			want: nil,
		},
		{
			name: "timestamps only",
			text: "0:01\n1:02:03\n",
			want: nil,
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := slices.Collect(Segment(tt.text))
			if !slices.Equal(got, tt.want) {
				t.Errorf("Segment() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSegmentProperties(t *testing.T) {
	t.Run("separator after text yields at least two candidates", func(t *testing.T) {
		texts := []string{
			"intro\nBTS - Dynamite",
			"tracklist 2024\n0:00\nIU - Blueming\nIU - Celebrity",
			"a\nb\nc - d",
		}
		for _, text := range texts {
			if n := len(slices.Collect(Segment(text))); n < 2 {
				t.Errorf("Segment(%q) produced %d candidates", text, n)
			}
		}
	})

	t.Run("no separator equals collapsed stripped text", func(t *testing.T) {
		texts := []string{
			"Hype Boy\n3:00\nNewJeans",
			"  spaced    out\t\tline  ",
			"Blue-ish - not\nreally",
		}
		for _, text := range texts {
			if strings.Contains(text, EntrySeparator) {
				continue
			}
			got := slices.Collect(Segment(text))
			want := collapseSpace(timestampPattern.ReplaceAllString(text, ""))
			if len(got) != 1 || got[0] != want {
				t.Errorf("Segment(%q) = %q, want [%q]", text, got, want)
			}
		}
	})

	t.Run("stops when the consumer stops", func(t *testing.T) {
		var got []string
		for c := range Segment("A - 1\nB - 2\nC - 3") {
			got = append(got, c)
			if len(got) == 2 {
				break
			}
		}
		if len(got) != 2 {
			t.Errorf("expected 2 candidates before break, got %d", len(got))
		}
	})
}

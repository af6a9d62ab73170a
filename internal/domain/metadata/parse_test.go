package metadata

import (
	"strings"
	"testing"
)

const structuredSample = `{
	"short_desc": "Surfer rides a wave at dusk",
	"long_desc": "A lone surfer carves along a breaking wave as the sun sets behind them.",
	"subjects": ["surfer", "ocean"],
	"actions": ["surfing", "carving"],
	"camera": "tracking shot, low angle",
	"lighting": "golden hour backlight",
	"setting": "open ocean near a reef break",
	"emotion": "exhilaration",
	"keywords": ["surfing", "sunset", "ocean", "action sports"]
}`

func TestParse_Structured(t *testing.T) {
	t.Parallel()

	rec := Parse(structuredSample)
	if rec.Degenerate {
		t.Fatalf("structured response flagged degenerate")
	}
	if rec.ShortDesc != "Surfer rides a wave at dusk" {
		t.Fatalf("short desc = %q", rec.ShortDesc)
	}
	if !strings.Contains(rec.LongDesc, "Lighting: golden hour backlight") {
		t.Fatalf("long desc missing lighting line: %q", rec.LongDesc)
	}
	if !strings.Contains(rec.LongDesc, "Emotion: exhilaration") {
		t.Fatalf("long desc missing emotion line: %q", rec.LongDesc)
	}
	if rec.Shot != "tracking shot, low angle" {
		t.Fatalf("shot = %q", rec.Shot)
	}
	if rec.Scene != "open ocean near a reef break" {
		t.Fatalf("scene = %q", rec.Scene)
	}

	// keywords first, then subjects and actions, case-insensitive dedupe
	// ("surfing" appears in both keywords and actions).
	want := []string{"surfing", "sunset", "ocean", "action sports", "surfer", "carving"}
	if len(rec.Keywords) != len(want) {
		t.Fatalf("keywords = %v, want %v", rec.Keywords, want)
	}
	for i := range want {
		if rec.Keywords[i] != want[i] {
			t.Fatalf("keyword %d = %q, want %q", i, rec.Keywords[i], want[i])
		}
	}
}

func TestParse_FencedAndPrefaced(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
	}{
		{"fenced", "```json\n" + structuredSample + "\n```"},
		{"preface", "Sure, here is the analysis:\n" + structuredSample + "\nHope that helps!"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rec := Parse(tc.in)
			if rec.ShortDesc != "Surfer rides a wave at dusk" {
				t.Fatalf("short desc = %q", rec.ShortDesc)
			}
		})
	}
}

func TestParse_HeuristicFallback(t *testing.T) {
	t.Parallel()

	raw := "A mountain biker descends a rocky alpine trail. The biker wears a red helmet. Alpine scenery surrounds the trail."
	rec := Parse(raw)
	if rec.Degenerate {
		t.Fatalf("non-empty text flagged degenerate")
	}
	if rec.LongDesc != raw {
		t.Fatalf("fallback should keep full text as description")
	}
	if len(rec.Keywords) == 0 {
		t.Fatalf("expected heuristic keywords")
	}

	// "biker", "alpine" and "trail" each appear twice, so they must rank
	// ahead of one-off words, ordered by first appearance.
	if len(rec.Keywords) < 3 {
		t.Fatalf("too few keywords: %v", rec.Keywords)
	}
	want := []string{"biker", "alpine", "trail"}
	for i, w := range want {
		if !strings.EqualFold(rec.Keywords[i], w) {
			t.Fatalf("keyword %d = %q, want %q (all: %v)", i, rec.Keywords[i], w, rec.Keywords)
		}
	}
	for _, k := range rec.Keywords {
		if strings.EqualFold(k, "the") {
			t.Fatalf("stopword leaked into keywords: %v", rec.Keywords)
		}
	}
}

func TestParse_NeverFails(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		in         string
		degenerate bool
	}{
		{"empty", "", true},
		{"whitespace", "   \n\t ", true},
		{"broken json", `{"short_desc": "x", `, false},
		{"empty object", `{}`, true},
		{"plain word", "ok", true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rec := Parse(tc.in)
			if rec.Degenerate != tc.degenerate {
				t.Fatalf("Degenerate = %v, want %v (record %+v)", rec.Degenerate, tc.degenerate, rec)
			}
		})
	}
}

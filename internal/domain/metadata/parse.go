// Package metadata turns raw model output into structured records and merges
// them into existing clip metadata without destroying prior organization.
package metadata

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/WDegan/metafootage-davinci-resolve/internal/types"
)

// structuredResponse is the JSON shape the providers are asked to produce.
type structuredResponse struct {
	ShortDesc string   `json:"short_desc"`
	LongDesc  string   `json:"long_desc"`
	Subjects  []string `json:"subjects"`
	Actions   []string `json:"actions"`
	Camera    string   `json:"camera"`
	Lighting  string   `json:"lighting"`
	Setting   string   `json:"setting"`
	Emotion   string   `json:"emotion"`
	Keywords  []string `json:"keywords"`
}

// Parse extracts a MetadataRecord from raw provider text. It never fails:
// when structured markers are absent the whole text becomes the description
// and keywords are derived heuristically. An empty result is flagged as
// degenerate, not returned as an error.
func Parse(raw string) types.MetadataRecord {
	if obj, ok := extractJSONObject(raw); ok {
		var sr structuredResponse
		if err := json.Unmarshal([]byte(obj), &sr); err == nil {
			rec, populated := recordFromStructured(sr)
			if !populated {
				// Valid JSON with nothing in it: the raw text is just
				// braces, not a usable description.
				rec.Degenerate = true
			}
			return rec
		}
	}
	return heuristicRecord(raw)
}

func recordFromStructured(sr structuredResponse) (types.MetadataRecord, bool) {
	var rec types.MetadataRecord
	rec.ShortDesc = strings.TrimSpace(sr.ShortDesc)
	rec.LongDesc = composeLongDesc(sr)
	rec.Shot = strings.TrimSpace(sr.Camera)
	rec.Scene = strings.TrimSpace(sr.Setting)
	rec.Keywords = dedupeKeywords(append(append(append([]string{}, sr.Keywords...), sr.Subjects...), sr.Actions...))

	if rec.ShortDesc == "" && rec.LongDesc == "" && rec.Shot == "" && rec.Scene == "" && len(rec.Keywords) == 0 {
		return rec, false
	}
	return rec, true
}

// composeLongDesc assembles the long description plus lighting and emotion
// lines, the way the metadata ends up in the clip's comments field.
func composeLongDesc(sr structuredResponse) string {
	var parts []string
	if s := strings.TrimSpace(sr.LongDesc); s != "" {
		parts = append(parts, s)
	}
	var notes []string
	if s := strings.TrimSpace(sr.Lighting); s != "" {
		notes = append(notes, "Lighting: "+s)
	}
	if s := strings.TrimSpace(sr.Emotion); s != "" {
		notes = append(notes, "Emotion: "+s)
	}
	if len(notes) > 0 {
		parts = append(parts, strings.Join(notes, "\n"))
	}
	return strings.Join(parts, "\n\n")
}

// minUsefulDescription is the shortest free-text response still worth
// recording as a description.
const minUsefulDescription = 10

func heuristicRecord(raw string) types.MetadataRecord {
	text := strings.TrimSpace(raw)
	rec := types.MetadataRecord{
		LongDesc: text,
		Keywords: salientKeywords(text, 8),
	}
	rec.Degenerate = len(text) < minUsefulDescription && len(rec.Keywords) == 0
	return rec
}

// extractJSONObject strips markdown code fences and returns the first JSON
// object found in s.
func extractJSONObject(s string) (string, bool) {
	t := strings.TrimSpace(s)
	if t == "" {
		return "", false
	}
	if strings.HasPrefix(t, "```") {
		if i := strings.Index(t, "\n"); i >= 0 {
			t = t[i+1:]
		}
		if j := strings.LastIndex(t, "```"); j >= 0 {
			t = t[:j]
		}
		t = strings.TrimSpace(t)
	}
	start := strings.Index(t, "{")
	end := strings.LastIndex(t, "}")
	if start >= 0 && end > start {
		return t[start : end+1], true
	}
	return "", false
}

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "with": {}, "this": {}, "that": {}, "from": {},
	"into": {}, "over": {}, "under": {}, "while": {}, "there": {}, "their": {},
	"these": {}, "those": {}, "shows": {}, "image": {}, "frame": {}, "frames": {},
	"video": {}, "shot": {}, "scene": {}, "appears": {}, "visible": {},
	"across": {}, "through": {}, "where": {}, "which": {}, "being": {},
	"have": {}, "has": {}, "are": {}, "was": {}, "were": {}, "its": {},
}

// salientKeywords derives up to limit keywords from free text by frequency,
// skipping stopwords and short tokens. Ties keep first-appearance order.
func salientKeywords(text string, limit int) []string {
	if text == "" || limit <= 0 {
		return nil
	}

	type token struct {
		display string
		count   int
		first   int
	}
	seen := map[string]*token{}
	var order []*token

	for i, f := range strings.Fields(text) {
		w := strings.Trim(f, ".,;:!?\"'()[]{}*`")
		if len(w) < 4 {
			continue
		}
		norm := strings.ToLower(w)
		if _, skip := stopwords[norm]; skip {
			continue
		}
		if tk, ok := seen[norm]; ok {
			tk.count++
			continue
		}
		tk := &token{display: w, count: 1, first: i}
		seen[norm] = tk
		order = append(order, tk)
	}

	sort.SliceStable(order, func(i, j int) bool {
		if order[i].count != order[j].count {
			return order[i].count > order[j].count
		}
		return order[i].first < order[j].first
	})

	if len(order) > limit {
		order = order[:limit]
	}
	out := make([]string, 0, len(order))
	for _, tk := range order {
		out = append(out, tk.display)
	}
	return out
}

// dedupeKeywords trims keywords and drops case-insensitive duplicates while
// preserving first occurrence order and casing.
func dedupeKeywords(kws []string) []string {
	seen := make(map[string]struct{}, len(kws))
	out := make([]string, 0, len(kws))
	for _, k := range kws {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		norm := strings.ToLower(k)
		if _, dup := seen[norm]; dup {
			continue
		}
		seen[norm] = struct{}{}
		out = append(out, k)
	}
	return out
}

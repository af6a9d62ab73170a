package metadata

import (
	"reflect"
	"strings"
	"testing"

	"github.com/WDegan/metafootage-davinci-resolve/internal/types"
)

func TestMerge_KeywordUnion(t *testing.T) {
	t.Parallel()

	existing := types.Metadata{Keywords: []string{"B-Roll", "Ocean", "Day 2"}}
	rec := types.MetadataRecord{Keywords: []string{"surfing", "ocean", "Sunset"}}

	got := Merge(existing, rec, DescriptionAppend)
	want := []string{"B-Roll", "Ocean", "Day 2", "surfing", "Sunset"}
	if !reflect.DeepEqual(got.Keywords, want) {
		t.Fatalf("keywords = %v, want %v", got.Keywords, want)
	}
}

func TestMerge_Idempotent(t *testing.T) {
	t.Parallel()

	existing := types.Metadata{
		Description: "Old synopsis.",
		Keywords:    []string{"drone", "coast"},
	}
	rec := types.MetadataRecord{
		ShortDesc: "Aerial pass over cliffs",
		LongDesc:  "Slow drone push toward sea cliffs at dawn.",
		Keywords:  []string{"aerial", "cliffs", "Drone"},
	}

	once := Merge(existing, rec, DescriptionAppend)
	twice := Merge(once, rec, DescriptionAppend)

	if !reflect.DeepEqual(once.Keywords, twice.Keywords) {
		t.Fatalf("keyword merge not idempotent: %v then %v", once.Keywords, twice.Keywords)
	}
	if once.Description != twice.Description {
		t.Fatalf("description merge not idempotent: %q then %q", once.Description, twice.Description)
	}
	if once.Comments != twice.Comments {
		t.Fatalf("comments merge not idempotent")
	}
}

func TestMerge_SupersetInvariant(t *testing.T) {
	t.Parallel()

	existing := types.Metadata{Keywords: []string{"keep", "these", "Exact Words"}}
	got := Merge(existing, types.MetadataRecord{Keywords: []string{"new"}}, DescriptionAppend)

	for i, k := range existing.Keywords {
		if got.Keywords[i] != k {
			t.Fatalf("existing keyword %d changed: %q -> %q", i, k, got.Keywords[i])
		}
	}
}

func TestMerge_DescriptionAppend(t *testing.T) {
	t.Parallel()

	existing := types.Metadata{Description: "Logged on set."}
	rec := types.MetadataRecord{ShortDesc: "Night market crowd"}

	got := Merge(existing, rec, DescriptionAppend)
	want := "Logged on set." + DescriptionSeparator + "Night market crowd"
	if got.Description != want {
		t.Fatalf("description = %q, want %q", got.Description, want)
	}
}

func TestMerge_DescriptionReplace(t *testing.T) {
	t.Parallel()

	existing := types.Metadata{Description: "Logged on set.", Comments: "old comments"}
	rec := types.MetadataRecord{ShortDesc: "Night market crowd", LongDesc: "Vendors and lanterns."}

	got := Merge(existing, rec, DescriptionReplace)
	if got.Description != "Night market crowd" {
		t.Fatalf("description = %q", got.Description)
	}
	if got.Comments != "Vendors and lanterns." {
		t.Fatalf("comments = %q", got.Comments)
	}
}

func TestMerge_ShotAndScene(t *testing.T) {
	t.Parallel()

	rec := types.MetadataRecord{Shot: "handheld close-up", Scene: "night market"}

	// empty fields take the new value
	got := Merge(types.Metadata{}, rec, DescriptionAppend)
	if got.Shot != "handheld close-up" || got.Scene != "night market" {
		t.Fatalf("shot/scene not filled: %+v", got)
	}

	// append keeps what the editor already set
	existing := types.Metadata{Shot: "locked off wide", Scene: "studio"}
	got = Merge(existing, rec, DescriptionAppend)
	if got.Shot != "locked off wide" || got.Scene != "studio" {
		t.Fatalf("append policy overwrote shot/scene: %+v", got)
	}

	// replace overwrites
	got = Merge(existing, rec, DescriptionReplace)
	if got.Shot != "handheld close-up" || got.Scene != "night market" {
		t.Fatalf("replace policy kept old shot/scene: %+v", got)
	}

	// an empty record never clears the fields
	got = Merge(existing, types.MetadataRecord{}, DescriptionReplace)
	if got.Shot != "locked off wide" || got.Scene != "studio" {
		t.Fatalf("empty record cleared shot/scene: %+v", got)
	}
}

func TestMerge_EmptyRecordLeavesMetadataAlone(t *testing.T) {
	t.Parallel()

	existing := types.Metadata{
		Description: "Keep me",
		Comments:    "And me",
		Keywords:    []string{"a", "b"},
	}
	got := Merge(existing, types.MetadataRecord{Degenerate: true}, DescriptionAppend)

	if got.Description != existing.Description || got.Comments != existing.Comments {
		t.Fatalf("empty record must not change text fields: %+v", got)
	}
	if !reflect.DeepEqual(got.Keywords, existing.Keywords) {
		t.Fatalf("empty record must not change keywords: %v", got.Keywords)
	}
}

func TestMerge_TrimsAndSkipsBlankKeywords(t *testing.T) {
	t.Parallel()

	got := Merge(
		types.Metadata{Keywords: []string{" ocean ", ""}},
		types.MetadataRecord{Keywords: []string{"  ", "reef"}},
		DescriptionAppend,
	)
	want := []string{"ocean", "reef"}
	if !reflect.DeepEqual(got.Keywords, want) {
		t.Fatalf("keywords = %v, want %v", got.Keywords, want)
	}
	if strings.Contains(strings.Join(got.Keywords, ","), " ") {
		t.Fatalf("keywords not trimmed: %v", got.Keywords)
	}
}

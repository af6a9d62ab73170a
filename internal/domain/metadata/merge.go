package metadata

import (
	"strings"

	"github.com/WDegan/metafootage-davinci-resolve/internal/types"
)

// DescriptionPolicy controls how a new description combines with an existing
// non-empty one.
type DescriptionPolicy string

const (
	// DescriptionAppend keeps the existing text and appends the new one
	// with DescriptionSeparator. The conservative default.
	DescriptionAppend DescriptionPolicy = "append"
	// DescriptionReplace overwrites the existing description.
	DescriptionReplace DescriptionPolicy = "replace"
)

// DescriptionSeparator joins existing and appended description text.
const DescriptionSeparator = "\n\n"

// Merge combines a clip's existing metadata with a freshly parsed record.
// The merged keyword set is always a superset of the existing one: existing
// keywords keep their order, genuinely new keywords append in model-output
// order, duplicates compared case-insensitively. Merge performs no I/O and
// is idempotent.
func Merge(existing types.Metadata, rec types.MetadataRecord, policy DescriptionPolicy) types.Metadata {
	out := types.Metadata{
		Description: combineText(existing.Description, rec.ShortDesc, policy),
		Comments:    combineText(existing.Comments, rec.LongDesc, policy),
		Shot:        mergeField(existing.Shot, rec.Shot, policy),
		Scene:       mergeField(existing.Scene, rec.Scene, policy),
		Keywords:    mergeKeywords(existing.Keywords, rec.Keywords),
	}
	return out
}

// mergeField handles single-valued clip fields like shot and scene: an
// existing value wins under the append policy, replace overwrites it.
func mergeField(existing, added string, policy DescriptionPolicy) string {
	added = strings.TrimSpace(added)
	if added == "" {
		return existing
	}
	if existing == "" || policy == DescriptionReplace {
		return added
	}
	return existing
}

func combineText(existing, added string, policy DescriptionPolicy) string {
	added = strings.TrimSpace(added)
	if added == "" {
		return existing
	}
	if existing == "" || policy == DescriptionReplace {
		return added
	}
	// Re-merging the same record must not duplicate text.
	if strings.Contains(existing, added) {
		return existing
	}
	return existing + DescriptionSeparator + added
}

func mergeKeywords(existing, added []string) []string {
	out := make([]string, 0, len(existing)+len(added))
	seen := make(map[string]struct{}, len(existing)+len(added))

	for _, k := range existing {
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
	for _, k := range added {
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

// Package manifest implements the MetadataHost contract over a host-exported
// clip selection file: a JSON document with one entry per selected clip.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/WDegan/metafootage-davinci-resolve/internal/types"
)

type document struct {
	Clips []clipEntry `json:"clips"`
}

type clipEntry struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	FilePath    string   `json:"file_path"`
	ProxyPath   string   `json:"proxy_path,omitempty"`
	DurationSec float64  `json:"duration_sec"`
	Description string   `json:"description,omitempty"`
	Comments    string   `json:"comments,omitempty"`
	Shot        string   `json:"shot,omitempty"`
	Scene       string   `json:"scene,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
}

// Host reads a selection manifest once, serves metadata reads and writes in
// memory, and persists everything in one Flush. Not safe for concurrent use;
// the orchestrator serializes all calls.
type Host struct {
	path  string
	doc   document
	index map[string]int
	dirty bool
}

// Load parses the selection manifest at path.
func Load(path string) (*Host, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read selection manifest: %w", err)
	}
	var doc document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse selection manifest %s: %w", path, err)
	}
	if len(doc.Clips) == 0 {
		return nil, fmt.Errorf("selection manifest %s contains no clips", path)
	}

	h := &Host{path: path, doc: doc, index: make(map[string]int, len(doc.Clips))}
	for i, c := range doc.Clips {
		if c.ID == "" {
			return nil, fmt.Errorf("selection manifest clip %d has no id", i)
		}
		if _, dup := h.index[c.ID]; dup {
			return nil, fmt.Errorf("selection manifest has duplicate clip id %q", c.ID)
		}
		h.index[c.ID] = i
	}
	return h, nil
}

// Clips returns the selection in manifest order.
func (h *Host) Clips() []types.ClipRef {
	out := make([]types.ClipRef, 0, len(h.doc.Clips))
	for _, c := range h.doc.Clips {
		out = append(out, types.ClipRef{
			ID:        c.ID,
			Name:      c.Name,
			FilePath:  c.FilePath,
			ProxyPath: c.ProxyPath,
			Duration:  time.Duration(c.DurationSec * float64(time.Second)),
			Existing: types.Metadata{
				Description: c.Description,
				Comments:    c.Comments,
				Shot:        c.Shot,
				Scene:       c.Scene,
				Keywords:    append([]string(nil), c.Keywords...),
			},
		})
	}
	return out
}

func (h *Host) ReadMetadata(clipID string) (types.Metadata, error) {
	i, ok := h.index[clipID]
	if !ok {
		return types.Metadata{}, fmt.Errorf("unknown clip id %q", clipID)
	}
	c := h.doc.Clips[i]
	return types.Metadata{
		Description: c.Description,
		Comments:    c.Comments,
		Shot:        c.Shot,
		Scene:       c.Scene,
		Keywords:    append([]string(nil), c.Keywords...),
	}, nil
}

// WriteMetadata replaces the clip's metadata in memory. The entry updates as
// a whole, so a clip is either fully merged or untouched.
func (h *Host) WriteMetadata(clipID string, md types.Metadata) error {
	i, ok := h.index[clipID]
	if !ok {
		return fmt.Errorf("unknown clip id %q", clipID)
	}
	h.doc.Clips[i].Description = md.Description
	h.doc.Clips[i].Comments = md.Comments
	h.doc.Clips[i].Shot = md.Shot
	h.doc.Clips[i].Scene = md.Scene
	h.doc.Clips[i].Keywords = append([]string(nil), md.Keywords...)
	h.dirty = true
	return nil
}

// Flush writes the updated manifest back to disk atomically. A no-op when
// nothing was written.
func (h *Host) Flush() error {
	if !h.dirty {
		return nil
	}
	b, err := json.MarshalIndent(h.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal selection manifest: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(h.path), ".metafootage-*.json")
	if err != nil {
		return fmt.Errorf("create temp manifest: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp manifest: %w", err)
	}
	if err := os.Rename(tmpPath, h.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace selection manifest: %w", err)
	}
	h.dirty = false
	return nil
}

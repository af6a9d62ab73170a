package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/WDegan/metafootage-davinci-resolve/internal/types"
)

const sampleManifest = `{
  "clips": [
    {
      "id": "clip-1",
      "name": "A001_C001",
      "file_path": "/footage/A001_C001.braw",
      "proxy_path": "/proxies/A001_C001.mov",
      "duration_sec": 12.5,
      "description": "existing description",
      "keywords": ["Day 1", "Exterior"]
    },
    {
      "id": "clip-2",
      "name": "A001_C002",
      "file_path": "/footage/A001_C002.mp4",
      "duration_sec": 47
    }
  ]
}`

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "selection.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestLoad_ClipsInSelectionOrder(t *testing.T) {
	t.Parallel()

	h, err := Load(writeManifest(t, sampleManifest))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	clips := h.Clips()
	if len(clips) != 2 {
		t.Fatalf("expected 2 clips, got %d", len(clips))
	}
	if clips[0].ID != "clip-1" || clips[1].ID != "clip-2" {
		t.Fatalf("clips out of selection order: %v, %v", clips[0].ID, clips[1].ID)
	}
	if clips[0].Duration != 12500*time.Millisecond {
		t.Fatalf("duration = %s", clips[0].Duration)
	}
	if clips[0].ProxyPath != "/proxies/A001_C001.mov" {
		t.Fatalf("proxy path = %q", clips[0].ProxyPath)
	}
	if !reflect.DeepEqual(clips[0].Existing.Keywords, []string{"Day 1", "Exterior"}) {
		t.Fatalf("existing keywords = %v", clips[0].Existing.Keywords)
	}
}

func TestLoad_Rejects(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		content string
	}{
		{"empty clips", `{"clips":[]}`},
		{"not json", `nope`},
		{"missing id", `{"clips":[{"name":"x","file_path":"/x.mp4","duration_sec":1}]}`},
		{"duplicate id", `{"clips":[{"id":"a","file_path":"/x.mp4","duration_sec":1},{"id":"a","file_path":"/y.mp4","duration_sec":1}]}`},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := Load(writeManifest(t, tc.content)); err == nil {
				t.Fatalf("expected load error")
			}
		})
	}
}

func TestWriteAndFlush(t *testing.T) {
	t.Parallel()

	path := writeManifest(t, sampleManifest)
	h, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	md := types.Metadata{
		Description: "new description",
		Comments:    "long form analysis",
		Shot:        "tracking shot, low angle",
		Scene:       "open ocean",
		Keywords:    []string{"Day 1", "Exterior", "surfing"},
	}
	if err := h.WriteMetadata("clip-1", md); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := h.ReadMetadata("clip-1")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !reflect.DeepEqual(got, md) {
		t.Fatalf("read-back = %+v, want %+v", got, md)
	}

	if err := h.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	var doc document
	if err := json.Unmarshal(b, &doc); err != nil {
		t.Fatalf("unmarshal flushed manifest: %v", err)
	}
	if doc.Clips[0].Description != "new description" {
		t.Fatalf("flushed description = %q", doc.Clips[0].Description)
	}
	if doc.Clips[0].Shot != "tracking shot, low angle" || doc.Clips[0].Scene != "open ocean" {
		t.Fatalf("flushed shot/scene = %q / %q", doc.Clips[0].Shot, doc.Clips[0].Scene)
	}
	// Untouched clip stays untouched.
	if doc.Clips[1].Description != "" || len(doc.Clips[1].Keywords) != 0 {
		t.Fatalf("untouched clip modified: %+v", doc.Clips[1])
	}
}

func TestWriteMetadata_UnknownClip(t *testing.T) {
	t.Parallel()

	h, err := Load(writeManifest(t, sampleManifest))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := h.WriteMetadata("nope", types.Metadata{}); err == nil {
		t.Fatalf("expected error for unknown clip id")
	}
}

func TestFlush_NoWritesIsNoOp(t *testing.T) {
	t.Parallel()

	path := writeManifest(t, sampleManifest)
	h, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	before, _ := os.ReadFile(path)
	if err := h.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	after, _ := os.ReadFile(path)
	if string(before) != string(after) {
		t.Fatalf("no-op flush rewrote the manifest")
	}
}

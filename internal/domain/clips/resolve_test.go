package clips

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/WDegan/metafootage-davinci-resolve/internal/types"
)

func TestDetectFormat(t *testing.T) {
	t.Parallel()

	cases := []struct {
		path string
		want types.Format
	}{
		{"/footage/A001.mp4", types.FormatStandard},
		{"/footage/A001.MOV", types.FormatStandard},
		{"/footage/A001.braw", types.FormatBRAW},
		{"/footage/A001.BRAW", types.FormatBRAW},
		{"/footage/A001_C002.R3D", types.FormatR3D},
		{"/footage/A001.ari", types.FormatARRIRAW},
		{"/footage/A001.dng", types.FormatCinemaDNG},
		{"/footage/A001.crm", types.FormatCanonRAW},
	}
	for _, tc := range cases {
		if got := DetectFormat(tc.path); got != tc.want {
			t.Fatalf("DetectFormat(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestResolve_StandardSource(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	src := filepath.Join(tmp, "clip.mp4")
	writeFile(t, src)

	desc, err := Resolver{}.Resolve(types.ClipRef{ID: "1", Name: "clip", FilePath: src})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if desc.MediaPath != src {
		t.Fatalf("media path = %q, want source %q", desc.MediaPath, src)
	}
	if desc.UsedProxy {
		t.Fatalf("standard source should not use a proxy")
	}
}

func TestResolve_MissingStandardSource(t *testing.T) {
	t.Parallel()

	ref := types.ClipRef{Name: "gone", FilePath: filepath.Join(t.TempDir(), "gone.mp4")}
	_, err := Resolver{}.Resolve(ref)
	if err == nil {
		t.Fatalf("expected error for missing source file")
	}
}

func TestResolve_RAWPrefersHostProxy(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	proxy := filepath.Join(tmp, "clip_proxy.mov")
	writeFile(t, proxy)

	desc, err := Resolver{}.Resolve(types.ClipRef{
		Name:      "clip",
		FilePath:  filepath.Join(tmp, "clip.braw"),
		ProxyPath: proxy,
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if desc.MediaPath != proxy {
		t.Fatalf("media path = %q, want proxy %q", desc.MediaPath, proxy)
	}
	if !desc.UsedProxy {
		t.Fatalf("expected UsedProxy")
	}
	if desc.Format != types.FormatBRAW {
		t.Fatalf("format = %q, want braw", desc.Format)
	}
}

func TestResolve_RAWFindsProxySubfolder(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	proxy := filepath.Join(tmp, "Proxy", "clip.mov")
	writeFile(t, proxy)

	desc, err := Resolver{}.Resolve(types.ClipRef{
		Name:     "clip",
		FilePath: filepath.Join(tmp, "clip.r3d"),
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if desc.MediaPath != proxy {
		t.Fatalf("media path = %q, want %q", desc.MediaPath, proxy)
	}
}

func TestResolve_RAWProxyRootOverride(t *testing.T) {
	t.Parallel()

	srcDir := t.TempDir()
	rootDir := t.TempDir()
	proxy := filepath.Join(rootDir, "clip.mov")
	writeFile(t, proxy)

	desc, err := Resolver{ProxyRoot: rootDir}.Resolve(types.ClipRef{
		Name:     "clip",
		FilePath: filepath.Join(srcDir, "clip.braw"),
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if desc.MediaPath != proxy {
		t.Fatalf("media path = %q, want proxy root match %q", desc.MediaPath, proxy)
	}
}

func TestResolve_RAWWithoutProxyFails(t *testing.T) {
	t.Parallel()

	ref := types.ClipRef{
		Name:     "clip",
		FilePath: filepath.Join(t.TempDir(), "clip.braw"),
	}
	_, err := Resolver{}.Resolve(ref)
	if !errors.Is(err, ErrProxyNotFound) {
		t.Fatalf("expected ErrProxyNotFound, got %v", err)
	}
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

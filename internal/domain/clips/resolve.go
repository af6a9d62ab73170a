// Package clips resolves host clip references into analyzable media paths,
// substituting proxy media for RAW sources that frame extraction cannot decode.
package clips

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/WDegan/metafootage-davinci-resolve/internal/types"
)

// ErrProxyNotFound means a RAW clip has no resolvable proxy and must be
// skipped rather than analyzed from the undecodable original.
var ErrProxyNotFound = errors.New("no proxy found for raw clip")

// rawFormats maps source extensions to RAW format tags. Extensions outside
// this set are treated as directly decodable.
var rawFormats = map[string]types.Format{
	".braw": types.FormatBRAW,
	".r3d":  types.FormatR3D,
	".ari":  types.FormatARRIRAW,
	".arx":  types.FormatARRIRAW,
	".dng":  types.FormatCinemaDNG,
	".crm":  types.FormatCanonRAW,
}

// DetectFormat classifies a source path by extension.
func DetectFormat(path string) types.Format {
	if f, ok := rawFormats[strings.ToLower(filepath.Ext(path))]; ok {
		return f
	}
	return types.FormatStandard
}

// Resolver turns clip references into fully populated descriptors.
type Resolver struct {
	// ProxyRoot is an optional user-configured directory searched for
	// proxies of RAW sources, e.g. a separate proxy drive.
	ProxyRoot string
}

// Resolve determines the best analyzable media path for ref. RAW sources
// resolve to a proxy or fail with ErrProxyNotFound; the original is never
// handed to frame extraction.
func (r Resolver) Resolve(ref types.ClipRef) (types.ClipDescriptor, error) {
	desc := types.ClipDescriptor{ClipRef: ref}
	if ref.FilePath == "" {
		return desc, fmt.Errorf("clip %q has no file path", ref.Name)
	}

	desc.Format = DetectFormat(ref.FilePath)
	if !desc.Format.IsRAW() {
		if _, err := os.Stat(ref.FilePath); err != nil {
			return desc, fmt.Errorf("source file not found: %w", err)
		}
		desc.MediaPath = ref.FilePath
		return desc, nil
	}

	proxy, checked := r.findProxy(ref)
	if proxy == "" {
		return desc, fmt.Errorf("%w (%s source, checked %s)",
			ErrProxyNotFound, desc.Format, strings.Join(checked, ", "))
	}
	desc.MediaPath = proxy
	desc.UsedProxy = true
	return desc, nil
}

// findProxy searches proxy candidates in priority order: the host-reported
// proxy path, the configured proxy root (direct files and Proxy/Proxies
// subfolders), then Proxy/Proxies folders next to the source.
func (r Resolver) findProxy(ref types.ClipRef) (string, []string) {
	dir := filepath.Dir(ref.FilePath)
	file := filepath.Base(ref.FilePath)
	stem := strings.TrimSuffix(file, filepath.Ext(file))

	var candidates []string
	if ref.ProxyPath != "" {
		candidates = append(candidates, ref.ProxyPath)
	}
	if r.ProxyRoot != "" {
		candidates = append(candidates,
			filepath.Join(r.ProxyRoot, stem+".mov"),
			filepath.Join(r.ProxyRoot, stem+".mp4"),
			filepath.Join(r.ProxyRoot, file),
			filepath.Join(r.ProxyRoot, "Proxy", stem+".mov"),
			filepath.Join(r.ProxyRoot, "Proxies", stem+".mov"),
			filepath.Join(r.ProxyRoot, "Proxy", file),
		)
	}
	candidates = append(candidates,
		filepath.Join(dir, "Proxy", stem+".mov"),
		filepath.Join(dir, "Proxy", stem+".mp4"),
		filepath.Join(dir, "Proxies", stem+".mov"),
		filepath.Join(dir, "Proxies", stem+".mp4"),
	)

	checked := make([]string, 0, len(candidates))
	for _, c := range candidates {
		checked = append(checked, c)
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, checked
		}
	}
	return "", checked
}

package ports

import (
	"context"
	"errors"
	"time"

	"github.com/WDegan/metafootage-davinci-resolve/internal/types"
)

// Provider error classes. Adapters map transport/status failures onto these
// so the orchestrator can decide what was retried and what is terminal.
var (
	// ErrProviderAuth is an authentication failure. Never retried.
	ErrProviderAuth = errors.New("provider rejected credentials")
	// ErrRateLimited is surfaced after bounded retries are exhausted.
	ErrRateLimited = errors.New("provider rate limit exceeded")
	// ErrBadRequest is a malformed or unsupported request. Never retried.
	ErrBadRequest = errors.New("provider rejected request")
	// ErrFrameExtraction means fewer than MinUsableFrames frames could be
	// decoded for a clip.
	ErrFrameExtraction = errors.New("too few usable frames extracted")
)

// MinUsableFrames is the smallest frame set still worth analyzing.
const MinUsableFrames = 2

// FrameExtractor invokes the external frame-extraction tool.
type FrameExtractor interface {
	// Doctor verifies the extraction tool is available at all. Run once
	// before any clip starts.
	Doctor(ctx context.Context) error
	ProbeDuration(ctx context.Context, mediaPath string) (time.Duration, error)
	// ExtractFrame decodes a single still image at the given timestamp.
	ExtractFrame(ctx context.Context, mediaPath string, at time.Duration) ([]byte, error)
}

// GenerateRequest is one provider call: a prompt plus a bounded frame set.
type GenerateRequest struct {
	System string
	Prompt string
	Frames types.FrameSet
}

// VisionModel is the capability "accept N images and a prompt, return text".
// Implementations encapsulate their own request shape, auth header and
// model-name mapping, and classify failures onto the sentinel errors above.
type VisionModel interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// MetadataHost is the host editor's metadata surface. Calls must be issued
// from the orchestrating goroutine; implementations are not required to be
// safe for concurrent use.
type MetadataHost interface {
	ReadMetadata(clipID string) (types.Metadata, error)
	// WriteMetadata replaces the clip's metadata atomically; a clip is
	// either fully written or left untouched.
	WriteMetadata(clipID string, md types.Metadata) error
}

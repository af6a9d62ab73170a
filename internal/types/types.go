package types

import "time"

// Format is the detected container/codec family of a clip source.
type Format string

const (
	FormatStandard  Format = "standard"
	FormatBRAW      Format = "braw"
	FormatR3D       Format = "r3d"
	FormatARRIRAW   Format = "arriraw"
	FormatCinemaDNG Format = "cinema-dng"
	FormatCanonRAW  Format = "canon-raw"
)

// IsRAW reports whether the format needs proxy substitution before decoding.
func (f Format) IsRAW() bool {
	return f != FormatStandard && f != ""
}

// Metadata is a clip's host-side metadata snapshot. Shot and Scene mirror
// the host's dedicated clip fields for camera work and location.
type Metadata struct {
	Description string
	Comments    string
	Shot        string
	Scene       string
	Keywords    []string
}

// ClipRef is a clip reference as handed over by the host.
type ClipRef struct {
	ID        string
	Name      string
	FilePath  string
	ProxyPath string // host-reported proxy, may be empty
	Duration  time.Duration
	Existing  Metadata
}

// ClipDescriptor is a resolved, analyzable clip. Immutable once resolved for a run.
type ClipDescriptor struct {
	ClipRef

	Format    Format
	MediaPath string // the path frames are sampled from (proxy for RAW sources)
	UsedProxy bool
}

// Frame is a single decoded still image sampled from a clip.
type Frame struct {
	Timestamp time.Duration
	JPEG      []byte
}

// FrameSet is an ordered sequence of sampled frames for one clip.
// Order always matches timestamp order.
type FrameSet []Frame

// MetadataRecord is the structured result extracted from a model response.
// It may be partially populated; Degenerate flags an empty or near-empty
// extraction, which is a quality concern rather than an error.
type MetadataRecord struct {
	ShortDesc  string
	LongDesc   string
	Shot       string
	Scene      string
	Keywords   []string
	Degenerate bool
}

// ClipState is a stage in the per-clip pipeline state machine.
type ClipState string

const (
	StatePending    ClipState = "pending"
	StateResolving  ClipState = "resolving"
	StateSampling   ClipState = "sampling"
	StateRequesting ClipState = "requesting"
	StateParsing    ClipState = "parsing"
	StateMerging    ClipState = "merging"
	StateWritten    ClipState = "written"
	StateFailed     ClipState = "failed"
	StateCancelled  ClipState = "cancelled"
)

// ClipResult is the terminal outcome of one clip in a batch run.
type ClipResult struct {
	ClipID     string
	Name       string
	State      ClipState
	UsedProxy  bool
	FrameCount int
	Degenerate bool
	Err        error
}

// Summary aggregates a batch run. Results are in original selection order,
// regardless of the order clips actually finished in.
type Summary struct {
	RunID     string
	Written   int
	Failed    int
	Cancelled int
	Results   []ClipResult
}

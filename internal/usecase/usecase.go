package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/WDegan/metafootage-davinci-resolve/internal/domain/clips"
	"github.com/WDegan/metafootage-davinci-resolve/internal/domain/frames"
	"github.com/WDegan/metafootage-davinci-resolve/internal/domain/metadata"
	"github.com/WDegan/metafootage-davinci-resolve/internal/domain/sampling"
	"github.com/WDegan/metafootage-davinci-resolve/internal/ports"
	"github.com/WDegan/metafootage-davinci-resolve/internal/types"
)

const (
	// MaxConcurrency bounds the worker pool overlapping extraction and
	// provider I/O. Metadata write-back stays on the orchestrating
	// goroutine regardless.
	MaxConcurrency     = 4
	defaultConcurrency = 3
	defaultClipTimeout = 5 * time.Minute
)

type Deps struct {
	Extractor ports.FrameExtractor
	Model     ports.VisionModel
	Host      ports.MetadataHost
	Resolver  clips.Resolver
	Log       *slog.Logger
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase {
	if d.Log == nil {
		d.Log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return Usecase{d: d}
}

type Input struct {
	RunID       string
	Clips       []types.ClipRef
	FrameCount  int
	Concurrency int
	Policy      metadata.DescriptionPolicy
	// ClipTimeout bounds one clip's wall-clock time including provider
	// retries.
	ClipTimeout time.Duration
}

type Result struct {
	Summary types.Summary
}

type job struct {
	idx int
	ref types.ClipRef
}

type outcome struct {
	idx int
	rec types.MetadataRecord
	res types.ClipResult
}

// Run drives the batch. Each clip moves through
// resolve -> sample -> request -> parse on a bounded worker pool, then
// merge -> write serialized here. A failed clip never halts its siblings;
// cancellation is checked between stages, and the summary lists every clip
// in original selection order.
func (u Usecase) Run(ctx context.Context, in Input) (Result, error) {
	if !sampling.CountSupported(in.FrameCount) {
		return Result{}, fmt.Errorf("unsupported frame count %d", in.FrameCount)
	}
	workers := in.Concurrency
	if workers <= 0 {
		workers = defaultConcurrency
	}
	if workers > MaxConcurrency {
		workers = MaxConcurrency
	}
	if len(in.Clips) < workers {
		workers = len(in.Clips)
	}
	if in.ClipTimeout <= 0 {
		in.ClipTimeout = defaultClipTimeout
	}

	n := len(in.Clips)
	summary := types.Summary{RunID: in.RunID, Results: make([]types.ClipResult, n)}
	if n == 0 {
		return Result{Summary: summary}, nil
	}

	jobs := make(chan job, n)
	outcomes := make(chan outcome, n)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				if ctx.Err() != nil {
					outcomes <- outcome{idx: j.idx, res: cancelledResult(j.ref)}
					continue
				}
				rec, res := u.analyzeClip(ctx, j.ref, in)
				outcomes <- outcome{idx: j.idx, rec: rec, res: res}
			}
		}()
	}
	for i, ref := range in.Clips {
		jobs <- job{idx: i, ref: ref}
	}
	close(jobs)

	// Merge and write-back stay on this goroutine: the host metadata API
	// is single-threaded by contract.
	for done := 0; done < n; done++ {
		o := <-outcomes
		res := o.res
		if res.State == types.StateParsing {
			res = u.mergeAndWrite(ctx, in, o)
		}
		summary.Results[o.idx] = res
	}
	wg.Wait()

	for _, r := range summary.Results {
		switch r.State {
		case types.StateWritten:
			summary.Written++
		case types.StateCancelled:
			summary.Cancelled++
		default:
			summary.Failed++
		}
	}

	u.d.Log.Info("batch finished",
		"run_id", in.RunID,
		"written", summary.Written,
		"failed", summary.Failed,
		"cancelled", summary.Cancelled,
	)
	return Result{Summary: summary}, nil
}

// analyzeClip runs the concurrent-safe stages of one clip and hands back a
// parsed record. The returned result carries StateParsing on success and a
// terminal state otherwise.
func (u Usecase) analyzeClip(ctx context.Context, ref types.ClipRef, in Input) (types.MetadataRecord, types.ClipResult) {
	res := types.ClipResult{ClipID: ref.ID, Name: ref.Name}
	log := u.d.Log.With("clip", ref.Name)

	clipCtx, cancel := context.WithTimeout(ctx, in.ClipTimeout)
	defer cancel()

	res.State = types.StateResolving
	desc, err := u.d.Resolver.Resolve(ref)
	if err != nil {
		return types.MetadataRecord{}, failed(res, fmt.Errorf("resolve: %w", err))
	}
	res.UsedProxy = desc.UsedProxy
	if desc.UsedProxy {
		log.Debug("analyzing via proxy", "proxy", desc.MediaPath)
	}

	if ctx.Err() != nil {
		return types.MetadataRecord{}, cancelledResult(ref)
	}
	res.State = types.StateSampling
	set, err := u.sampleFrames(clipCtx, desc, in.FrameCount, log)
	if err != nil {
		if ctx.Err() != nil {
			return types.MetadataRecord{}, cancelledResult(ref)
		}
		return types.MetadataRecord{}, failed(res, err)
	}
	res.FrameCount = len(set)

	if ctx.Err() != nil {
		return types.MetadataRecord{}, cancelledResult(ref)
	}
	res.State = types.StateRequesting
	log.Debug("requesting analysis", "frames", len(set))
	text, err := u.d.Model.Generate(clipCtx, ports.GenerateRequest{
		System: systemInstruction,
		Prompt: buildPrompt(ref.Name),
		Frames: set,
	})
	if err != nil {
		if ctx.Err() != nil {
			return types.MetadataRecord{}, cancelledResult(ref)
		}
		return types.MetadataRecord{}, failed(res, fmt.Errorf("generate: %w", err))
	}

	res.State = types.StateParsing
	rec := metadata.Parse(text)
	if rec.Degenerate {
		// Quality concern, not an error: the merge still runs so the
		// clip is not reported as failed.
		log.Warn("degenerate model response", "raw_len", len(text))
		res.Degenerate = true
	}
	return rec, res
}

// sampleFrames extracts the planned timestamps, tolerating individual frame
// failures as long as MinUsableFrames remain.
func (u Usecase) sampleFrames(ctx context.Context, desc types.ClipDescriptor, count int, log *slog.Logger) (types.FrameSet, error) {
	duration := desc.Duration
	if duration <= 0 {
		probed, err := u.d.Extractor.ProbeDuration(ctx, desc.MediaPath)
		if err != nil {
			return nil, fmt.Errorf("probe duration: %w", err)
		}
		duration = probed
	}

	plan, err := sampling.Plan(duration, count)
	if err != nil {
		return nil, fmt.Errorf("plan samples: %w", err)
	}

	set := make(types.FrameSet, 0, len(plan))
	var lastErr error
	for _, at := range plan {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		jpg, err := u.d.Extractor.ExtractFrame(ctx, desc.MediaPath, at)
		if err != nil {
			log.Warn("frame extraction failed", "at", at, "err", err)
			lastErr = err
			continue
		}
		bounded, err := frames.BoundPayload(jpg)
		if err != nil {
			log.Warn("frame unusable", "at", at, "err", err)
			lastErr = err
			continue
		}
		set = append(set, types.Frame{Timestamp: at, JPEG: bounded})
	}

	if len(set) < ports.MinUsableFrames {
		return nil, fmt.Errorf("%w: %d of %d frames usable (last error: %v)",
			ports.ErrFrameExtraction, len(set), len(plan), lastErr)
	}
	return set, nil
}

func (u Usecase) mergeAndWrite(ctx context.Context, in Input, o outcome) types.ClipResult {
	res := o.res
	if ctx.Err() != nil {
		res.State = types.StateCancelled
		return res
	}

	res.State = types.StateMerging
	existing, err := u.d.Host.ReadMetadata(res.ClipID)
	if err != nil {
		return failed(res, fmt.Errorf("read metadata: %w", err))
	}
	merged := metadata.Merge(existing, o.rec, in.Policy)
	if err := u.d.Host.WriteMetadata(res.ClipID, merged); err != nil {
		return failed(res, fmt.Errorf("write metadata: %w", err))
	}
	res.State = types.StateWritten
	u.d.Log.Info("metadata written",
		"clip", res.Name,
		"keywords", len(merged.Keywords),
		"used_proxy", res.UsedProxy,
	)
	return res
}

func failed(res types.ClipResult, err error) types.ClipResult {
	res.State = types.StateFailed
	res.Err = err
	return res
}

func cancelledResult(ref types.ClipRef) types.ClipResult {
	return types.ClipResult{ClipID: ref.ID, Name: ref.Name, State: types.StateCancelled}
}

// Package pipeline wires adapters to the usecase and runs a whole batch.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/WDegan/metafootage-davinci-resolve/internal/credentials"
	"github.com/WDegan/metafootage-davinci-resolve/internal/domain/clips"
	"github.com/WDegan/metafootage-davinci-resolve/internal/domain/metadata"
	"github.com/WDegan/metafootage-davinci-resolve/internal/domain/sampling"
	"github.com/WDegan/metafootage-davinci-resolve/internal/ports"
	"github.com/WDegan/metafootage-davinci-resolve/internal/ports/adapters/ffmpeg"
	"github.com/WDegan/metafootage-davinci-resolve/internal/ports/adapters/gemini"
	"github.com/WDegan/metafootage-davinci-resolve/internal/ports/adapters/manifest"
	"github.com/WDegan/metafootage-davinci-resolve/internal/ports/adapters/openaichat"
	"github.com/WDegan/metafootage-davinci-resolve/internal/types"
	"github.com/WDegan/metafootage-davinci-resolve/internal/usecase"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	defaultFrameCount = 5
)

type Config struct {
	ManifestPath string
	Provider     string
	Model        string
	FrameCount   int
	ProxyRoot    string
	Concurrency  int
	ClipTimeout  time.Duration

	// APIKey is a session-scoped key. Environment variables still win,
	// the stored key is the last resort.
	APIKey string

	DescriptionPolicy metadata.DescriptionPolicy

	FFmpegPath  string
	FFprobePath string

	OpenAIBaseURL      string
	OpenAIAllowedHosts []string

	// ConfigPath overrides the default preference store location. Used
	// by tests.
	ConfigPath string

	Logger *slog.Logger
}

// ApplyStoredPreferences fills unset config fields from the preference
// store. Explicit values always win over stored ones.
func (c *Config) ApplyStoredPreferences(store *credentials.FileStore) {
	if c.FrameCount == 0 {
		c.FrameCount = store.FrameCount()
	}
	if c.FrameCount == 0 {
		c.FrameCount = defaultFrameCount
	}
	if c.Model == "" {
		c.Model = store.Model()
	}
	if c.ProxyRoot == "" {
		c.ProxyRoot = store.ProxyRoot()
	}
}

func (c Config) Validate() error {
	if c.ManifestPath == "" {
		return errors.New("manifest path is empty")
	}
	if !sampling.CountSupported(c.FrameCount) {
		return fmt.Errorf("frame count must be one of %v, got %d", sampling.SupportedCounts, c.FrameCount)
	}
	if c.Concurrency < 0 || c.Concurrency > usecase.MaxConcurrency {
		return fmt.Errorf("concurrency must be between 1 and %d", usecase.MaxConcurrency)
	}
	switch c.Provider {
	case ProviderGemini:
		return nil
	case ProviderOpenAI:
		return openaichat.ValidateBaseURL(c.OpenAIBaseURL, c.OpenAIAllowedHosts)
	default:
		return fmt.Errorf("unknown provider %q (want %s or %s)", c.Provider, ProviderGemini, ProviderOpenAI)
	}
}

// Run executes one batch end to end: resolve credentials, verify the
// ffmpeg install, load the clip selection, analyze every clip, then flush
// the manifest. Preconditions fail the whole run before any clip starts.
func Run(ctx context.Context, cfg Config) (types.Summary, error) {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	storePath := cfg.ConfigPath
	if storePath == "" {
		p, err := credentials.DefaultPath()
		if err != nil {
			return types.Summary{}, fmt.Errorf("locate config: %w", err)
		}
		storePath = p
	}
	store := credentials.Open(storePath)
	cfg.ApplyStoredPreferences(store)
	if err := cfg.Validate(); err != nil {
		return types.Summary{}, err
	}

	cred, err := credentials.Resolve(cfg.Provider, credentials.EnvVar(cfg.Provider), cfg.APIKey, store)
	if err != nil {
		return types.Summary{}, err
	}
	log.Debug("credential resolved", "provider", cfg.Provider, "source", cred.Source)

	extractor := ffmpeg.New(cfg.FFmpegPath, cfg.FFprobePath)
	if err := extractor.Doctor(ctx); err != nil {
		return types.Summary{}, fmt.Errorf("ffmpeg check: %w", err)
	}

	host, err := manifest.Load(cfg.ManifestPath)
	if err != nil {
		return types.Summary{}, fmt.Errorf("load selection: %w", err)
	}

	var model ports.VisionModel
	switch cfg.Provider {
	case ProviderGemini:
		model = gemini.New(cred.Key, cfg.Model, "")
	case ProviderOpenAI:
		model = openaichat.New(cred.Key, cfg.Model, cfg.OpenAIBaseURL)
	default:
		return types.Summary{}, fmt.Errorf("unknown provider %q", cfg.Provider)
	}

	uc := usecase.New(usecase.Deps{
		Extractor: extractor,
		Model:     model,
		Host:      host,
		Resolver:  clips.Resolver{ProxyRoot: cfg.ProxyRoot},
		Log:       log,
	})

	refs := host.Clips()
	log.Info("batch starting",
		"clips", len(refs),
		"provider", cfg.Provider,
		"frames", cfg.FrameCount,
	)

	res, err := uc.Run(ctx, usecase.Input{
		RunID:       uuid.NewString(),
		Clips:       refs,
		FrameCount:  cfg.FrameCount,
		Concurrency: cfg.Concurrency,
		Policy:      cfg.DescriptionPolicy,
		ClipTimeout: cfg.ClipTimeout,
	})
	if err != nil {
		return types.Summary{}, err
	}

	if err := host.Flush(); err != nil {
		return res.Summary, fmt.Errorf("flush selection: %w", err)
	}
	return res.Summary, nil
}

// ensure adapters implement ports
var _ ports.FrameExtractor = (*ffmpeg.Adapter)(nil)
var _ ports.VisionModel = (*gemini.Adapter)(nil)
var _ ports.VisionModel = (*openaichat.Adapter)(nil)
var _ ports.MetadataHost = (*manifest.Host)(nil)

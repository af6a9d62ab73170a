package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/WDegan/metafootage-davinci-resolve/internal/credentials"
	"github.com/WDegan/metafootage-davinci-resolve/internal/domain/metadata"
	"github.com/WDegan/metafootage-davinci-resolve/internal/pipeline"
	"github.com/WDegan/metafootage-davinci-resolve/internal/types"
)

func run(cmd *cobra.Command, selection string) error {
	frames, _ := cmd.Flags().GetInt("frames")
	provider, _ := cmd.Flags().GetString("provider")
	model, _ := cmd.Flags().GetString("model")
	proxyRoot, _ := cmd.Flags().GetString("proxy-root")
	apiKey, _ := cmd.Flags().GetString("api-key")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	savePrefs, _ := cmd.Flags().GetBool("save-prefs")
	verbose, _ := cmd.Flags().GetBool("verbose")
	policyFlag, _ := cmd.Flags().GetString("description-policy")
	clipTimeout, _ := cmd.Flags().GetDuration("clip-timeout")

	policy := metadata.DescriptionAppend
	if policyFlag == string(metadata.DescriptionReplace) {
		policy = metadata.DescriptionReplace
	}

	absSel, err := filepath.Abs(selection)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := newLogger(verbose)

	cfg := pipeline.Config{
		ManifestPath: absSel,
		Provider:     provider,
		Model:        model,
		FrameCount:   frames,
		ProxyRoot:    proxyRoot,
		Concurrency:  concurrency,
		ClipTimeout:  clipTimeout,
		APIKey:       apiKey,

		DescriptionPolicy: policy,

		FFmpegPath:  "ffmpeg",
		FFprobePath: "ffprobe",

		OpenAIBaseURL:      os.Getenv("OPENAI_BASE_URL"),
		OpenAIAllowedHosts: splitHosts(os.Getenv("OPENAI_ALLOWED_HOSTS")),

		Logger: log,
	}

	if savePrefs {
		if err := savePreferences(frames, model, proxyRoot); err != nil {
			return fmt.Errorf("save preferences: %w", err)
		}
	}

	summary, err := pipeline.Run(ctx, cfg)
	if err != nil {
		return err
	}
	report(cmd, summary)
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d clips failed", summary.Failed, len(summary.Results))
	}
	return nil
}

func report(cmd *cobra.Command, s types.Summary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "done: %d written, %d failed, %d cancelled\n",
		s.Written, s.Failed, s.Cancelled)
	for _, r := range s.Results {
		switch r.State {
		case types.StateWritten:
			note := ""
			if r.UsedProxy {
				note = " (proxy)"
			}
			if r.Degenerate {
				note += " (low-quality response)"
			}
			fmt.Fprintf(out, "  ok   %s: %d frames%s\n", r.Name, r.FrameCount, note)
		case types.StateCancelled:
			fmt.Fprintf(out, "  skip %s: cancelled\n", r.Name)
		default:
			fmt.Fprintf(out, "  FAIL %s: %v\n", r.Name, r.Err)
		}
	}
}

func savePreferences(frames int, model, proxyRoot string) error {
	path, err := credentials.DefaultPath()
	if err != nil {
		return err
	}
	return credentials.Open(path).SavePreferences(frames, model, proxyRoot)
}

func splitHosts(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

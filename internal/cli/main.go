package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/WDegan/metafootage-davinci-resolve/internal/credentials"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := &cobra.Command{
		Use:          "metafootage <selection.json>",
		Short:        "Generate clip metadata from sampled frames with a vision model",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0])
		},
	}

	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	// Visible flags
	root.Flags().Int("frames", 0, "Frames sampled per clip (3, 5 or 7)")
	root.Flags().String("provider", "gemini", "Vision provider: gemini or openai")
	root.Flags().String("model", "", "Model name or alias (speed, quality)")
	root.Flags().String("proxy-root", "", "Directory searched for RAW clip proxies")
	root.Flags().String("api-key", "", "API key for this run only (not stored)")
	root.Flags().Int("concurrency", 0, "Clips analyzed in parallel")
	root.Flags().Bool("save-prefs", false, "Persist frames, model and proxy root as defaults")
	root.Flags().BoolP("verbose", "v", false, "Debug logging")

	// Hidden tuning flags (internal)
	root.Flags().String("description-policy", "append", "append or replace existing descriptions")
	_ = root.Flags().MarkHidden("description-policy")
	root.Flags().Duration("clip-timeout", 0, "Per-clip wall clock limit")
	_ = root.Flags().MarkHidden("clip-timeout")

	root.AddCommand(setKeyCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "set-key <provider> <api-key>",
		Short:        "Store an API key for later runs",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := credentials.DefaultPath()
			if err != nil {
				return err
			}
			store := credentials.Open(path)
			if err := store.SaveAPIKey(args[0], args[1]); err != nil {
				return fmt.Errorf("save key: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored %s key in %s\n", args[0], path)
			return nil
		},
	}
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
}

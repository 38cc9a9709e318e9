// Package main provides the CLI entrypoint for pcrtt.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/pcrtt/internal/config"
	"github.com/verte-zerg/pcrtt/internal/logging"
	"github.com/verte-zerg/pcrtt/internal/model"
	"github.com/verte-zerg/pcrtt/internal/render"
	"github.com/verte-zerg/pcrtt/internal/segment"
	"github.com/verte-zerg/pcrtt/internal/strava"
)

const (
	exitFailure       = 1
	exitValidation    = 2
	exitConfiguration = 3
	exitTransport     = 4
)

// now is replaced in tests.
var now = time.Now

type app struct {
	logLevel string
	log      *zap.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	rootCmd := newRootCmd()
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(exitCode(err))
	}
}

func newRootCmd() *cobra.Command {
	a := &app{log: zap.NewNop()}
	rootCmd := &cobra.Command{
		Use:           "pcrtt",
		Short:         "Strava time-trial results and standings",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			l, err := logging.New(a.logLevel)
			if err != nil {
				return model.Validationf("log level", "%v", err)
			}
			a.log = l
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			// stderr sync fails on some terminals
			_ = a.log.Sync()
		},
	}
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return model.Validationf("flags", "%v", err)
	})
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", logging.DefaultLevel, "log level: debug, info, warn or error")

	rootCmd.AddCommand(newStandingsCmd(a))
	rootCmd.AddCommand(newEffortsCmd(a))
	rootCmd.AddCommand(newSegmentsCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// noArgs rejects positional arguments as a ValidationError.
func noArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		return model.Validationf("arguments", "%v", err)
	}
	return nil
}

func exitCode(err error) int {
	var (
		vErr *model.ValidationError
		cErr *model.ConfigurationError
		tErr *model.TransportError
	)
	switch {
	case errors.As(err, &vErr):
		return exitValidation
	case errors.As(err, &cErr):
		return exitConfiguration
	case errors.As(err, &tErr):
		return exitTransport
	}
	return exitFailure
}

func newSegmentsCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "segments",
		Short: "List the configured segment table",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSegmentsCmd(cmd, format)
		},
	}
	cmd.Flags().StringVar(&format, "format", render.FormatText, "output format: csv, text or grid")
	return cmd
}

func runSegmentsCmd(cmd *cobra.Command, format string) error {
	format, err := render.ParseFormat(format)
	if err != nil {
		return err
	}
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	table, err := fileCfg.SegmentTable()
	if err != nil {
		return err
	}

	out := render.Table{
		Headers:    []string{"Label", "Title", "ID", "Points"},
		RightAlign: map[int]bool{2: true, 3: true},
	}
	for _, s := range table {
		out.Rows = append(out.Rows, []string{s.Label, s.Title, fmt.Sprint(s.ID), fmt.Sprint(s.Points)})
	}
	return render.Render(cmd.OutOrStdout(), out, format)
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  noArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(cmd *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		// 0600: the file may hold the API token.
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o600); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	editCmd := exec.CommandContext(cmd.Context(), parts[0], append(parts[1:], path)...)
	editCmd.Stdin = os.Stdin
	editCmd.Stdout = os.Stdout
	editCmd.Stderr = os.Stderr
	if err := editCmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func defaultConfigTemplate() string {
	var segments strings.Builder
	for _, s := range segment.Default() {
		fmt.Fprintf(&segments, "# [[segments]]\n# label = %q\n# title = %q\n# id = %d\n# points = %d\n#\n",
			s.Label, s.Title, s.ID, s.Points)
	}
	return fmt.Sprintf(`# pcrtt configuration
# Uncomment a value to enable it. CLI flags override config values.

[api]
# token = ""              # Strava API token (or set %s)
# base-url = %q
# timeout = %q            # Per-request timeout
# per-page = %d           # Efforts requested per segment (1-%d)

[output]
# format = %q             # csv, text or grid
# sort = "points"         # points, name or fetch

[cache]
# enabled = false         # Keep resolved athletes between runs
# ttl = %q                # Refetch athletes older than this

# Segment table. Replaces the built-in table when present.
%s`,
		tokenEnv,
		strava.DefaultBaseURL,
		strava.DefaultTimeout.String(),
		defaultPerPage,
		strava.MaxPerPage,
		render.FormatCSV,
		defaultCacheTTL.String(),
		segments.String(),
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

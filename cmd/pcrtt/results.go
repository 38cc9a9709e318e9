package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/verte-zerg/pcrtt/internal/config"
	"github.com/verte-zerg/pcrtt/internal/model"
	"github.com/verte-zerg/pcrtt/internal/render"
	"github.com/verte-zerg/pcrtt/internal/segment"
	"github.com/verte-zerg/pcrtt/internal/store"
	"github.com/verte-zerg/pcrtt/internal/strava"
)

const (
	tokenEnv        = "PCRTT_TOKEN"
	defaultPerPage  = strava.MaxPerPage
	defaultCacheTTL = 720 * time.Hour
)

// resultOptions are the flags shared by standings and efforts.
type resultOptions struct {
	startDate string
	endDate   string
	token     string
	format    string
	pretty    bool
	perPage   int
	cache     bool
}

func (o *resultOptions) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&o.startDate, "start-date", "", "first day, YYYY-MM-DD (from 00:00:00)")
	f.StringVar(&o.endDate, "end-date", "", "last day, YYYY-MM-DD (until 23:59:59)")
	f.StringVar(&o.token, "token", "", "Strava API token (or set "+tokenEnv+")")
	f.StringVar(&o.format, "format", render.FormatCSV, "output format: csv, text or grid")
	f.BoolVarP(&o.pretty, "pretty", "p", false, "bordered grid output, same as --format grid")
	f.IntVar(&o.perPage, "per-page", defaultPerPage, fmt.Sprintf("efforts requested per segment (1-%d)", strava.MaxPerPage))
	f.BoolVar(&o.cache, "cache", false, "cache athlete lookups on disk")
}

// loadSettings overlays the config file on unset flags and validates the result.
func loadSettings(cmd *cobra.Command, o *resultOptions) (model.Config, segment.Table, config.FileConfig, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return model.Config{}, nil, config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	table, err := fileCfg.SegmentTable()
	if err != nil {
		return model.Config{}, nil, config.FileConfig{}, err
	}

	applyStringConfig(cmd, "format", &o.format, fileCfg.Output.Format)
	applyIntConfig(cmd, "per-page", &o.perPage, fileCfg.API.PerPage)
	applyBoolConfig(cmd, "cache", &o.cache, fileCfg.Cache.Enabled)

	cfg := model.Config{
		BaseURL:      strava.DefaultBaseURL,
		Timeout:      strava.DefaultTimeout,
		PerPage:      o.perPage,
		CacheEnabled: o.cache,
		CacheTTL:     defaultCacheTTL,
	}
	if fileCfg.API.BaseURL != nil {
		cfg.BaseURL = *fileCfg.API.BaseURL
	}
	if d, ok, err := fileCfg.TimeoutValue(); err != nil {
		return model.Config{}, nil, config.FileConfig{}, err
	} else if ok {
		cfg.Timeout = d
	}
	if d, ok, err := fileCfg.CacheTTLValue(); err != nil {
		return model.Config{}, nil, config.FileConfig{}, err
	} else if ok {
		cfg.CacheTTL = d
	}

	if o.pretty {
		if cmd.Flags().Changed("format") && !strings.EqualFold(o.format, render.FormatGrid) {
			return model.Config{}, nil, config.FileConfig{}, model.Validationf("format", "--pretty conflicts with --format %s", o.format)
		}
		o.format = render.FormatGrid
	}
	if cfg.Format, err = render.ParseFormat(o.format); err != nil {
		return model.Config{}, nil, config.FileConfig{}, err
	}
	if cfg.PerPage < 1 || cfg.PerPage > strava.MaxPerPage {
		return model.Config{}, nil, config.FileConfig{}, model.Validationf("per-page", "%d is outside 1-%d", cfg.PerPage, strava.MaxPerPage)
	}
	return cfg, table, fileCfg, nil
}

// resolveToken picks the API token: flag, environment, config file, then an
// interactive prompt when stdin is a terminal.
func resolveToken(cmd *cobra.Command, flagValue string, fileValue *string) (string, error) {
	if t := strings.TrimSpace(flagValue); t != "" {
		return t, nil
	}
	if t := strings.TrimSpace(os.Getenv(tokenEnv)); t != "" {
		return t, nil
	}
	if fileValue != nil {
		if t := strings.TrimSpace(*fileValue); t != "" {
			return t, nil
		}
	}
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if _, err := fmt.Fprint(cmd.ErrOrStderr(), "Strava API token: "); err != nil {
			return "", fmt.Errorf("failed to write prompt: %w", err)
		}
		raw, err := term.ReadPassword(int(f.Fd()))
		_, _ = fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("failed to read token: %w", err)
		}
		if t := strings.TrimSpace(string(raw)); t != "" {
			return t, nil
		}
	}
	return "", model.Validationf("token", "no API token; pass --token, set %s or add it to %s", tokenEnv, config.DefaultConfigPath())
}

// resolveWindow parses the date flags. Missing bounds fall back to fallback.
func resolveWindow(start, end string, fallback *model.Window) (model.Window, error) {
	if fallback != nil {
		if start == "" {
			start = fallback.Start.Format(model.DateLayout)
		}
		if end == "" {
			end = fallback.End.Format(model.DateLayout)
		}
	}
	if start == "" {
		return model.Window{}, model.Validationf("start date", "--start-date is required")
	}
	if end == "" {
		return model.Window{}, model.Validationf("end date", "--end-date is required")
	}
	return model.ParseWindow(start, end)
}

// session holds the per-run API client, athlete resolver and optional cache.
type session struct {
	fetcher  *strava.Fetcher
	resolver *strava.Resolver
	cache    *store.Store
	log      *zap.Logger
}

func openSession(ctx context.Context, cfg model.Config, log *zap.Logger) (*session, error) {
	client := strava.New(ctx, cfg.Token,
		strava.WithBaseURL(cfg.BaseURL),
		strava.WithTimeout(cfg.Timeout),
		strava.WithLogger(log),
	)
	s := &session{log: log}

	var cache strava.AthleteCache
	if cfg.CacheEnabled {
		path := config.DefaultCachePath()
		st, err := store.Open(path, cfg.CacheTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to open athlete cache: %w", err)
		}
		if removed, err := st.Prune(ctx); err != nil {
			log.Warn("failed to prune athlete cache", zap.Error(err))
		} else if removed > 0 {
			log.Debug("pruned athlete cache", zap.Int64("removed", removed))
		}
		if n, err := st.Count(ctx); err == nil {
			log.Debug("using athlete cache", zap.String("path", path), zap.Int("athletes", n))
		}
		s.cache = st
		cache = st
	}

	s.resolver = strava.NewResolver(client, cache, log)
	s.fetcher = strava.NewFetcher(client, s.resolver)
	return s, nil
}

func (s *session) Close() {
	s.log.Info("athlete lookups", zap.Int("fetched", s.resolver.Fetches()))
	if s.cache == nil {
		return
	}
	if err := s.cache.Close(); err != nil {
		logErrf("failed to close athlete cache: %v\n", err)
	}
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

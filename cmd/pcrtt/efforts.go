package main

import (
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/pcrtt/internal/model"
	"github.com/verte-zerg/pcrtt/internal/render"
	"github.com/verte-zerg/pcrtt/internal/results"
	"github.com/verte-zerg/pcrtt/internal/segment"
)

const (
	sourceEfforts     = "efforts"
	sourceLeaderboard = "leaderboard"
)

type effortsOptions struct {
	resultOptions
	segmentLabel string
	segmentID    int64
	source       string
}

func newEffortsCmd(a *app) *cobra.Command {
	o := &effortsOptions{}
	cmd := &cobra.Command{
		Use:   "efforts",
		Short: "Ranked efforts on one segment",
		Long: "Lists every effort on one segment within the date range, fastest first.\n" +
			"The leaderboard source needs fewer API calls but has no gender, PB or activity link.",
		Args: noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEffortsCmd(cmd, a, o)
		},
	}
	o.register(cmd)
	cmd.Flags().StringVar(&o.segmentLabel, "segment", "", "segment label from the segment table, e.g. TT1")
	cmd.Flags().Int64Var(&o.segmentID, "segment-id", 0, "raw segment id")
	cmd.Flags().StringVar(&o.source, "source", sourceEfforts, "data source: efforts or leaderboard")
	return cmd
}

func runEffortsCmd(cmd *cobra.Command, a *app, o *effortsOptions) error {
	cfg, table, fileCfg, err := loadSettings(cmd, &o.resultOptions)
	if err != nil {
		return err
	}
	seg, err := selectSegment(cmd, table, o)
	if err != nil {
		return err
	}
	source := strings.ToLower(strings.TrimSpace(o.source))
	if source != sourceEfforts && source != sourceLeaderboard {
		return model.Validationf("source", "%q (expected %s or %s)", o.source, sourceEfforts, sourceLeaderboard)
	}
	window, err := resolveWindow(o.startDate, o.endDate, nil)
	if err != nil {
		return err
	}
	if cfg.Token, err = resolveToken(cmd, o.token, fileCfg.API.Token); err != nil {
		return err
	}

	ctx := cmd.Context()
	sess, err := openSession(ctx, cfg, a.log)
	if err != nil {
		return err
	}
	defer sess.Close()

	a.log.Info("listing efforts",
		zap.String("segment", seg.Label),
		zap.Int64("id", seg.ID),
		zap.String("source", source),
	)
	var ranked []model.RankedEffort
	if source == sourceLeaderboard {
		records, err := sess.fetcher.Leaderboard(ctx, seg, window, cfg.PerPage, now())
		if err != nil {
			return err
		}
		ranked = results.Rank(records, &window)
	} else {
		records, err := sess.fetcher.SegmentEfforts(ctx, seg, window, cfg.PerPage)
		if err != nil {
			return err
		}
		ranked = results.Rank(records, nil)
	}

	return render.Render(cmd.OutOrStdout(), results.EffortsTable(ranked), cfg.Format)
}

func selectSegment(cmd *cobra.Command, table segment.Table, o *effortsOptions) (segment.Segment, error) {
	byLabel := cmd.Flags().Changed("segment")
	byID := cmd.Flags().Changed("segment-id")
	switch {
	case byLabel && byID:
		return segment.Segment{}, model.Validationf("segment", "--segment and --segment-id are mutually exclusive")
	case byLabel:
		seg, ok := table.Lookup(o.segmentLabel)
		if !ok {
			return segment.Segment{}, model.Validationf("segment", "unknown label %q (known: %s)",
				o.segmentLabel, strings.Join(table.Labels(), ", "))
		}
		return seg, nil
	case byID:
		if o.segmentID <= 0 {
			return segment.Segment{}, model.Validationf("segment id", "%d must be positive", o.segmentID)
		}
		return segment.Adhoc(o.segmentID), nil
	}
	return segment.Segment{}, model.Validationf("segment", "one of --segment or --segment-id is required")
}

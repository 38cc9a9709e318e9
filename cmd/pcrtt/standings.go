package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/pcrtt/internal/model"
	"github.com/verte-zerg/pcrtt/internal/render"
	"github.com/verte-zerg/pcrtt/internal/results"
)

type standingsOptions struct {
	resultOptions
	sortOrder string
}

func newStandingsCmd(a *app) *cobra.Command {
	o := &standingsOptions{}
	cmd := &cobra.Command{
		Use:   "standings",
		Short: "Points standings across every configured segment",
		Long: "Counts each athlete's attempts on every configured segment within the date range.\n" +
			"Each attempt scores the segment's points and each personal best adds 5.\n" +
			"Dates default to the current month.",
		Args: noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStandingsCmd(cmd, a, o)
		},
	}
	o.register(cmd)
	cmd.Flags().StringVar(&o.sortOrder, "sort", results.SortPoints, "row order: points, name or fetch")
	return cmd
}

func runStandingsCmd(cmd *cobra.Command, a *app, o *standingsOptions) error {
	cfg, table, fileCfg, err := loadSettings(cmd, &o.resultOptions)
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "sort", &o.sortOrder, fileCfg.Output.Sort)
	if cfg.Sort, err = results.ParseSortOrder(o.sortOrder); err != nil {
		return err
	}
	month := model.MonthWindow(now())
	window, err := resolveWindow(o.startDate, o.endDate, &month)
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

	a.log.Info("computing standings",
		zap.String("start", window.StartParam()),
		zap.String("end", window.EndParam()),
		zap.Strings("segments", table.Labels()),
	)
	records, err := sess.fetcher.AllSegments(ctx, table, window, cfg.PerPage)
	if err != nil {
		return err
	}
	standings, err := results.Aggregate(table.ScoringRule(), records)
	if err != nil {
		return err
	}

	out := results.StandingsTable(standings.Sorted(cfg.Sort), table.Labels(), table.Titles())
	return render.Render(cmd.OutOrStdout(), out, cfg.Format)
}

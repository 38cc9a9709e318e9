package strava

import (
	"context"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/verte-zerg/pcrtt/internal/model"
	"github.com/verte-zerg/pcrtt/internal/segment"
)

// Fetcher turns API responses into effort records with resolved athletes.
type Fetcher struct {
	client   *Client
	resolver *Resolver
	log      *zap.Logger
}

// NewFetcher combines a client and an athlete resolver.
func NewFetcher(client *Client, resolver *Resolver) *Fetcher {
	return &Fetcher{client: client, resolver: resolver, log: client.log}
}

// SegmentEfforts fetches every effort on seg within window.
func (f *Fetcher) SegmentEfforts(ctx context.Context, seg segment.Segment, window model.Window, perPage int) ([]model.EffortRecord, error) {
	efforts, err := f.client.SegmentEfforts(ctx, seg.ID, window, perPage)
	if err != nil {
		return nil, err
	}
	f.log.Info("fetched efforts", zap.String("segment", seg.Label), zap.Int("count", len(efforts)))

	ids := lo.Uniq(lo.Map(efforts, func(e SegmentEffort, _ int) int64 { return e.AthleteID }))
	athletes := make(map[int64]model.Athlete, len(ids))
	for _, id := range ids {
		a, err := f.resolver.Resolve(ctx, id)
		if err != nil {
			return nil, err
		}
		athletes[id] = a
	}

	records := make([]model.EffortRecord, 0, len(efforts))
	for _, e := range efforts {
		a := athletes[e.AthleteID]
		records = append(records, model.EffortRecord{
			SegmentLabel:   seg.Label,
			AthleteKey:     a.DisplayName(),
			AthleteID:      e.AthleteID,
			ElapsedSeconds: e.ElapsedSeconds,
			IsPersonalBest: e.IsPersonalBest(),
			OccurredAt:     e.StartDateLocal,
			Gender:         a.Gender,
			ActivityURL:    ActivityURL(e.ActivityID),
		})
	}
	return records, nil
}

// AllSegments fetches efforts for every segment of table, in table order.
func (f *Fetcher) AllSegments(ctx context.Context, table segment.Table, window model.Window, perPage int) ([]model.EffortRecord, error) {
	var records []model.EffortRecord
	for _, seg := range table {
		recs, err := f.SegmentEfforts(ctx, seg, window, perPage)
		if err != nil {
			return nil, err
		}
		records = append(records, recs...)
	}
	return records, nil
}

// Leaderboard fetches leaderboard rows for seg. The leaderboard carries no
// athlete id, gender, PB flag or activity, so those fields stay empty, and it
// only filters by month or year, so callers must post-filter to the window.
func (f *Fetcher) Leaderboard(ctx context.Context, seg segment.Segment, window model.Window, perPage int, now time.Time) ([]model.EffortRecord, error) {
	dateRange := DateRangeFor(window, now)
	entries, err := f.client.SegmentLeaderboard(ctx, seg.ID, dateRange, perPage)
	if err != nil {
		return nil, err
	}
	f.log.Info("fetched leaderboard", zap.String("segment", seg.Label), zap.String("range", dateRange), zap.Int("count", len(entries)))

	return lo.Map(entries, func(e LeaderboardEntry, _ int) model.EffortRecord {
		return model.EffortRecord{
			SegmentLabel:   seg.Label,
			AthleteKey:     e.AthleteName,
			ElapsedSeconds: e.ElapsedSeconds,
			OccurredAt:     e.StartDateLocal,
		}
	}), nil
}

package results

import (
	"sort"

	"github.com/samber/lo"

	"github.com/verte-zerg/pcrtt/internal/model"
)

// Rank orders efforts by elapsed time, fastest first, and numbers them from 1.
// Ties keep fetch order. When window is non-nil, efforts outside it are dropped
// first; sources that filter server-side at coarse granularity rely on this.
func Rank(records []model.EffortRecord, window *model.Window) []model.RankedEffort {
	if window != nil {
		records = lo.Filter(records, func(r model.EffortRecord, _ int) bool {
			return window.Contains(r.OccurredAt)
		})
	}
	sorted := make([]model.EffortRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ElapsedSeconds < sorted[j].ElapsedSeconds
	})
	return lo.Map(sorted, func(r model.EffortRecord, i int) model.RankedEffort {
		return model.RankedEffort{EffortRecord: r, Position: i + 1}
	})
}

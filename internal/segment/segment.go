// Package segment holds the table of tracked time-trial segments.
package segment

import (
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/verte-zerg/pcrtt/internal/model"
)

// PBBonus is the flat number of points awarded for each personal-best effort.
const PBBonus = 5

// Segment is one tracked time trial.
type Segment struct {
	Label  string
	Title  string
	ID     int64
	Points int
}

// Table is the ordered set of tracked segments. Order is column order in output.
type Table []Segment

// Default returns the built-in segment table.
func Default() Table {
	return Table{
		{Label: "TT1", Title: "TT1", ID: 10014031, Points: 1},
		{Label: "TT2", Title: "TT2", ID: 10014001, Points: 2},
		{Label: "TT3", Title: "TT3", ID: 10074233, Points: 3},
		{Label: "Triple", Title: "The Triple", ID: 13052821, Points: 3},
	}
}

// Validate checks labels and ids are present and unique and points are non-negative.
func (t Table) Validate() error {
	if len(t) == 0 {
		return model.Configurationf("segment table is empty")
	}
	labels := make(map[string]struct{}, len(t))
	ids := make(map[int64]string, len(t))
	for i, s := range t {
		label := strings.TrimSpace(s.Label)
		if label == "" {
			return model.Configurationf("segment #%d has no label", i+1)
		}
		key := strings.ToLower(label)
		if _, ok := labels[key]; ok {
			return model.Configurationf("duplicate segment label %q", label)
		}
		labels[key] = struct{}{}
		if s.ID <= 0 {
			return model.Configurationf("segment %q has invalid id %d", label, s.ID)
		}
		if other, ok := ids[s.ID]; ok {
			return model.Configurationf("segments %q and %q share id %d", other, label, s.ID)
		}
		ids[s.ID] = label
		if s.Points < 0 {
			return model.Configurationf("segment %q has negative points %d", label, s.Points)
		}
	}
	return nil
}

// Lookup finds a segment by label, ignoring case.
func (t Table) Lookup(label string) (Segment, bool) {
	return lo.Find(t, func(s Segment) bool {
		return strings.EqualFold(s.Label, strings.TrimSpace(label))
	})
}

// Labels returns segment labels in table order.
func (t Table) Labels() []string {
	return lo.Map(t, func(s Segment, _ int) string { return s.Label })
}

// Titles returns column titles in table order. Title falls back to Label.
func (t Table) Titles() []string {
	return lo.Map(t, func(s Segment, _ int) string {
		if s.Title == "" {
			return s.Label
		}
		return s.Title
	})
}

// ScoringRule derives the scoring rule for this table.
func (t Table) ScoringRule() ScoringRule {
	points := make(map[string]int, len(t))
	for _, s := range t {
		points[s.Label] = s.Points
	}
	return ScoringRule{labels: t.Labels(), points: points, bonus: PBBonus}
}

// Adhoc describes a segment addressed only by its numeric id.
func Adhoc(id int64) Segment {
	label := strconv.FormatInt(id, 10)
	return Segment{Label: label, Title: label, ID: id}
}

// ScoringRule maps segment labels to per-attempt points plus a PB bonus.
type ScoringRule struct {
	labels []string
	points map[string]int
	bonus  int
}

// NewScoringRule builds a rule from labels in column order and their points.
func NewScoringRule(labels []string, points map[string]int, bonus int) ScoringRule {
	cp := make(map[string]int, len(points))
	for k, v := range points {
		cp[k] = v
	}
	return ScoringRule{labels: append([]string(nil), labels...), points: cp, bonus: bonus}
}

// PointsFor returns the points for one attempt on label.
func (r ScoringRule) PointsFor(label string) (int, bool) {
	p, ok := r.points[label]
	return p, ok
}

// Bonus returns the points awarded per personal best.
func (r ScoringRule) Bonus() int { return r.bonus }

// Labels returns the scored labels in column order.
func (r ScoringRule) Labels() []string { return append([]string(nil), r.labels...) }

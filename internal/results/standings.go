// Package results aggregates effort records into standings and ranked listings.
package results

import (
	"fmt"
	"sort"
	"strings"

	"github.com/verte-zerg/pcrtt/internal/model"
	"github.com/verte-zerg/pcrtt/internal/segment"
)

// Sort orders accepted by Standings.Sorted.
const (
	SortPoints = "points"
	SortName   = "name"
	SortFetch  = "fetch"
)

// Standings maps athlete display names to their standing for one run.
type Standings struct {
	labels []string
	order  []string
	byName map[string]*model.AthleteStanding
}

// Aggregate builds standings from records. Records are processed in the given
// order. An unknown segment label is a ConfigurationError and a negative time a
// TransportError; either aborts with no result.
func Aggregate(rule segment.ScoringRule, records []model.EffortRecord) (*Standings, error) {
	st := &Standings{
		labels: rule.Labels(),
		byName: make(map[string]*model.AthleteStanding),
	}
	for _, rec := range records {
		points, ok := rule.PointsFor(rec.SegmentLabel)
		if !ok {
			return nil, model.Configurationf("unknown segment %q for athlete %q", rec.SegmentLabel, rec.AthleteKey)
		}
		if rec.ElapsedSeconds < 0 {
			return nil, &model.TransportError{
				Op:  "aggregate efforts",
				Err: fmt.Errorf("malformed response: negative elapsed time %d for athlete %q on %s", rec.ElapsedSeconds, rec.AthleteKey, rec.SegmentLabel),
			}
		}

		standing := st.getOrInsert(rec.AthleteKey)
		standing.AttemptsBySegment[rec.SegmentLabel]++
		standing.TotalPoints += points
		if rec.IsPersonalBest {
			standing.PersonalBestCount++
			standing.TotalPoints += rule.Bonus()
		}
	}
	return st, nil
}

func (s *Standings) getOrInsert(name string) *model.AthleteStanding {
	if standing, ok := s.byName[name]; ok {
		return standing
	}
	attempts := make(map[string]int, len(s.labels))
	for _, label := range s.labels {
		attempts[label] = 0
	}
	standing := &model.AthleteStanding{DisplayName: name, AttemptsBySegment: attempts}
	s.byName[name] = standing
	s.order = append(s.order, name)
	return standing
}

// Len returns the number of athletes.
func (s *Standings) Len() int { return len(s.byName) }

// Labels returns the scored segment labels in column order.
func (s *Standings) Labels() []string { return append([]string(nil), s.labels...) }

// Get returns a copy of the standing for name.
func (s *Standings) Get(name string) (model.AthleteStanding, bool) {
	standing, ok := s.byName[name]
	if !ok {
		return model.AthleteStanding{}, false
	}
	return copyStanding(standing), true
}

// Map returns a copy of all standings keyed by display name.
func (s *Standings) Map() map[string]model.AthleteStanding {
	out := make(map[string]model.AthleteStanding, len(s.byName))
	for name, standing := range s.byName {
		out[name] = copyStanding(standing)
	}
	return out
}

// Sorted returns standings in the requested order. Unknown orders fall back to fetch order.
func (s *Standings) Sorted(order string) []model.AthleteStanding {
	out := make([]model.AthleteStanding, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, copyStanding(s.byName[name]))
	}
	switch order {
	case SortPoints:
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].TotalPoints == out[j].TotalPoints {
				return out[i].DisplayName < out[j].DisplayName
			}
			return out[i].TotalPoints > out[j].TotalPoints
		})
	case SortName:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].DisplayName < out[j].DisplayName
		})
	}
	return out
}

// ParseSortOrder validates a sort order name.
func ParseSortOrder(order string) (string, error) {
	order = strings.ToLower(strings.TrimSpace(order))
	switch order {
	case SortPoints, SortName, SortFetch:
		return order, nil
	case "":
		return SortPoints, nil
	}
	return "", model.Validationf("sort", "%q (expected %s, %s or %s)", order, SortPoints, SortName, SortFetch)
}

func copyStanding(s *model.AthleteStanding) model.AthleteStanding {
	cp := *s
	cp.AttemptsBySegment = make(map[string]int, len(s.AttemptsBySegment))
	for k, v := range s.AttemptsBySegment {
		cp.AttemptsBySegment[k] = v
	}
	return cp
}

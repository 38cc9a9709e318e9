package strava

import (
	"context"

	"go.uber.org/zap"

	"github.com/verte-zerg/pcrtt/internal/model"
)

// AthleteSource fetches athlete metadata by id.
type AthleteSource interface {
	Athlete(ctx context.Context, athleteID int64) (model.Athlete, error)
}

// AthleteCache persists athletes across runs.
type AthleteCache interface {
	GetAthlete(ctx context.Context, athleteID int64) (model.Athlete, bool, error)
	PutAthlete(ctx context.Context, athlete model.Athlete) error
}

// Resolver resolves athlete ids, fetching each distinct id at most once per run.
type Resolver struct {
	source  AthleteSource
	cache   AthleteCache
	log     *zap.Logger
	known   map[int64]model.Athlete
	fetches int
}

// NewResolver wraps source. cache may be nil.
func NewResolver(source AthleteSource, cache AthleteCache, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{
		source: source,
		cache:  cache,
		log:    log,
		known:  make(map[int64]model.Athlete),
	}
}

// Resolve returns metadata for athleteID. Failed lookups are not remembered.
func (r *Resolver) Resolve(ctx context.Context, athleteID int64) (model.Athlete, error) {
	if a, ok := r.known[athleteID]; ok {
		return a, nil
	}
	if r.cache != nil {
		a, ok, err := r.cache.GetAthlete(ctx, athleteID)
		if err != nil {
			r.log.Warn("athlete cache read failed", zap.Int64("athlete", athleteID), zap.Error(err))
		} else if ok {
			r.known[athleteID] = a
			return a, nil
		}
	}

	a, err := r.source.Athlete(ctx, athleteID)
	if err != nil {
		return model.Athlete{}, err
	}
	r.fetches++
	r.known[athleteID] = a
	if r.cache != nil {
		if err := r.cache.PutAthlete(ctx, a); err != nil {
			r.log.Warn("athlete cache write failed", zap.Int64("athlete", athleteID), zap.Error(err))
		}
	}
	return a, nil
}

// Fetches returns how many remote lookups were made.
func (r *Resolver) Fetches() int { return r.fetches }

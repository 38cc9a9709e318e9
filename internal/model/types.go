// Package model defines shared data structures.
package model

import "time"

// EffortRecord is one attempt on a segment.
type EffortRecord struct {
	SegmentLabel   string
	AthleteKey     string
	AthleteID      int64
	ElapsedSeconds int
	IsPersonalBest bool
	OccurredAt     time.Time

	// Listing-only metadata. Empty when the source does not provide it.
	Gender      string
	ActivityURL string
}

// Athlete is resolved athlete metadata.
type Athlete struct {
	ID        int64
	FirstName string
	LastName  string
	Gender    string
}

// DisplayName joins first and last name the way results are transcribed.
func (a Athlete) DisplayName() string {
	return a.FirstName + " " + a.LastName
}

// AthleteStanding summarizes one athlete across all segments of a run.
type AthleteStanding struct {
	DisplayName       string
	AttemptsBySegment map[string]int
	PersonalBestCount int
	TotalPoints       int
}

// Attempts returns the total number of attempts across segments.
func (s AthleteStanding) Attempts() int {
	total := 0
	for _, n := range s.AttemptsBySegment {
		total += n
	}
	return total
}

// RankedEffort is an effort with its 1-based position in a single-segment listing.
type RankedEffort struct {
	EffortRecord
	Position int
}

// Config defines resolved run settings shared by the result commands.
type Config struct {
	Token        string
	BaseURL      string
	Timeout      time.Duration
	PerPage      int
	Format       string
	Sort         string
	CacheEnabled bool
	CacheTTL     time.Duration
}

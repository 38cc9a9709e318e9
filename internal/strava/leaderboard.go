package strava

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/verte-zerg/pcrtt/internal/model"
)

// Leaderboard date ranges understood by the API. Empty means all time.
const (
	RangeThisMonth = "this_month"
	RangeThisYear  = "this_year"
	RangeAllTime   = ""
)

// LeaderboardEntry is one row of a segment leaderboard.
type LeaderboardEntry struct {
	AthleteName    string
	ElapsedSeconds int
	StartDateLocal time.Time
}

type leaderboardJSON struct {
	Entries []struct {
		AthleteName    string `json:"athlete_name"`
		ElapsedTime    int    `json:"elapsed_time"`
		StartDateLocal string `json:"start_date_local"`
	} `json:"entries"`
}

// SegmentLeaderboard fetches the leaderboard for a segment over dateRange.
func (c *Client) SegmentLeaderboard(ctx context.Context, segmentID int64, dateRange string, perPage int) ([]LeaderboardEntry, error) {
	const op = "get segment leaderboard"
	query := url.Values{}
	if dateRange != RangeAllTime {
		query.Set("date_range", dateRange)
	}
	if perPage > 0 {
		query.Set("per_page", strconv.Itoa(perPage))
	}

	var payload leaderboardJSON
	if err := c.getJSON(ctx, op, fmt.Sprintf("/segments/%d/leaderboard", segmentID), query, &payload); err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(payload.Entries))
	for _, e := range payload.Entries {
		if err := checkElapsed(op, e.ElapsedTime); err != nil {
			return nil, err
		}
		started, err := parseLocalTime(op, e.StartDateLocal)
		if err != nil {
			return nil, err
		}
		entries = append(entries, LeaderboardEntry{
			AthleteName:    e.AthleteName,
			ElapsedSeconds: e.ElapsedTime,
			StartDateLocal: started,
		})
	}
	return entries, nil
}

// DateRangeFor picks the narrowest leaderboard range that still covers the
// window start, as seen from now.
func DateRangeFor(window model.Window, now time.Time) string {
	if window.Start.Year() != now.Year() {
		return RangeAllTime
	}
	if window.Start.Month() == now.Month() {
		return RangeThisMonth
	}
	return RangeThisYear
}

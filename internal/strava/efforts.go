package strava

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/verte-zerg/pcrtt/internal/model"
)

// SegmentEffort is one attempt returned by the all_efforts endpoint.
type SegmentEffort struct {
	ID             int64
	AthleteID      int64
	ActivityID     int64
	ElapsedSeconds int
	StartDateLocal time.Time
	PRRank         *int
}

// IsPersonalBest reports whether this was the athlete's fastest time on the segment.
func (e SegmentEffort) IsPersonalBest() bool {
	return e.PRRank != nil && *e.PRRank == 1
}

type effortJSON struct {
	ID             int64  `json:"id"`
	ElapsedTime    int    `json:"elapsed_time"`
	StartDateLocal string `json:"start_date_local"`
	PRRank         *int   `json:"pr_rank"`
	Athlete        struct {
		ID int64 `json:"id"`
	} `json:"athlete"`
	Activity struct {
		ID int64 `json:"id"`
	} `json:"activity"`
}

// SegmentEfforts lists efforts on a segment within the window.
func (c *Client) SegmentEfforts(ctx context.Context, segmentID int64, window model.Window, perPage int) ([]SegmentEffort, error) {
	const op = "list segment efforts"
	query := url.Values{}
	query.Set("start_date_local", window.StartParam())
	query.Set("end_date_local", window.EndParam())
	if perPage > 0 {
		query.Set("per_page", strconv.Itoa(perPage))
	}

	var payload []effortJSON
	if err := c.getJSON(ctx, op, fmt.Sprintf("/segments/%d/all_efforts", segmentID), query, &payload); err != nil {
		return nil, err
	}

	efforts := make([]SegmentEffort, 0, len(payload))
	for _, p := range payload {
		if err := checkElapsed(op, p.ElapsedTime); err != nil {
			return nil, err
		}
		started, err := parseLocalTime(op, p.StartDateLocal)
		if err != nil {
			return nil, err
		}
		efforts = append(efforts, SegmentEffort{
			ID:             p.ID,
			AthleteID:      p.Athlete.ID,
			ActivityID:     p.Activity.ID,
			ElapsedSeconds: p.ElapsedTime,
			StartDateLocal: started,
			PRRank:         p.PRRank,
		})
	}
	return efforts, nil
}

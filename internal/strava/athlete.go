package strava

import (
	"context"
	"fmt"

	"github.com/verte-zerg/pcrtt/internal/model"
)

type athleteJSON struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Sex       string `json:"sex"`
}

// Athlete fetches an athlete's name and gender.
func (c *Client) Athlete(ctx context.Context, athleteID int64) (model.Athlete, error) {
	var payload athleteJSON
	if err := c.getJSON(ctx, "get athlete", fmt.Sprintf("/athletes/%d", athleteID), nil, &payload); err != nil {
		return model.Athlete{}, err
	}
	return model.Athlete{
		ID:        athleteID,
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Gender:    payload.Sex,
	}, nil
}

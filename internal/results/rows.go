package results

import (
	"fmt"
	"strconv"

	"github.com/verte-zerg/pcrtt/internal/model"
	"github.com/verte-zerg/pcrtt/internal/render"
)

const occurredLayout = "2006-01-02T15:04:05Z"

// StandingsTable lays out standings as Name, one column per segment, PBs, Points.
func StandingsTable(rows []model.AthleteStanding, labels, titles []string) render.Table {
	headers := make([]string, 0, len(titles)+3)
	headers = append(headers, "Name")
	headers = append(headers, titles...)
	headers = append(headers, "PBs", "Points")

	t := render.Table{Headers: headers, RightAlign: map[int]bool{}}
	for i := 1; i < len(headers); i++ {
		t.RightAlign[i] = true
	}
	for _, s := range rows {
		line := make([]string, 0, len(headers))
		line = append(line, s.DisplayName)
		for _, label := range labels {
			line = append(line, strconv.Itoa(s.AttemptsBySegment[label]))
		}
		line = append(line, strconv.Itoa(s.PersonalBestCount), strconv.Itoa(s.TotalPoints))
		t.Rows = append(t.Rows, line)
	}
	return t
}

// EffortsTable lays out a ranked single-segment listing.
func EffortsTable(ranked []model.RankedEffort) render.Table {
	t := render.Table{
		Headers:    []string{"Name", "Time", "Position", "Gender", "Date", "URL"},
		RightAlign: map[int]bool{1: true, 2: true},
	}
	for _, r := range ranked {
		date := ""
		if !r.OccurredAt.IsZero() {
			date = r.OccurredAt.Format(occurredLayout)
		}
		t.Rows = append(t.Rows, []string{
			r.AthleteKey,
			FormatElapsed(r.ElapsedSeconds),
			strconv.Itoa(r.Position),
			r.Gender,
			date,
			r.ActivityURL,
		})
	}
	return t
}

// FormatElapsed renders seconds as H:MM:SS with unpadded hours.
func FormatElapsed(seconds int) string {
	sign := ""
	if seconds < 0 {
		sign = "-"
		seconds = -seconds
	}
	return fmt.Sprintf("%s%d:%02d:%02d", sign, seconds/3600, seconds/60%60, seconds%60)
}

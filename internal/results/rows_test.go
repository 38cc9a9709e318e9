package results

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/pcrtt/internal/model"
	"github.com/verte-zerg/pcrtt/internal/segment"
)

func TestStandingsTableLayout(t *testing.T) {
	table := segment.Default()
	st, err := Aggregate(table.ScoringRule(), []model.EffortRecord{
		{SegmentLabel: "Triple", AthleteKey: "Alice Smith", ElapsedSeconds: 1500, IsPersonalBest: true},
		{SegmentLabel: "TT1", AthleteKey: "Alice Smith", ElapsedSeconds: 300},
	})
	require.NoError(t, err)

	out := StandingsTable(st.Sorted(SortPoints), table.Labels(), table.Titles())
	wantHeaders := []string{"Name", "TT1", "TT2", "TT3", "The Triple", "PBs", "Points"}
	wantRows := [][]string{{"Alice Smith", "1", "0", "0", "1", "1", "9"}}
	if diff := cmp.Diff(wantHeaders, out.Headers); diff != "" {
		t.Fatalf("headers mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantRows, out.Rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, out.RightAlign[0])
	assert.True(t, out.RightAlign[6])
}

func TestEffortsTableLayout(t *testing.T) {
	ranked := Rank([]model.EffortRecord{
		{
			AthleteKey:     "Bob Jones",
			ElapsedSeconds: 3725,
			OccurredAt:     time.Date(2017, 5, 27, 9, 5, 0, 0, time.UTC),
			Gender:         "M",
			ActivityURL:    "https://www.strava.com/activities/1",
		},
		{AthleteKey: "Leaderboard Only", ElapsedSeconds: 290},
	}, nil)

	out := EffortsTable(ranked)
	require.Len(t, out.Rows, 2)
	assert.Equal(t, []string{"Leaderboard Only", "0:04:50", "1", "", "", ""}, out.Rows[0])
	assert.Equal(t, []string{"Bob Jones", "1:02:05", "2", "M", "2017-05-27T09:05:00Z", "https://www.strava.com/activities/1"}, out.Rows[1])
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "0:00:00", FormatElapsed(0))
	assert.Equal(t, "0:05:00", FormatElapsed(300))
	assert.Equal(t, "26:00:01", FormatElapsed(93601))
}

package features

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/models"
)

func ptr(v float64) *float64 { return &v }

func testRacer(lane int) *models.Racer {
	return &models.Racer{
		ID:                 uuid.New(),
		Lane:               lane,
		RegistrationNumber: 4000 + lane,
		Name:               "racer",
		NationalWinRate:    ptr(6.5 - float64(lane)*0.5),
		MotorSecondRate:    ptr(0.35),
		ExhibitionTime:     ptr(6.8),
	}
}

func TestBuildRow(t *testing.T) {
	row, err := BuildRow(testRacer(3))
	require.NoError(t, err)

	assert.Equal(t, "3", row.EntrantID())
	assert.Equal(t, Names(), row.Names())

	v, ok := row.Value("lane")
	require.True(t, ok)
	assert.Equal(t, 3.0, v)

	v, ok = row.Value("national_win_rate")
	require.True(t, ok)
	assert.InDelta(t, 5.0, v, 1e-12)

	// Nil attributes map to the neutral default
	v, ok = row.Value("local_win_rate")
	require.True(t, ok)
	assert.Equal(t, 0.0, v)
}

func TestBuildEventRowsOrdersByLane(t *testing.T) {
	racers := []*models.Racer{testRacer(4), testRacer(1), testRacer(6), testRacer(2), testRacer(5), testRacer(3)}
	rows, err := BuildEventRows(racers)
	require.NoError(t, err)
	require.Len(t, rows, 6)

	for i, row := range rows {
		assert.Equal(t, string(rune('1'+i)), row.EntrantID())
	}
}

func TestBuildTrainingEvent(t *testing.T) {
	race := &models.Race{
		ID:     uuid.New(),
		Racers: []*models.Racer{testRacer(1), testRacer(2), testRacer(3), testRacer(4), testRacer(5), testRacer(6)},
	}

	positions := models.PositionsData{
		Lanes: []models.LanePosition{
			{Lane: 1, Position: 2},
			{Lane: 2, Position: 1},
			{Lane: 3, Position: 4},
			{Lane: 4, Position: 3},
			{Lane: 5, Position: 6},
			{Lane: 6, Position: 5},
		},
	}
	raw, err := json.Marshal(positions)
	require.NoError(t, err)
	result := &models.RaceResult{
		Time:      time.Now(),
		RaceID:    race.ID,
		Positions: raw,
		Status:    "completed",
	}

	event, err := BuildTrainingEvent(race, result)
	require.NoError(t, err)
	assert.Equal(t, race.ID.String(), event.EventKey)
	require.Len(t, event.Rows, 6)

	assert.Equal(t, 2, event.Rows[0].Rank)
	assert.Equal(t, 1, event.Rows[1].Rank)
	assert.Equal(t, 5, event.Rows[5].Rank)
}

func TestBuildTrainingEventRejectsBadPositions(t *testing.T) {
	race := &models.Race{
		ID:     uuid.New(),
		Racers: []*models.Racer{testRacer(1), testRacer(2), testRacer(3), testRacer(4), testRacer(5), testRacer(6)},
	}

	result := &models.RaceResult{RaceID: race.ID, Status: "completed"}
	_, err := BuildTrainingEvent(race, result)
	require.Error(t, err)
}

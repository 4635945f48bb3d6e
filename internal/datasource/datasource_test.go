package datasource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/config"
	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/models"
)

const raceCardPayload = `{
	"stadium": "Edogawa",
	"race_number": 5,
	"scheduled_start": "2026-03-14T06:30:00Z",
	"grade": "G1",
	"entries": [
		{"lane": 1, "registration_number": 4001, "name": "Tanaka", "class": "A1", "national_win_rate": 6.5},
		{"lane": 2, "registration_number": 4002, "name": "Suzuki", "class": "A2", "national_win_rate": 5.8},
		{"lane": 3, "registration_number": 4003, "name": "Sato", "class": "B1", "national_win_rate": 5.1},
		{"lane": 4, "registration_number": 4004, "name": "Ito", "class": "B1", "national_win_rate": 4.9},
		{"lane": 5, "registration_number": 4005, "name": "Watanabe", "class": "B1"},
		{"lane": 6, "registration_number": 4006, "name": "Yamamoto", "class": "B2", "national_win_rate": 3.2}
	]
}`

func testClient(t *testing.T, serverURL string) *ProgramsClient {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	cfg := &config.DataSourceConfig{
		BaseURL:           serverURL,
		APIKey:            "test-key",
		TimeoutSeconds:    5,
		MaxRetries:        1,
		RateLimit:         100,
		CircuitBreakerMax: 3,
	}
	return NewProgramsClient(cfg, logger)
}

func TestFetchRaceCard(t *testing.T) {
	var gotPath, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(raceCardPayload))
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	defer client.Close()

	date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	race, err := client.FetchRaceCard(context.Background(), date, "edogawa", 5)
	require.NoError(t, err)

	assert.Equal(t, "/programs/20260314/edogawa/5", gotPath)
	assert.Equal(t, "Bearer test-key", gotAuth)

	assert.Equal(t, "Edogawa", race.Stadium)
	assert.Equal(t, 5, race.RaceNumber)
	assert.Equal(t, "G1", race.Grade)
	assert.Equal(t, "scheduled", race.Status)
	require.True(t, race.HasFullField())

	first := race.Racers[0]
	assert.Equal(t, 1, first.Lane)
	assert.Equal(t, 4001, first.RegistrationNumber)
	assert.Equal(t, "Tanaka", first.Name)
	require.NotNil(t, first.NationalWinRate)
	assert.InDelta(t, 6.5, *first.NationalWinRate, 1e-9)

	// Optional fields absent from the payload stay nil
	assert.Nil(t, race.Racers[4].NationalWinRate)

	// Every entry belongs to the generated race ID
	for _, racer := range race.Racers {
		assert.Equal(t, race.ID, racer.RaceID)
	}
}

func TestFetchRaceCardNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	defer client.Close()

	_, err := client.FetchRaceCard(context.Background(), time.Now(), "edogawa", 1)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestFetchRaceCardRetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(raceCardPayload))
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	defer client.Close()

	race, err := client.FetchRaceCard(context.Background(), time.Now(), "edogawa", 5)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Len(t, race.Racers, 6)
}

func TestCircuitBreakerOpens(t *testing.T) {
	cfg := DefaultHTTPClientConfig()
	cfg.MaxRetries = 0
	cfg.RateLimit = 1000
	cfg.CircuitBreakerMax = 2
	cfg.Timeout = time.Second
	client := NewRateLimitedHTTPClient(cfg, nil)
	defer client.Close()

	// Unroutable target produces consecutive network errors
	for i := 0; i < 2; i++ {
		_, err := client.Get(context.Background(), "http://127.0.0.1:1")
		require.Error(t, err)
	}

	_, err := client.Get(context.Background(), "http://127.0.0.1:1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker open")
}

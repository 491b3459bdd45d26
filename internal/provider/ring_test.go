package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yourname/ringchallenge/internal"
)

func TestFetchSessions(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/usercollection/sleep", r.URL.Path)
		assert.Equal(t, "2026-04-01", r.URL.Query().Get("start_date"))
		assert.Equal(t, "2026-04-03", r.URL.Query().Get("end_date"))
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[
			{"day":"2026-04-02","type":"long_sleep","total_sleep_duration":25200,"deep_sleep_duration":5400,"average_heart_rate":57.5,"lowest_heart_rate":51},
			{"day":"2026-04-02","type":"nap","total_sleep_duration":1800}
		]}`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL, "test-token", internal.NopLogger{})
	sessions, err := client.FetchSessions(context.Background(), "2026-04-01", "2026-04-03")
	assert.NoError(t, err)
	assert.Len(t, sessions, 2)
	assert.Equal(t, internal.SessionLongSleep, sessions[0].Type)
	assert.Equal(t, 25200, sessions[0].TotalSleepSeconds)
	assert.Equal(t, 57.5, *sessions[0].AvgHeartRate)
	assert.Nil(t, sessions[1].AvgHeartRate)
}

func TestFetchDailyScoresSkipsScorelessDays(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/usercollection/daily_sleep", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[
			{"day":"2026-04-01","score":78},
			{"day":"2026-04-02","score":null},
			{"day":"2026-04-03","score":84}
		]}`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL, "test-token", internal.NopLogger{})
	scores, err := client.FetchDailyScores(context.Background(), "2026-04-01", "2026-04-03")
	assert.NoError(t, err)
	assert.Equal(t, map[string]int{"2026-04-01": 78, "2026-04-03": 84}, scores)
}

func TestFetchSessionsNon200(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	client := NewClient(ts.URL, "test-token", internal.NopLogger{})
	_, err := client.FetchSessions(context.Background(), "2026-04-01", "2026-04-03")
	assert.Error(t, err)
}

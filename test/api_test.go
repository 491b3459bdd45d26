package test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/yourname/ringchallenge/internal"
	"github.com/yourname/ringchallenge/internal/api"
	"github.com/yourname/ringchallenge/internal/auth"
	"github.com/yourname/ringchallenge/internal/calendar"
	"github.com/yourname/ringchallenge/internal/config"
	"github.com/yourname/ringchallenge/internal/response"
	"github.com/yourname/ringchallenge/internal/service"
	"github.com/yourname/ringchallenge/internal/storage"
)

type testApp struct {
	logger internal.Logger
	repos  *storage.Repositories
	ring   service.SessionProvider
	guard  *service.ToggleGuard
}

func (a *testApp) Logger() internal.Logger                           { return a.logger }
func (a *testApp) SleepRepo() storage.DailySleepRepository           { return a.repos.Sleep }
func (a *testApp) ChallengeRepo() storage.ChallengeRepository        { return a.repos.Challenges }
func (a *testApp) ParticipantRepo() storage.ParticipantRepository    { return a.repos.Participants }
func (a *testApp) CompletionRepo() storage.HabitCompletionRepository { return a.repos.Completions }
func (a *testApp) UserRepo() storage.UserRepository                  { return a.repos.Users }
func (a *testApp) Provider() service.SessionProvider                 { return a.ring }
func (a *testApp) ToggleGuard() *service.ToggleGuard                 { return a.guard }

type stubProvider struct {
	sessions []internal.RawSleepSession
	scores   map[string]int
}

func (s *stubProvider) FetchSessions(ctx context.Context, from, to string) ([]internal.RawSleepSession, error) {
	return s.sessions, nil
}

func (s *stubProvider) FetchDailyScores(ctx context.Context, from, to string) (map[string]int, error) {
	return s.scores, nil
}

func setupRouter(t *testing.T) (*gin.Engine, *testApp) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	logger := internal.NopLogger{}
	repos, err := storage.NewFileRepositories(
		filepath.Join(dir, "daily_sleep.json"),
		filepath.Join(dir, "challenges.json"),
		filepath.Join(dir, "completions.json"),
		logger,
	)
	assert.NoError(t, err)

	app := &testApp{
		logger: logger,
		repos:  repos,
		ring:   &stubProvider{},
		guard:  service.NewToggleGuard(),
	}

	cfg := &config.Config{Env: "development"}
	provider := auth.NewLocalAuthProvider("MOCK-TOKEN", logger)

	r := gin.New()
	r.Use(api.RequestIDMiddleware())
	r.Use(auth.AuthMiddleware(provider, cfg))
	r.GET("/sleep/daily", api.GetDailySleep(app))
	r.POST("/sleep/sync", api.PostSleepSync(app))
	r.POST("/sleep/sessions", api.PostSleepSessions(app))
	r.POST("/challenges", api.PostChallenge(app))
	r.GET("/challenges", api.GetChallenges(app))
	r.GET("/challenges/:id", api.GetChallenge(app))
	r.DELETE("/challenges/:id", api.DeleteChallenge(app))
	r.POST("/challenges/:id/participants", api.PostParticipant(app))
	r.GET("/challenges/:id/comparison", api.GetComparison(app))
	r.GET("/challenges/:id/leaderboard", api.GetLeaderboard(app))
	r.POST("/challenges/:id/habits/:habitId/toggle", api.PostHabitToggle(app))
	r.GET("/challenges/:id/completions", api.GetHabitCompletions(app))
	return r, app
}

func doJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer MOCK-TOKEN")
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) response.APIResponse {
	t.Helper()
	var resp response.APIResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestAuthRequired(t *testing.T) {
	r, _ := setupRouter(t)
	rec := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/sleep/daily", nil)
	r.ServeHTTP(rec, req)
	assert.Equal(t, 401, rec.Code)
}

func TestPostChallenge_ValidAndInvalid(t *testing.T) {
	r, _ := setupRouter(t)

	start := calendar.FormatLocalDate(time.Now())
	rec := doJSON(r, "POST", "/challenges", `{"protocol_id":"p1","start_date":"`+start+`","mode":"full"}`)
	assert.Equal(t, 200, rec.Code)

	var created struct {
		Data internal.Challenge `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.Data.ID)
	assert.Equal(t, "u1", created.Data.CreatorID)
	// fixed 30-day period: end date is start + 29
	startDay, _ := calendar.ParseLocalDate(created.Data.StartDate)
	assert.Equal(t, calendar.FormatLocalDate(startDay.AddDate(0, 0, 29)), created.Data.EndDate)

	// invalid mode
	rec = doJSON(r, "POST", "/challenges", `{"protocol_id":"p1","start_date":"`+start+`","mode":"banana"}`)
	assert.Equal(t, 400, rec.Code)

	// malformed date
	rec = doJSON(r, "POST", "/challenges", `{"protocol_id":"p1","start_date":"04/01/2026","mode":"full"}`)
	assert.Equal(t, 400, rec.Code)

	// the creator is on the roster as accepted
	rec = doJSON(r, "GET", "/challenges", "")
	assert.Equal(t, 200, rec.Code)
	var listed struct {
		Data []internal.Challenge `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Len(t, listed.Data, 1)
}

func createChallenge(t *testing.T, r *gin.Engine, start string) internal.Challenge {
	t.Helper()
	rec := doJSON(r, "POST", "/challenges", `{"protocol_id":"p1","start_date":"`+start+`","mode":"full"}`)
	assert.Equal(t, 200, rec.Code)
	var created struct {
		Data internal.Challenge `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	return created.Data
}

func TestGetChallengeMeta(t *testing.T) {
	r, _ := setupRouter(t)
	start := calendar.FormatLocalDate(time.Now().AddDate(0, 0, -5))
	challenge := createChallenge(t, r, start)

	rec := doJSON(r, "GET", "/challenges/"+challenge.ID, "")
	assert.Equal(t, 200, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, float64(6), resp.Meta["day_number"])
	assert.Equal(t, float64(24), resp.Meta["days_remaining"])
	assert.Equal(t, true, resp.Meta["active"])

	rec = doJSON(r, "GET", "/challenges/nope", "")
	assert.Equal(t, 404, rec.Code)
}

func TestSleepSessionsIngestAndFetch(t *testing.T) {
	r, _ := setupRouter(t)
	day := calendar.FormatLocalDate(time.Now())

	body := `{"sessions":[
		{"day":"` + day + `","type":"long_sleep","total_sleep_duration":25200,"deep_sleep_duration":5400,"average_heart_rate":58},
		{"day":"` + day + `","type":"nap","total_sleep_duration":1800,"average_heart_rate":66}
	],"scores":{"` + day + `":80}}`
	rec := doJSON(r, "POST", "/sleep/sessions", body)
	assert.Equal(t, 200, rec.Code)

	rec = doJSON(r, "GET", "/sleep/daily", "")
	assert.Equal(t, 200, rec.Code)
	var fetched struct {
		Data []internal.DailySleep `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	assert.Len(t, fetched.Data, 1)
	assert.Equal(t, 450, fetched.Data[0].TotalSleepMinutes)
	assert.Equal(t, 58.0, *fetched.Data[0].AvgHeartRate)
	assert.Equal(t, 80, *fetched.Data[0].SleepScore)
}

func TestSleepSyncPullsFromProvider(t *testing.T) {
	r, app := setupRouter(t)
	day := calendar.FormatLocalDate(time.Now())
	app.ring = &stubProvider{
		sessions: []internal.RawSleepSession{
			{Day: day, Type: internal.SessionLongSleep, TotalSleepSeconds: 27000},
		},
		scores: map[string]int{day: 74},
	}

	rec := doJSON(r, "POST", "/sleep/sync", `{"from":"`+day+`","to":"`+day+`"}`)
	assert.Equal(t, 200, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, float64(1), resp.Meta["days_synced"])

	// bad range
	rec = doJSON(r, "POST", "/sleep/sync", `{"from":"yesterday","to":"`+day+`"}`)
	assert.Equal(t, 400, rec.Code)
}

func TestHabitToggleEndpoint(t *testing.T) {
	r, _ := setupRouter(t)
	start := calendar.FormatLocalDate(time.Now().AddDate(0, 0, -2))
	challenge := createChallenge(t, r, start)
	day := calendar.FormatLocalDate(time.Now())

	rec := doJSON(r, "POST", "/challenges/"+challenge.ID+"/habits/h1/toggle", `{"date":"`+day+`"}`)
	assert.Equal(t, 200, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, true, resp.Meta["completed"])
	assert.Equal(t, true, resp.Meta["executed"])

	rec = doJSON(r, "GET", "/challenges/"+challenge.ID+"/completions", "")
	assert.Equal(t, 200, rec.Code)
	var completions struct {
		Data []internal.HabitCompletion `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &completions))
	assert.Len(t, completions.Data, 1)

	// toggling again flips back to incomplete
	rec = doJSON(r, "POST", "/challenges/"+challenge.ID+"/habits/h1/toggle", `{"date":"`+day+`"}`)
	assert.Equal(t, 200, rec.Code)
	resp = decodeResponse(t, rec)
	assert.Equal(t, false, resp.Meta["completed"])

	// malformed date
	rec = doJSON(r, "POST", "/challenges/"+challenge.ID+"/habits/h1/toggle", `{"date":"today"}`)
	assert.Equal(t, 400, rec.Code)
}

func TestComparisonAndLeaderboardEndpoints(t *testing.T) {
	r, app := setupRouter(t)
	start := time.Now().AddDate(0, 0, -9)
	challenge := createChallenge(t, r, calendar.FormatLocalDate(start))

	ctx := context.Background()
	seed := func(userID string, day time.Time, score int) {
		s := score
		assert.NoError(t, app.repos.Sleep.UpsertDailySleep(ctx, &internal.DailySleep{
			UserID: userID, Day: calendar.FormatLocalDate(day), SleepScore: &s, UpdatedAt: time.Now(),
		}))
	}
	for i := 1; i <= 30; i++ {
		seed("u1", start.AddDate(0, 0, -i), 70)
	}
	for i := 0; i < 10; i++ {
		seed("u1", start.AddDate(0, 0, i), 77)
	}

	rec := doJSON(r, "GET", "/challenges/"+challenge.ID+"/comparison?metric=sleep_score", "")
	assert.Equal(t, 200, rec.Code)
	var cmp struct {
		Data service.ParticipantComparison `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cmp))
	assert.Equal(t, 70.0, *cmp.Data.Result.BaselineAverage)
	assert.Equal(t, 77.0, *cmp.Data.Result.CurrentAverage)
	assert.Equal(t, 10, *cmp.Data.Result.ImprovementPercent)
	assert.Equal(t, service.DirectionUp, cmp.Data.Result.Direction)

	rec = doJSON(r, "GET", "/challenges/"+challenge.ID+"/leaderboard?metric=sleep_score", "")
	assert.Equal(t, 200, rec.Code)
	lbResp := decodeResponse(t, rec)
	assert.Equal(t, float64(1), lbResp.Meta["my_rank"])

	// unknown metric
	rec = doJSON(r, "GET", "/challenges/"+challenge.ID+"/leaderboard?metric=step_count", "")
	assert.Equal(t, 400, rec.Code)
}

func TestDeleteChallengeOnlyByCreator(t *testing.T) {
	r, app := setupRouter(t)
	challenge := createChallenge(t, r, calendar.FormatLocalDate(time.Now()))

	// hand the challenge to someone else
	ctx := context.Background()
	stored, err := app.repos.Challenges.GetChallenge(ctx, challenge.ID)
	assert.NoError(t, err)
	stored.CreatorID = "someone-else"
	assert.NoError(t, app.repos.Challenges.CreateChallenge(ctx, stored))

	rec := doJSON(r, "DELETE", "/challenges/"+challenge.ID, "")
	assert.Equal(t, 403, rec.Code)

	stored.CreatorID = "u1"
	assert.NoError(t, app.repos.Challenges.CreateChallenge(ctx, stored))
	rec = doJSON(r, "DELETE", "/challenges/"+challenge.ID, "")
	assert.Equal(t, 200, rec.Code)

	rec = doJSON(r, "GET", "/challenges/"+challenge.ID, "")
	assert.Equal(t, 404, rec.Code)
}

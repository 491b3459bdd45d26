package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/yourname/ringchallenge/internal"
	"github.com/yourname/ringchallenge/internal/api"
	"github.com/yourname/ringchallenge/internal/auth"
	"github.com/yourname/ringchallenge/internal/calendar"
	"github.com/yourname/ringchallenge/internal/config"
	"github.com/yourname/ringchallenge/internal/provider"
	"github.com/yourname/ringchallenge/internal/service"
	"github.com/yourname/ringchallenge/internal/storage"
	"go.uber.org/zap"
)

type application struct {
	logger internal.Logger
	repos  *storage.Repositories
	ring   service.SessionProvider
	guard  *service.ToggleGuard
}

func (a *application) Logger() internal.Logger                         { return a.logger }
func (a *application) SleepRepo() storage.DailySleepRepository         { return a.repos.Sleep }
func (a *application) ChallengeRepo() storage.ChallengeRepository      { return a.repos.Challenges }
func (a *application) ParticipantRepo() storage.ParticipantRepository  { return a.repos.Participants }
func (a *application) CompletionRepo() storage.HabitCompletionRepository {
	return a.repos.Completions
}
func (a *application) UserRepo() storage.UserRepository  { return a.repos.Users }
func (a *application) Provider() service.SessionProvider { return a.ring }
func (a *application) ToggleGuard() *service.ToggleGuard { return a.guard }

var _ api.App = (*application)(nil)

func main() {
	cfg := config.Load()

	zl, err := zap.NewProduction()
	if cfg.Env == "development" {
		zl, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer zl.Sync()
	logger := internal.NewZapLogger(zl.Sugar())

	var repos *storage.Repositories
	switch cfg.DBType {
	case "postgres":
		repos, err = storage.NewPostgresRepositories(cfg.DBDSN, logger)
	default:
		repos, err = storage.NewFileRepositories(cfg.FileSleep, cfg.FileChallenges, cfg.FileCompletions, logger)
	}
	if err != nil {
		logger.Fatalf("failed to init storage: %v", err)
	}

	app := &application{
		logger: logger,
		repos:  repos,
		ring:   provider.NewClient(cfg.ProviderBaseURL, cfg.ProviderToken, logger),
		guard:  service.NewToggleGuard(),
	}

	var authProvider auth.Provider
	if cfg.Env == "development" {
		authProvider = auth.NewLocalAuthProvider(cfg.LocalToken, logger)
	} else {
		authProvider = auth.NewRemoteAuthProvider(cfg.AuthServiceURL, logger)
	}

	scheduleNightlySync(app, cfg, logger)

	r := gin.Default()
	r.Use(api.RequestIDMiddleware())
	r.Use(auth.AuthMiddleware(authProvider, cfg))

	r.GET("/sleep/daily", api.GetDailySleep(app))
	r.POST("/sleep/sync", api.PostSleepSync(app))
	r.POST("/sleep/sessions", api.PostSleepSessions(app))

	r.POST("/challenges", api.PostChallenge(app))
	r.GET("/challenges", api.GetChallenges(app))
	r.GET("/challenges/:id", api.GetChallenge(app))
	r.DELETE("/challenges/:id", api.DeleteChallenge(app))
	r.POST("/challenges/:id/participants", api.PostParticipant(app))
	r.PATCH("/challenges/:id/participants/me", api.PatchParticipantStatus(app))
	r.GET("/challenges/:id/comparison", api.GetComparison(app))
	r.GET("/challenges/:id/leaderboard", api.GetLeaderboard(app))
	r.POST("/challenges/:id/habits/:habitId/toggle", api.PostHabitToggle(app))
	r.GET("/challenges/:id/completions", api.GetHabitCompletions(app))

	logger.Infof("Server running on :8088")
	if err := r.Run(":8088"); err != nil {
		logger.Fatalf("failed to start server: %v", err)
	}
}

// scheduleNightlySync refreshes yesterday's and today's sleep data for every
// accepted participant of the caller's challenges. The ring usually uploads
// overnight data in the morning, so one pull after breakfast covers it;
// manual POST /sleep/sync remains for catch-up.
func scheduleNightlySync(app *application, cfg *config.Config, logger internal.Logger) {
	c := cron.New()
	_, err := c.AddFunc(cfg.SyncSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		now := time.Now()
		from := calendar.FormatLocalDate(now.AddDate(0, 0, -1))
		to := calendar.FormatLocalDate(now)

		for _, userID := range syncUserIDs(ctx, app) {
			if _, err := service.RefreshSleepData(ctx, app.ring, app.repos.Sleep, userID, from, to); err != nil {
				logger.Errorf("sync: refresh failed for user %s: %v", userID, err)
			}
		}
	})
	if err != nil {
		logger.Fatalf("could not schedule sync job: %v", err)
	}
	c.Start()
	logger.Infof("Scheduled sleep sync on %q", cfg.SyncSchedule)
}

// syncUserIDs collects the distinct accepted participants across the
// currently active challenges; only they need fresh data.
func syncUserIDs(ctx context.Context, app *application) []string {
	seen := make(map[string]struct{})
	var ids []string

	challenges, err := app.repos.Challenges.ListActiveChallenges(ctx, calendar.FormatLocalDate(time.Now()))
	if err != nil {
		app.logger.Errorf("sync: listing challenges failed: %v", err)
		return nil
	}
	for _, ch := range challenges {
		participants, err := app.repos.Participants.ListParticipants(ctx, ch.ID)
		if err != nil {
			app.logger.Errorf("sync: listing participants failed: %v", err)
			continue
		}
		for _, p := range participants {
			if p.Status != internal.StatusAccepted {
				continue
			}
			if _, ok := seen[p.UserID]; ok {
				continue
			}
			seen[p.UserID] = struct{}{}
			ids = append(ids, p.UserID)
		}
	}
	return ids
}

package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yourname/ringchallenge/internal"
	"github.com/yourname/ringchallenge/internal/calendar"
	"github.com/yourname/ringchallenge/internal/service"
)

// GetDailySleep returns the user's canonical per-day records for an
// inclusive ?from=&to= date range, defaulting to the last 30 days.
func GetDailySleep(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)

		now := time.Now()
		to := c.DefaultQuery("to", calendar.FormatLocalDate(now))
		from := c.DefaultQuery("from", calendar.FormatLocalDate(now.AddDate(0, 0, -(calendar.DefaultPeriodDays-1))))

		records, err := app.SleepRepo().ListDailySleep(c.Request.Context(), user.ID, from, to)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch daily sleep")
			return
		}
		HandleSuccess(c, app.Logger(), records, map[string]any{"from": from, "to": to})
	}
}

type syncRequest struct {
	From string `json:"from" binding:"required"`
	To   string `json:"to" binding:"required"`
}

// PostSleepSync pulls the range from the wearable provider, aggregates each
// day's sessions into one canonical record and upserts them. Re-syncing an
// already stored day replaces it.
func PostSleepSync(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)

		var body syncRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}
		if _, err := calendar.ParseLocalDate(body.From); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid 'from' date")
			return
		}
		if _, err := calendar.ParseLocalDate(body.To); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid 'to' date")
			return
		}

		records, err := service.RefreshSleepData(c.Request.Context(), app.Provider(), app.SleepRepo(), user.ID, body.From, body.To)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to sync sleep data")
			return
		}
		HandleSuccess(c, app.Logger(), records, map[string]any{"days_synced": len(records)})
	}
}

type ingestRequest struct {
	Sessions []internal.RawSleepSession `json:"sessions" binding:"required"`
	Scores   map[string]int             `json:"scores"`
}

// PostSleepSessions accepts already-fetched raw sessions (the mobile client
// syncs through the vendor SDK itself), aggregates and upserts them.
func PostSleepSessions(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)

		var body ingestRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}

		records, err := service.AggregateSessions(user.ID, body.Sessions, body.Scores, time.Now())
		if err != nil {
			HandleError(c, app.Logger(), err, 400, "Failed to aggregate sessions")
			return
		}
		for i := range records {
			if err := app.SleepRepo().UpsertDailySleep(c.Request.Context(), &records[i]); err != nil {
				HandleError(c, app.Logger(), err, 500, "Failed to store daily sleep")
				return
			}
		}
		HandleSuccess(c, app.Logger(), records, map[string]any{"days_stored": len(records)})
	}
}

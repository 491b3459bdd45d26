package api

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yourname/ringchallenge/internal"
	"github.com/yourname/ringchallenge/internal/calendar"
	"github.com/yourname/ringchallenge/internal/service"
)

func PostChallenge(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)

		var req service.ChallengeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}
		if err := service.ValidateChallengeRequest(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Validation failed")
			return
		}

		challenge, err := service.CreateChallenge(c.Request.Context(), app.ChallengeRepo(), app.ParticipantRepo(), user, &req)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to create challenge")
			return
		}
		HandleSuccess(c, app.Logger(), challenge, nil)
	}
}

func GetChallenges(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)

		challenges, err := app.ChallengeRepo().ListChallengesByUser(c.Request.Context(), user.ID)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch challenges")
			return
		}
		HandleSuccess(c, app.Logger(), challenges, nil)
	}
}

func GetChallenge(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		challenge, ok := loadChallenge(c, app)
		if !ok {
			return
		}

		start, err := calendar.ParseLocalDate(challenge.StartDate)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Corrupt challenge start date")
			return
		}
		end, err := calendar.ParseLocalDate(challenge.EndDate)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Corrupt challenge end date")
			return
		}
		now := time.Now()
		meta := map[string]any{
			"day_number":     calendar.DayNumber(start, now, calendar.DefaultPeriodDays),
			"days_remaining": calendar.DaysRemaining(end, now),
			"active":         calendar.IsActive(start, end, now),
		}
		HandleSuccess(c, app.Logger(), challenge, meta)
	}
}

// DeleteChallenge removes a challenge with its participants and completions.
// Only the creator may delete.
func DeleteChallenge(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)
		challenge, ok := loadChallenge(c, app)
		if !ok {
			return
		}
		if challenge.CreatorID != user.ID {
			HandleError(c, app.Logger(), errors.New("only the creator may delete a challenge"), 403, "Forbidden")
			return
		}
		if err := app.ChallengeRepo().DeleteChallenge(c.Request.Context(), challenge.ID); err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to delete challenge")
			return
		}
		HandleSuccess(c, app.Logger(), nil, map[string]any{"deleted": challenge.ID})
	}
}

func PostParticipant(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		challenge, ok := loadChallenge(c, app)
		if !ok {
			return
		}

		var req service.InviteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}
		if err := service.ValidateInviteRequest(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Validation failed")
			return
		}

		participant, err := service.InviteParticipant(c.Request.Context(), app.ParticipantRepo(), challenge.ID, &req)
		if err != nil {
			HandleError(c, app.Logger(), err, 409, "Failed to invite participant")
			return
		}
		HandleSuccess(c, app.Logger(), participant, nil)
	}
}

// PatchParticipantStatus lets the authenticated user accept or decline their
// own invite.
func PatchParticipantStatus(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)
		challenge, ok := loadChallenge(c, app)
		if !ok {
			return
		}

		var req service.InviteResponseRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}
		if err := service.ValidateInviteResponseRequest(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Validation failed")
			return
		}

		status := internal.ParticipantStatus(req.Status)
		if err := app.ParticipantRepo().UpdateParticipantStatus(c.Request.Context(), challenge.ID, user.ID, status); err != nil {
			HandleError(c, app.Logger(), err, 404, "No invite for user")
			return
		}
		HandleSuccess(c, app.Logger(), nil, map[string]any{"status": status})
	}
}

// GetComparison returns the authenticated user's baseline-vs-active
// comparison for one metric (?metric=, default sleep_score).
func GetComparison(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)
		challenge, ok := loadChallenge(c, app)
		if !ok {
			return
		}
		metric := c.DefaultQuery("metric", "sleep_score")

		cmp, err := service.CompareParticipant(c.Request.Context(), app.SleepRepo(), challenge, user.ID, metric, time.Now())
		if err != nil {
			if errors.Is(err, service.ErrUnknownMetric) {
				HandleError(c, app.Logger(), err, 400, "Unknown metric")
				return
			}
			HandleError(c, app.Logger(), err, 500, "Failed to compute comparison")
			return
		}
		HandleSuccess(c, app.Logger(), cmp, nil)
	}
}

// GetLeaderboard ranks accepted participants by improvement percent on the
// selected metric and reports the caller's own rank (0 when unranked).
func GetLeaderboard(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)
		challenge, ok := loadChallenge(c, app)
		if !ok {
			return
		}
		metric := c.DefaultQuery("metric", "sleep_score")

		entries, err := service.ChallengeLeaderboard(c.Request.Context(), app.SleepRepo(), app.ParticipantRepo(), app.UserRepo(), challenge, metric, time.Now())
		if err != nil {
			if errors.Is(err, service.ErrUnknownMetric) {
				HandleError(c, app.Logger(), err, 400, "Unknown metric")
				return
			}
			HandleError(c, app.Logger(), err, 500, "Failed to compute leaderboard")
			return
		}
		meta := map[string]any{
			"metric":  metric,
			"my_rank": service.RankOf(entries, user.ID),
		}
		HandleSuccess(c, app.Logger(), entries, meta)
	}
}

func loadChallenge(c *gin.Context, app App) (*internal.Challenge, bool) {
	challenge, err := app.ChallengeRepo().GetChallenge(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, app.Logger(), err, 500, "Failed to fetch challenge")
		return nil, false
	}
	if challenge == nil {
		HandleError(c, app.Logger(), errors.New("challenge not found"), 404, "Not found")
		return nil, false
	}
	return challenge, true
}

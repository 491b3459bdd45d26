package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yourname/ringchallenge/internal"
	"github.com/yourname/ringchallenge/internal/calendar"
)

type toggleRequest struct {
	Date string `json:"date" binding:"required"`
}

// PostHabitToggle flips the completion marker for (challenge, habit, user,
// date). A duplicate toggle arriving while the first is still in flight is
// acknowledged but performs nothing.
func PostHabitToggle(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)
		challenge, ok := loadChallenge(c, app)
		if !ok {
			return
		}

		var body toggleRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}
		if _, err := calendar.ParseLocalDate(body.Date); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid date")
			return
		}

		completion := &internal.HabitCompletion{
			ChallengeID: challenge.ID,
			HabitID:     c.Param("habitId"),
			UserID:      user.ID,
			Day:         body.Date,
			CreatedAt:   time.Now(),
		}
		completed, executed, err := app.ToggleGuard().Toggle(c.Request.Context(), app.CompletionRepo(), completion)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to toggle completion")
			return
		}
		HandleSuccess(c, app.Logger(), nil, map[string]any{
			"completed": completed,
			"executed":  executed,
		})
	}
}

func GetHabitCompletions(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)
		challenge, ok := loadChallenge(c, app)
		if !ok {
			return
		}

		completions, err := app.CompletionRepo().ListCompletions(c.Request.Context(), challenge.ID, user.ID)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch completions")
			return
		}
		HandleSuccess(c, app.Logger(), completions, nil)
	}
}

package api

import (
	"github.com/yourname/ringchallenge/internal"
	"github.com/yourname/ringchallenge/internal/service"
	"github.com/yourname/ringchallenge/internal/storage"
)

type App interface {
	Logger() internal.Logger
	SleepRepo() storage.DailySleepRepository
	ChallengeRepo() storage.ChallengeRepository
	ParticipantRepo() storage.ParticipantRepository
	CompletionRepo() storage.HabitCompletionRepository
	UserRepo() storage.UserRepository
	Provider() service.SessionProvider
	ToggleGuard() *service.ToggleGuard
}

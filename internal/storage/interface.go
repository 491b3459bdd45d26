package storage

import (
	"context"

	"github.com/yourname/ringchallenge/internal"
)

type DailySleepRepository interface {
	// UpsertDailySleep stores a canonical record with replace-on-conflict
	// semantics on (user, day).
	UpsertDailySleep(ctx context.Context, rec *internal.DailySleep) error
	// ListDailySleep returns records for the inclusive [from, to] date
	// range, ordered by day ascending.
	ListDailySleep(ctx context.Context, userID, from, to string) ([]internal.DailySleep, error)
}

type ChallengeRepository interface {
	CreateChallenge(ctx context.Context, c *internal.Challenge) error
	GetChallenge(ctx context.Context, id string) (*internal.Challenge, error)
	ListChallengesByUser(ctx context.Context, userID string) ([]internal.Challenge, error)
	// ListActiveChallenges returns challenges whose [start, end] range
	// contains today (inclusive on both ends).
	ListActiveChallenges(ctx context.Context, today string) ([]internal.Challenge, error)
	// DeleteChallenge cascades to participants and habit completions.
	DeleteChallenge(ctx context.Context, id string) error
}

type ParticipantRepository interface {
	AddParticipant(ctx context.Context, p *internal.Participant) error
	ListParticipants(ctx context.Context, challengeID string) ([]internal.Participant, error)
	UpdateParticipantStatus(ctx context.Context, challengeID, userID string, status internal.ParticipantStatus) error
}

type HabitCompletionRepository interface {
	HasCompletion(ctx context.Context, challengeID, habitID, userID, day string) (bool, error)
	AddCompletion(ctx context.Context, c *internal.HabitCompletion) error
	RemoveCompletion(ctx context.Context, challengeID, habitID, userID, day string) error
	ListCompletions(ctx context.Context, challengeID, userID string) ([]internal.HabitCompletion, error)
}

type UserRepository interface {
	GetUser(ctx context.Context, id string) (*internal.User, error)
	GetUserByToken(ctx context.Context, token string) (*internal.User, error)
}

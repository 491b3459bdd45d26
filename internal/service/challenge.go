package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/yourname/ringchallenge/internal"
	"github.com/yourname/ringchallenge/internal/calendar"
	"github.com/yourname/ringchallenge/internal/storage"
)

var validate = validator.New()

type ChallengeRequest struct {
	ProtocolID string `json:"protocol_id" validate:"required"`
	StartDate  string `json:"start_date" validate:"required,datetime=2006-01-02"`
	Mode       string `json:"mode" validate:"required,oneof=full reduced"`
}

func ValidateChallengeRequest(req *ChallengeRequest) error {
	return validate.Struct(req)
}

// CreateChallenge builds a fixed 30-day challenge and enrolls the creator as
// an accepted participant in one step; a challenge never exists without its
// creator on the roster.
func CreateChallenge(ctx context.Context, challengeRepo storage.ChallengeRepository, participantRepo storage.ParticipantRepository, user *internal.User, req *ChallengeRequest) (*internal.Challenge, error) {
	start, err := calendar.ParseLocalDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	end := start.AddDate(0, 0, calendar.DefaultPeriodDays-1)

	challenge := &internal.Challenge{
		ID:         uuid.NewString(),
		ProtocolID: req.ProtocolID,
		CreatorID:  user.ID,
		StartDate:  req.StartDate,
		EndDate:    calendar.FormatLocalDate(end),
		Mode:       internal.ChallengeMode(req.Mode),
		CreatedAt:  time.Now(),
	}
	if err := challengeRepo.CreateChallenge(ctx, challenge); err != nil {
		return nil, err
	}

	creator := &internal.Participant{
		ChallengeID: challenge.ID,
		UserID:      user.ID,
		Status:      internal.StatusAccepted,
		JoinedAt:    time.Now(),
	}
	if err := participantRepo.AddParticipant(ctx, creator); err != nil {
		return nil, err
	}
	return challenge, nil
}

type InviteRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

func ValidateInviteRequest(req *InviteRequest) error {
	return validate.Struct(req)
}

func InviteParticipant(ctx context.Context, participantRepo storage.ParticipantRepository, challengeID string, req *InviteRequest) (*internal.Participant, error) {
	p := &internal.Participant{
		ChallengeID: challengeID,
		UserID:      req.UserID,
		Status:      internal.StatusInvited,
		JoinedAt:    time.Now(),
	}
	if err := participantRepo.AddParticipant(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

type InviteResponseRequest struct {
	Status string `json:"status" validate:"required,oneof=accepted declined"`
}

func ValidateInviteResponseRequest(req *InviteResponseRequest) error {
	return validate.Struct(req)
}

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yourname/ringchallenge/internal"
)

type fakeChallengeRepo struct {
	challenges map[string]internal.Challenge
}

func newFakeChallengeRepo() *fakeChallengeRepo {
	return &fakeChallengeRepo{challenges: make(map[string]internal.Challenge)}
}

func (f *fakeChallengeRepo) CreateChallenge(ctx context.Context, ch *internal.Challenge) error {
	f.challenges[ch.ID] = *ch
	return nil
}

func (f *fakeChallengeRepo) GetChallenge(ctx context.Context, id string) (*internal.Challenge, error) {
	ch, ok := f.challenges[id]
	if !ok {
		return nil, nil
	}
	return &ch, nil
}

func (f *fakeChallengeRepo) ListChallengesByUser(ctx context.Context, userID string) ([]internal.Challenge, error) {
	return nil, nil
}

func (f *fakeChallengeRepo) ListActiveChallenges(ctx context.Context, today string) ([]internal.Challenge, error) {
	return nil, nil
}

func (f *fakeChallengeRepo) DeleteChallenge(ctx context.Context, id string) error {
	delete(f.challenges, id)
	return nil
}

func TestCreateChallengeRunsThirtyDays(t *testing.T) {
	challenges := newFakeChallengeRepo()
	participants := &fakeParticipantRepo{}
	user := &internal.User{ID: "u1", Name: "Demo User"}

	req := &ChallengeRequest{ProtocolID: "sleep-reset", StartDate: "2026-09-01", Mode: "full"}
	assert.NoError(t, ValidateChallengeRequest(req))

	ch, err := CreateChallenge(context.Background(), challenges, participants, user, req)
	assert.NoError(t, err)
	assert.NotEmpty(t, ch.ID)
	assert.Equal(t, "2026-09-01", ch.StartDate)
	assert.Equal(t, "2026-09-30", ch.EndDate)
	assert.Equal(t, internal.ModeFull, ch.Mode)
	assert.Equal(t, "u1", ch.CreatorID)
}

func TestCreateChallengeEnrollsCreatorAccepted(t *testing.T) {
	challenges := newFakeChallengeRepo()
	participants := &fakeParticipantRepo{}
	user := &internal.User{ID: "u1"}

	req := &ChallengeRequest{ProtocolID: "sleep-reset", StartDate: "2026-09-01", Mode: "reduced"}
	ch, err := CreateChallenge(context.Background(), challenges, participants, user, req)
	assert.NoError(t, err)

	assert.Len(t, participants.participants, 1)
	assert.Equal(t, ch.ID, participants.participants[0].ChallengeID)
	assert.Equal(t, "u1", participants.participants[0].UserID)
	assert.Equal(t, internal.StatusAccepted, participants.participants[0].Status)
}

func TestValidateChallengeRequest(t *testing.T) {
	assert.Error(t, ValidateChallengeRequest(&ChallengeRequest{ProtocolID: "p", StartDate: "09/01/2026", Mode: "full"}))
	assert.Error(t, ValidateChallengeRequest(&ChallengeRequest{ProtocolID: "p", StartDate: "2026-09-01", Mode: "extreme"}))
	assert.Error(t, ValidateChallengeRequest(&ChallengeRequest{StartDate: "2026-09-01", Mode: "full"}))
}

func TestInviteAndRespond(t *testing.T) {
	participants := &fakeParticipantRepo{}

	p, err := InviteParticipant(context.Background(), participants, "ch1", &InviteRequest{UserID: "u2"})
	assert.NoError(t, err)
	assert.Equal(t, internal.StatusInvited, p.Status)

	assert.NoError(t, ValidateInviteResponseRequest(&InviteResponseRequest{Status: "accepted"}))
	assert.Error(t, ValidateInviteResponseRequest(&InviteResponseRequest{Status: "maybe"}))
}

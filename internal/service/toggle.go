package service

import (
	"context"
	"sync"

	"github.com/yourname/ringchallenge/internal"
	"github.com/yourname/ringchallenge/internal/storage"
)

type toggleKey struct {
	ChallengeID string
	HabitID     string
	UserID      string
	Day         string
}

// ToggleGuard serializes habit-completion toggles so a double-tap or a
// second open tab cannot issue duplicate writes for the same
// (challenge, habit, user, day). Each guard instance owns its own in-flight
// set; construct one per engine, not a process-wide singleton.
type ToggleGuard struct {
	mu       sync.Mutex
	inFlight map[toggleKey]struct{}
}

func NewToggleGuard() *ToggleGuard {
	return &ToggleGuard{inFlight: make(map[toggleKey]struct{})}
}

// tryAcquire is a single check-and-insert under the lock, never a check
// followed by a separate insert.
func (g *ToggleGuard) tryAcquire(key toggleKey) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.inFlight[key]; busy {
		return false
	}
	g.inFlight[key] = struct{}{}
	return true
}

func (g *ToggleGuard) release(key toggleKey) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inFlight, key)
}

// Toggle flips the completion marker for the key: present becomes absent and
// vice versa. completed reports the state after the flip. executed is false
// when an identical toggle was already in flight, in which case the call is
// a silent no-op. The key is released on every path, including a failing
// store call, so one failed attempt never wedges the key. Different keys
// proceed independently. The store's uniqueness constraint remains the
// backstop; this guard only stops duplicate client-initiated toggles.
func (g *ToggleGuard) Toggle(ctx context.Context, repo storage.HabitCompletionRepository, completion *internal.HabitCompletion) (completed bool, executed bool, err error) {
	key := toggleKey{
		ChallengeID: completion.ChallengeID,
		HabitID:     completion.HabitID,
		UserID:      completion.UserID,
		Day:         completion.Day,
	}
	if !g.tryAcquire(key) {
		return false, false, nil
	}
	defer g.release(key)

	exists, err := repo.HasCompletion(ctx, completion.ChallengeID, completion.HabitID, completion.UserID, completion.Day)
	if err != nil {
		return false, true, err
	}
	if exists {
		if err := repo.RemoveCompletion(ctx, completion.ChallengeID, completion.HabitID, completion.UserID, completion.Day); err != nil {
			return false, true, err
		}
		return false, true, nil
	}
	if err := repo.AddCompletion(ctx, completion); err != nil {
		return false, true, err
	}
	return true, true, nil
}

package service

import (
	"context"
	"time"

	"github.com/yourname/ringchallenge/internal"
	"github.com/yourname/ringchallenge/internal/storage"
)

// SessionProvider is the wearable-data boundary: already-deserialized raw
// sessions for a date range plus the separate day -> sleep score lookup.
type SessionProvider interface {
	FetchSessions(ctx context.Context, from, to string) ([]internal.RawSleepSession, error)
	FetchDailyScores(ctx context.Context, from, to string) (map[string]int, error)
}

// RefreshSleepData pulls a user's date range from the provider, aggregates
// it into canonical records, and upserts each one. A re-run for already
// stored days replaces those records. No retries here; a failed fetch
// surfaces to the caller.
func RefreshSleepData(ctx context.Context, provider SessionProvider, repo storage.DailySleepRepository, userID, from, to string) ([]internal.DailySleep, error) {
	sessions, err := provider.FetchSessions(ctx, from, to)
	if err != nil {
		return nil, err
	}
	scores, err := provider.FetchDailyScores(ctx, from, to)
	if err != nil {
		return nil, err
	}

	records, err := AggregateSessions(userID, sessions, scores, time.Now())
	if err != nil {
		return nil, err
	}
	for i := range records {
		if err := repo.UpsertDailySleep(ctx, &records[i]); err != nil {
			return nil, err
		}
	}
	return records, nil
}

package service

import (
	"context"
	"errors"
	"time"

	"github.com/yourname/ringchallenge/internal"
	"github.com/yourname/ringchallenge/internal/calendar"
	"github.com/yourname/ringchallenge/internal/storage"
)

// ErrUnknownMetric is returned for a metric name outside the registry.
var ErrUnknownMetric = errors.New("unknown metric")

// ParticipantComparison compares one participant's baseline window against
// the challenge's elapsed active period for one metric. baselineDataPoints /
// currentDataPoints let the caller render "insufficient data" messaging.
type ParticipantComparison struct {
	UserID             string           `json:"user_id"`
	Result             ComparisonResult `json:"result"`
	BaselineDataPoints int              `json:"baseline_data_points"`
	CurrentDataPoints  int              `json:"current_data_points"`
}

// CompareParticipant computes baseline-vs-active averages and improvement
// signals for one user and metric. The baseline is the fixed 30 days before
// the challenge start; the active period runs from the start date to today,
// capped at the end date, with the elapsed day number used as the expected
// day count for median-fill averaging.
func CompareParticipant(ctx context.Context, repo storage.DailySleepRepository, challenge *internal.Challenge, userID, metricName string, today time.Time) (*ParticipantComparison, error) {
	metric, ok := Metrics[metricName]
	if !ok {
		return nil, ErrUnknownMetric
	}

	start, err := calendar.ParseLocalDate(challenge.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := calendar.ParseLocalDate(challenge.EndDate)
	if err != nil {
		return nil, err
	}

	baselineFrom := calendar.FormatLocalDate(start.AddDate(0, 0, -calendar.DefaultPeriodDays))
	baselineTo := calendar.FormatLocalDate(start.AddDate(0, 0, -1))
	baselineRecords, err := repo.ListDailySleep(ctx, userID, baselineFrom, baselineTo)
	if err != nil {
		return nil, err
	}

	activeTo := today
	if activeTo.After(end) {
		activeTo = end
	}
	activeRecords, err := repo.ListDailySleep(ctx, userID, challenge.StartDate, calendar.FormatLocalDate(activeTo))
	if err != nil {
		return nil, err
	}
	elapsed := calendar.DayNumber(start, today, calendar.DefaultPeriodDays)

	baselineAvg, baselinePoints := PeriodAverage(baselineRecords, metric.Value, 0, metric.Fractional)
	currentAvg, currentPoints := PeriodAverage(activeRecords, metric.Value, elapsed, metric.Fractional)

	percent, percentDir := ImprovementPercent(baselineAvg, currentAvg, metric.LowerIsBetter)
	delta, _ := ChangeIndicator(baselineAvg, currentAvg, metric.LowerIsBetter)

	return &ParticipantComparison{
		UserID: userID,
		Result: ComparisonResult{
			Metric:             metric.Name,
			BaselineAverage:    baselineAvg,
			CurrentAverage:     currentAvg,
			ImprovementPercent: percent,
			Delta:              delta,
			Direction:          percentDir,
		},
		BaselineDataPoints: baselinePoints,
		CurrentDataPoints:  currentPoints,
	}, nil
}

// ChallengeLeaderboard ranks every accepted participant of a challenge by
// percentage improvement on the selected metric. Participants without a
// signal (no baseline, no active data, or a zero baseline) are left off the
// board rather than shown at zero.
func ChallengeLeaderboard(ctx context.Context, sleepRepo storage.DailySleepRepository, participantRepo storage.ParticipantRepository, userRepo storage.UserRepository, challenge *internal.Challenge, metricName string, today time.Time) ([]LeaderboardEntry, error) {
	participants, err := participantRepo.ListParticipants(ctx, challenge.ID)
	if err != nil {
		return nil, err
	}

	var inputs []LeaderboardInput
	for _, p := range participants {
		if p.Status != internal.StatusAccepted {
			continue
		}
		cmp, err := CompareParticipant(ctx, sleepRepo, challenge, p.UserID, metricName, today)
		if err != nil {
			return nil, err
		}
		name := p.UserID
		if userRepo != nil {
			if u, err := userRepo.GetUser(ctx, p.UserID); err == nil && u != nil {
				name = u.Name
			}
		}
		inputs = append(inputs, LeaderboardInput{
			UserID:  p.UserID,
			Name:    name,
			Percent: cmp.Result.ImprovementPercent,
		})
	}
	return RankParticipants(inputs), nil
}

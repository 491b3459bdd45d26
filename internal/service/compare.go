package service

import (
	"math"
	"sort"

	"github.com/yourname/ringchallenge/internal"
)

type Direction string

const (
	DirectionUp      Direction = "up"
	DirectionDown    Direction = "down"
	DirectionNeutral Direction = "neutral"
)

// ComparisonResult is computed on demand and never persisted.
type ComparisonResult struct {
	Metric             string    `json:"metric"`
	BaselineAverage    *float64  `json:"baseline_average,omitempty"`
	CurrentAverage     *float64  `json:"current_average,omitempty"`
	ImprovementPercent *int      `json:"improvement_percent,omitempty"`
	Delta              *float64  `json:"delta,omitempty"`
	Direction          Direction `json:"direction"`
}

// ImprovementPercent turns a baseline/current pair into a rounded percentage
// change with an improvement direction. Either input absent, or a zero
// baseline, yields no signal (nil percent, neutral) rather than an Inf/NaN
// leaking out. For lower-is-better metrics a negative change is improvement;
// for higher-is-better the mapping flips.
func ImprovementPercent(baseline, current *float64, lowerIsBetter bool) (*int, Direction) {
	if baseline == nil || current == nil || *baseline == 0 {
		return nil, DirectionNeutral
	}
	percent := int(math.Round((*current - *baseline) / *baseline * 100))
	return &percent, direction(float64(percent), lowerIsBetter)
}

// ChangeIndicator is the absolute counterpart used on detail displays: the
// raw delta with fractional precision kept (a 0.5 bpm drop stays 0.5), and
// the same polarity rule keyed off the delta's sign.
func ChangeIndicator(baseline, current *float64, lowerIsBetter bool) (*float64, Direction) {
	if baseline == nil || current == nil {
		return nil, DirectionNeutral
	}
	delta := *current - *baseline
	return &delta, direction(delta, lowerIsBetter)
}

func direction(signed float64, lowerIsBetter bool) Direction {
	switch {
	case signed == 0:
		return DirectionNeutral
	case signed < 0 == lowerIsBetter:
		return DirectionUp
	default:
		return DirectionDown
	}
}

// LeaderboardEntry is one ranked participant for the selected metric.
type LeaderboardEntry struct {
	UserID             string `json:"user_id"`
	Name               string `json:"name"`
	Rank               int    `json:"rank"`
	ImprovementPercent int    `json:"improvement_percent"`
}

type LeaderboardInput struct {
	UserID  string
	Name    string
	Percent *int
}

// RankParticipants drops participants without a signal, sorts the rest by
// improvement percent descending with user ID as the secondary key so equal
// percentages rank reproducibly, and assigns consecutive ranks from 1.
func RankParticipants(inputs []LeaderboardInput) []LeaderboardEntry {
	var scored []LeaderboardInput
	for _, in := range inputs {
		if in.Percent != nil {
			scored = append(scored, in)
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if *scored[i].Percent != *scored[j].Percent {
			return *scored[i].Percent > *scored[j].Percent
		}
		return scored[i].UserID < scored[j].UserID
	})

	entries := make([]LeaderboardEntry, 0, len(scored))
	for i, in := range scored {
		entries = append(entries, LeaderboardEntry{
			UserID:             in.UserID,
			Name:               in.Name,
			Rank:               i + 1,
			ImprovementPercent: *in.Percent,
		})
	}
	return entries
}

// RankOf finds userID's rank within a ranked leaderboard, 0 when unranked.
func RankOf(entries []LeaderboardEntry, userID string) int {
	for _, e := range entries {
		if e.UserID == userID {
			return e.Rank
		}
	}
	return 0
}

// Metric describes one comparable sleep statistic: how to read it off a
// canonical record, whether a decrease counts as improvement, and whether
// averages keep fractional precision.
type Metric struct {
	Name          string
	LowerIsBetter bool
	Fractional    bool
	Value         MetricValue
}

// Metrics is the registry of comparable statistics, keyed by the name the
// API accepts.
var Metrics = map[string]Metric{
	"sleep_score": {
		Name:  "sleep_score",
		Value: func(r internal.DailySleep) *float64 { return intMetric(r.SleepScore) },
	},
	"total_sleep": {
		Name:  "total_sleep",
		Value: func(r internal.DailySleep) *float64 { return minutesMetric(r.TotalSleepMinutes) },
	},
	"deep_sleep": {
		Name:  "deep_sleep",
		Value: func(r internal.DailySleep) *float64 { return minutesMetric(r.DeepSleepMinutes) },
	},
	"rem_sleep": {
		Name:  "rem_sleep",
		Value: func(r internal.DailySleep) *float64 { return minutesMetric(r.RemSleepMinutes) },
	},
	"light_sleep": {
		Name:  "light_sleep",
		Value: func(r internal.DailySleep) *float64 { return minutesMetric(r.LightSleepMinutes) },
	},
	"avg_heart_rate": {
		Name:          "avg_heart_rate",
		LowerIsBetter: true,
		Fractional:    true,
		Value:         func(r internal.DailySleep) *float64 { return r.AvgHeartRate },
	},
	"lowest_heart_rate": {
		Name:          "lowest_heart_rate",
		LowerIsBetter: true,
		Value:         func(r internal.DailySleep) *float64 { return intMetric(r.LowestHeartRate) },
	},
}

func intMetric(v *int) *float64 {
	if v == nil {
		return nil
	}
	f := float64(*v)
	return &f
}

// minutesMetric treats a zero duration as absent: a day the ring synced but
// recorded no sleep at all means no data for duration metrics, not a
// zero-minute night dragging the average down.
func minutesMetric(v int) *float64 {
	if v == 0 {
		return nil
	}
	f := float64(v)
	return &f
}

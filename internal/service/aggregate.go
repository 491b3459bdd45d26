package service

import (
	"errors"
	"math"
	"time"

	"github.com/yourname/ringchallenge/internal"
)

// ErrSessionWithoutDay is returned when a provider session has no day key.
// The aggregator never guesses a missing key.
var ErrSessionWithoutDay = errors.New("raw sleep session missing day")

// AggregateSessions collapses raw provider sessions into one canonical
// record per distinct day. Stage durations are summed across every session
// of the day (a main sleep plus a nap reports the combined duration), while
// heart-rate and bedtime fields come from the primary session only. scores
// is the external day -> sleep score lookup; days without an entry get no
// score. Output order follows first appearance of each day in the input.
func AggregateSessions(userID string, sessions []internal.RawSleepSession, scores map[string]int, now time.Time) ([]internal.DailySleep, error) {
	if len(sessions) == 0 {
		return nil, nil
	}

	byDay := make(map[string][]internal.RawSleepSession)
	var order []string
	for _, s := range sessions {
		if s.Day == "" {
			return nil, ErrSessionWithoutDay
		}
		if _, seen := byDay[s.Day]; !seen {
			order = append(order, s.Day)
		}
		byDay[s.Day] = append(byDay[s.Day], s)
	}

	records := make([]internal.DailySleep, 0, len(order))
	for _, day := range order {
		group := byDay[day]

		var totalSec, deepSec, remSec, lightSec int
		for _, s := range group {
			totalSec += s.TotalSleepSeconds
			deepSec += s.DeepSleepSeconds
			remSec += s.RemSleepSeconds
			lightSec += s.LightSleepSeconds
		}

		primary := primarySession(group)

		rec := internal.DailySleep{
			UserID:            userID,
			Day:               day,
			TotalSleepMinutes: secondsToMinutes(totalSec),
			DeepSleepMinutes:  secondsToMinutes(deepSec),
			RemSleepMinutes:   secondsToMinutes(remSec),
			LightSleepMinutes: secondsToMinutes(lightSec),
			AvgHeartRate:      primary.AvgHeartRate,
			LowestHeartRate:   primary.LowestHeartRate,
			BedtimeStart:      primary.BedtimeStart,
			UpdatedAt:         now,
		}
		if score, ok := scores[day]; ok {
			rec.SleepScore = &score
		}
		records = append(records, rec)
	}
	return records, nil
}

// primarySession picks the session that supplies heart-rate and bedtime
// fields: long-sleep sessions beat naps/rests, then the largest total
// duration wins. Ties keep the first session as received.
func primarySession(group []internal.RawSleepSession) internal.RawSleepSession {
	best := group[0]
	for _, s := range group[1:] {
		if isLongSleep(s) != isLongSleep(best) {
			if isLongSleep(s) {
				best = s
			}
			continue
		}
		if s.TotalSleepSeconds > best.TotalSleepSeconds {
			best = s
		}
	}
	return best
}

func isLongSleep(s internal.RawSleepSession) bool {
	return s.Type == internal.SessionLongSleep
}

func secondsToMinutes(sec int) int {
	return int(math.Round(float64(sec) / 60.0))
}

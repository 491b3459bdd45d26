package internal

import "time"

type User struct {
	ID    string `json:"id"`
	Token string `json:"token"`
	Name  string `json:"name"`
}

// SessionType is the wearable provider's session category. Anything that is
// not a long sleep counts as a nap/rest when picking the primary session.
type SessionType string

const (
	SessionLongSleep SessionType = "long_sleep"
	SessionSleep     SessionType = "sleep"
	SessionNap       SessionType = "nap"
	SessionRest      SessionType = "rest"
)

// RawSleepSession is one provider record. Several sessions may share a Day
// (the main sleep plus naps). Optional fields are nil when the provider
// omitted them; duration fields default to 0.
type RawSleepSession struct {
	Day               string      `json:"day"` // YYYY-MM-DD
	Type              SessionType `json:"type"`
	TotalSleepSeconds int         `json:"total_sleep_duration"`
	DeepSleepSeconds  int         `json:"deep_sleep_duration"`
	RemSleepSeconds   int         `json:"rem_sleep_duration"`
	LightSleepSeconds int         `json:"light_sleep_duration"`
	AvgHeartRate      *float64    `json:"average_heart_rate,omitempty"`
	LowestHeartRate   *int        `json:"lowest_heart_rate,omitempty"`
	BedtimeStart      *time.Time  `json:"bedtime_start,omitempty"`
}

// DailySleep is the canonical per-day record, unique per (user, day).
// Re-aggregating a day replaces the stored record wholesale.
type DailySleep struct {
	UserID            string     `json:"user_id"`
	Day               string     `json:"day"` // YYYY-MM-DD
	TotalSleepMinutes int        `json:"total_sleep_minutes"`
	DeepSleepMinutes  int        `json:"deep_sleep_minutes"`
	RemSleepMinutes   int        `json:"rem_sleep_minutes"`
	LightSleepMinutes int        `json:"light_sleep_minutes"`
	SleepScore        *int       `json:"sleep_score,omitempty"`
	AvgHeartRate      *float64   `json:"avg_heart_rate,omitempty"`
	LowestHeartRate   *int       `json:"lowest_heart_rate,omitempty"`
	BedtimeStart      *time.Time `json:"bedtime_start,omitempty"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

type ChallengeMode string

const (
	ModeFull    ChallengeMode = "full"
	ModeReduced ChallengeMode = "reduced"
)

// Challenge is immutable once created; the only mutation is deletion, which
// cascades to participants and habit completions.
type Challenge struct {
	ID         string        `json:"id"`
	ProtocolID string        `json:"protocol_id"`
	CreatorID  string        `json:"creator_id"`
	StartDate  string        `json:"start_date"` // YYYY-MM-DD
	EndDate    string        `json:"end_date"`   // YYYY-MM-DD, start + 29 days
	Mode       ChallengeMode `json:"mode"`
	CreatedAt  time.Time     `json:"created_at"`
}

type ParticipantStatus string

const (
	StatusInvited  ParticipantStatus = "invited"
	StatusAccepted ParticipantStatus = "accepted"
	StatusDeclined ParticipantStatus = "declined"
)

type Participant struct {
	ChallengeID string            `json:"challenge_id"`
	UserID      string            `json:"user_id"`
	Status      ParticipantStatus `json:"status"`
	JoinedAt    time.Time         `json:"joined_at"`
}

// HabitCompletion is an existence marker: a stored row means "done" for that
// (challenge, habit, user, day); absence means "not done". No partial states.
type HabitCompletion struct {
	ChallengeID string    `json:"challenge_id"`
	HabitID     string    `json:"habit_id"`
	UserID      string    `json:"user_id"`
	Day         string    `json:"day"` // YYYY-MM-DD
	CreatedAt   time.Time `json:"created_at"`
}

package storage

import "github.com/yourname/ringchallenge/internal"

// Repositories bundles every repository a backend provides. UserRepo is nil
// for the file backend; callers treat user lookup as best-effort.
type Repositories struct {
	Sleep        DailySleepRepository
	Challenges   ChallengeRepository
	Participants ParticipantRepository
	Completions  HabitCompletionRepository
	Users        UserRepository
}

func NewFileRepositories(sleepFile, challengesFile, completionsFile string, logger internal.Logger) (*Repositories, error) {
	storage, err := NewFileStorage(sleepFile, challengesFile, completionsFile, logger)
	if err != nil {
		return nil, err
	}
	return &Repositories{
		Sleep:        storage,
		Challenges:   storage,
		Participants: storage,
		Completions:  storage,
	}, nil
}

func NewPostgresRepositories(dsn string, logger internal.Logger) (*Repositories, error) {
	storage, err := NewPostgresStorage(dsn, logger)
	if err != nil {
		return nil, err
	}
	return &Repositories{
		Sleep:        storage,
		Challenges:   storage,
		Participants: storage,
		Completions:  storage,
		Users:        storage,
	}, nil
}

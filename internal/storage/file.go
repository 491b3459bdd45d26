package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/yourname/ringchallenge/internal"
)

type challengeFilePayload struct {
	Challenges   []*internal.Challenge   `json:"challenges"`
	Participants []*internal.Participant `json:"participants"`
}

type FileStorage struct {
	dailySleep   map[string]map[string]*internal.DailySleep // userID -> day -> record
	challenges   map[string]*internal.Challenge             // id -> challenge
	participants map[string][]*internal.Participant         // challengeID -> participants
	completions  map[string]*internal.HabitCompletion       // composite key -> completion
	mu           sync.RWMutex

	sleepFile       string
	challengesFile  string
	completionsFile string

	saveSleepChan       chan struct{}
	saveChallengesChan  chan struct{}
	saveCompletionsChan chan struct{}
	shutdownChan        chan struct{}
	saveDelay           time.Duration

	logger internal.Logger
}

func NewFileStorage(sleepFile, challengesFile, completionsFile string, logger internal.Logger) (*FileStorage, error) {
	s := &FileStorage{
		dailySleep:          make(map[string]map[string]*internal.DailySleep),
		challenges:          make(map[string]*internal.Challenge),
		participants:        make(map[string][]*internal.Participant),
		completions:         make(map[string]*internal.HabitCompletion),
		sleepFile:           sleepFile,
		challengesFile:      challengesFile,
		completionsFile:     completionsFile,
		saveSleepChan:       make(chan struct{}, 1),
		saveChallengesChan:  make(chan struct{}, 1),
		saveCompletionsChan: make(chan struct{}, 1),
		shutdownChan:        make(chan struct{}),
		saveDelay:           500 * time.Millisecond,
		logger:              logger,
	}

	if err := s.loadDailySleep(); err != nil {
		logger.Errorf("storage: failed to load daily sleep: %v", err)
		return nil, err
	}
	if err := s.loadChallenges(); err != nil {
		logger.Errorf("storage: failed to load challenges: %v", err)
		return nil, err
	}
	if err := s.loadCompletions(); err != nil {
		logger.Errorf("storage: failed to load completions: %v", err)
		return nil, err
	}

	go s.saveWorker(s.saveSleepChan, s.saveDailySleep, "daily sleep")
	go s.saveWorker(s.saveChallengesChan, s.saveChallenges, "challenges")
	go s.saveWorker(s.saveCompletionsChan, s.saveCompletions, "completions")

	return s, nil
}

func completionKey(challengeID, habitID, userID, day string) string {
	return challengeID + "|" + habitID + "|" + userID + "|" + day
}

func decodeJSONFile(path string, target interface{}) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

func (s *FileStorage) loadDailySleep() error {
	var records []*internal.DailySleep
	if err := decodeJSONFile(s.sleepFile, &records); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		if s.dailySleep[r.UserID] == nil {
			s.dailySleep[r.UserID] = make(map[string]*internal.DailySleep)
		}
		s.dailySleep[r.UserID][r.Day] = r
	}
	return nil
}

func (s *FileStorage) loadChallenges() error {
	var payload challengeFilePayload
	if err := decodeJSONFile(s.challengesFile, &payload); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range payload.Challenges {
		s.challenges[c.ID] = c
	}
	for _, p := range payload.Participants {
		s.participants[p.ChallengeID] = append(s.participants[p.ChallengeID], p)
	}
	return nil
}

func (s *FileStorage) loadCompletions() error {
	var completions []*internal.HabitCompletion
	if err := decodeJSONFile(s.completionsFile, &completions); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range completions {
		s.completions[completionKey(c.ChallengeID, c.HabitID, c.UserID, c.Day)] = c
	}
	return nil
}

func atomicWriteFileJSON(filePath string, data interface{}) error {
	tempFile := filePath + ".tmp"
	f, err := os.Create(tempFile)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Close(); err != nil {
		os.Remove(tempFile)
		return err
	}

	return os.Rename(tempFile, filePath)
}

func (s *FileStorage) saveDailySleep() error {
	s.mu.RLock()
	records := make([]*internal.DailySleep, 0)
	for _, byDay := range s.dailySleep {
		for _, r := range byDay {
			records = append(records, r)
		}
	}
	s.mu.RUnlock()

	return atomicWriteFileJSON(s.sleepFile, records)
}

func (s *FileStorage) saveChallenges() error {
	s.mu.RLock()
	payload := challengeFilePayload{
		Challenges:   make([]*internal.Challenge, 0, len(s.challenges)),
		Participants: make([]*internal.Participant, 0),
	}
	for _, c := range s.challenges {
		payload.Challenges = append(payload.Challenges, c)
	}
	for _, ps := range s.participants {
		payload.Participants = append(payload.Participants, ps...)
	}
	s.mu.RUnlock()

	return atomicWriteFileJSON(s.challengesFile, payload)
}

func (s *FileStorage) saveCompletions() error {
	s.mu.RLock()
	completions := make([]*internal.HabitCompletion, 0, len(s.completions))
	for _, c := range s.completions {
		completions = append(completions, c)
	}
	s.mu.RUnlock()

	return atomicWriteFileJSON(s.completionsFile, completions)
}

func (s *FileStorage) saveWorker(trigger chan struct{}, save func() error, what string) {
	timer := time.NewTimer(s.saveDelay)
	defer timer.Stop()

	for {
		select {
		case <-trigger:
			timer.Reset(s.saveDelay)
		case <-timer.C:
			if err := save(); err != nil {
				s.logger.Errorf("storage: error saving %s: %v", what, err)
			}
		case <-s.shutdownChan:
			return
		}
	}
}

func (s *FileStorage) Close() error {
	close(s.shutdownChan)

	// Save pending data synchronously on shutdown
	if err := s.saveDailySleep(); err != nil {
		return err
	}
	if err := s.saveChallenges(); err != nil {
		return err
	}
	return s.saveCompletions()
}

func (s *FileStorage) markDirty(trigger chan struct{}) {
	select {
	case trigger <- struct{}{}:
	default:
	}
}

// --- DailySleepRepository ---

func (s *FileStorage) UpsertDailySleep(ctx context.Context, rec *internal.DailySleep) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dailySleep[rec.UserID] == nil {
		s.dailySleep[rec.UserID] = make(map[string]*internal.DailySleep)
	}
	// replace on conflict: later aggregation wins wholesale
	s.dailySleep[rec.UserID][rec.Day] = rec
	s.markDirty(s.saveSleepChan)
	return nil
}

func (s *FileStorage) ListDailySleep(ctx context.Context, userID, from, to string) ([]internal.DailySleep, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byDay, ok := s.dailySleep[userID]
	if !ok {
		return []internal.DailySleep{}, nil
	}
	records := make([]internal.DailySleep, 0)
	for day, r := range byDay {
		if day >= from && day <= to {
			records = append(records, *r)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Day < records[j].Day
	})
	return records, nil
}

// --- ChallengeRepository ---

func (s *FileStorage) CreateChallenge(ctx context.Context, c *internal.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenges[c.ID] = c
	s.markDirty(s.saveChallengesChan)
	return nil
}

func (s *FileStorage) GetChallenge(ctx context.Context, id string) (*internal.Challenge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.challenges[id]
	if !ok {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

func (s *FileStorage) ListChallengesByUser(ctx context.Context, userID string) ([]internal.Challenge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	challenges := make([]internal.Challenge, 0)
	for challengeID, ps := range s.participants {
		for _, p := range ps {
			if p.UserID != userID {
				continue
			}
			if c, ok := s.challenges[challengeID]; ok {
				challenges = append(challenges, *c)
			}
			break
		}
	}
	sort.Slice(challenges, func(i, j int) bool {
		return challenges[i].StartDate > challenges[j].StartDate
	})
	return challenges, nil
}

func (s *FileStorage) ListActiveChallenges(ctx context.Context, today string) ([]internal.Challenge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	challenges := make([]internal.Challenge, 0)
	for _, c := range s.challenges {
		if c.StartDate <= today && c.EndDate >= today {
			challenges = append(challenges, *c)
		}
	}
	sort.Slice(challenges, func(i, j int) bool {
		return challenges[i].StartDate < challenges[j].StartDate
	})
	return challenges, nil
}

func (s *FileStorage) DeleteChallenge(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.challenges, id)
	delete(s.participants, id)
	for key, c := range s.completions {
		if c.ChallengeID == id {
			delete(s.completions, key)
		}
	}
	s.markDirty(s.saveChallengesChan)
	s.markDirty(s.saveCompletionsChan)
	return nil
}

// --- ParticipantRepository ---

func (s *FileStorage) AddParticipant(ctx context.Context, p *internal.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.participants[p.ChallengeID] {
		if existing.UserID == p.UserID {
			return errors.New("storage: participant already exists")
		}
	}
	s.participants[p.ChallengeID] = append(s.participants[p.ChallengeID], p)
	s.markDirty(s.saveChallengesChan)
	return nil
}

func (s *FileStorage) ListParticipants(ctx context.Context, challengeID string) ([]internal.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ps := s.participants[challengeID]
	participants := make([]internal.Participant, len(ps))
	for i, p := range ps {
		participants[i] = *p
	}
	return participants, nil
}

func (s *FileStorage) UpdateParticipantStatus(ctx context.Context, challengeID, userID string, status internal.ParticipantStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.participants[challengeID] {
		if p.UserID == userID {
			p.Status = status
			s.markDirty(s.saveChallengesChan)
			return nil
		}
	}
	return errors.New("storage: participant not found")
}

// --- HabitCompletionRepository ---

func (s *FileStorage) HasCompletion(ctx context.Context, challengeID, habitID, userID, day string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.completions[completionKey(challengeID, habitID, userID, day)]
	return ok, nil
}

func (s *FileStorage) AddCompletion(ctx context.Context, c *internal.HabitCompletion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// key uniqueness is enforced here as the storage-level backstop
	s.completions[completionKey(c.ChallengeID, c.HabitID, c.UserID, c.Day)] = c
	s.markDirty(s.saveCompletionsChan)
	return nil
}

func (s *FileStorage) RemoveCompletion(ctx context.Context, challengeID, habitID, userID, day string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.completions, completionKey(challengeID, habitID, userID, day))
	s.markDirty(s.saveCompletionsChan)
	return nil
}

func (s *FileStorage) ListCompletions(ctx context.Context, challengeID, userID string) ([]internal.HabitCompletion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	completions := make([]internal.HabitCompletion, 0)
	for _, c := range s.completions {
		if c.ChallengeID == challengeID && c.UserID == userID {
			completions = append(completions, *c)
		}
	}
	sort.Slice(completions, func(i, j int) bool {
		if completions[i].Day != completions[j].Day {
			return completions[i].Day < completions[j].Day
		}
		return completions[i].HabitID < completions[j].HabitID
	})
	return completions, nil
}

// --- Compile-time assertions ---
var _ DailySleepRepository = (*FileStorage)(nil)
var _ ChallengeRepository = (*FileStorage)(nil)
var _ ParticipantRepository = (*FileStorage)(nil)
var _ HabitCompletionRepository = (*FileStorage)(nil)

package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yourname/ringchallenge/internal"
)

type PostgresStorage struct {
	pool   *pgxpool.Pool
	logger internal.Logger
}

func NewPostgresStorage(dsn string, logger internal.Logger) (*PostgresStorage, error) {
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		logger.Errorf("failed to connect to postgres: %v", err)
		return nil, err
	}
	return &PostgresStorage{pool: pool, logger: logger}, nil
}

// --- DailySleepRepository ---

func (p *PostgresStorage) UpsertDailySleep(ctx context.Context, rec *internal.DailySleep) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO daily_sleep
		(user_id, day, total_sleep_minutes, deep_sleep_minutes, rem_sleep_minutes, light_sleep_minutes, sleep_score, avg_heart_rate, lowest_heart_rate, bedtime_start, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id, day) DO UPDATE SET
			total_sleep_minutes = EXCLUDED.total_sleep_minutes,
			deep_sleep_minutes = EXCLUDED.deep_sleep_minutes,
			rem_sleep_minutes = EXCLUDED.rem_sleep_minutes,
			light_sleep_minutes = EXCLUDED.light_sleep_minutes,
			sleep_score = EXCLUDED.sleep_score,
			avg_heart_rate = EXCLUDED.avg_heart_rate,
			lowest_heart_rate = EXCLUDED.lowest_heart_rate,
			bedtime_start = EXCLUDED.bedtime_start,
			updated_at = EXCLUDED.updated_at`,
		rec.UserID, rec.Day, rec.TotalSleepMinutes, rec.DeepSleepMinutes, rec.RemSleepMinutes, rec.LightSleepMinutes,
		rec.SleepScore, rec.AvgHeartRate, rec.LowestHeartRate, rec.BedtimeStart, rec.UpdatedAt)
	if err != nil {
		p.logger.Errorf("failed to upsert daily sleep: %v", err)
		return err
	}
	return nil
}

func (p *PostgresStorage) ListDailySleep(ctx context.Context, userID, from, to string) ([]internal.DailySleep, error) {
	rows, err := p.pool.Query(ctx, `SELECT user_id, day, total_sleep_minutes, deep_sleep_minutes, rem_sleep_minutes, light_sleep_minutes, sleep_score, avg_heart_rate, lowest_heart_rate, bedtime_start, updated_at
		FROM daily_sleep WHERE user_id = $1 AND day >= $2 AND day <= $3 ORDER BY day ASC`, userID, from, to)
	if err != nil {
		p.logger.Errorf("failed to query daily sleep: %v", err)
		return nil, err
	}
	defer rows.Close()

	var records []internal.DailySleep
	for rows.Next() {
		var r internal.DailySleep
		err := rows.Scan(&r.UserID, &r.Day, &r.TotalSleepMinutes, &r.DeepSleepMinutes, &r.RemSleepMinutes, &r.LightSleepMinutes, &r.SleepScore, &r.AvgHeartRate, &r.LowestHeartRate, &r.BedtimeStart, &r.UpdatedAt)
		if err != nil {
			p.logger.Errorf("failed to scan daily sleep: %v", err)
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// --- ChallengeRepository ---

func (p *PostgresStorage) CreateChallenge(ctx context.Context, c *internal.Challenge) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO challenges (id, protocol_id, creator_id, start_date, end_date, mode, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.ProtocolID, c.CreatorID, c.StartDate, c.EndDate, c.Mode, c.CreatedAt)
	if err != nil {
		p.logger.Errorf("failed to insert challenge: %v", err)
		return err
	}
	return nil
}

func (p *PostgresStorage) GetChallenge(ctx context.Context, id string) (*internal.Challenge, error) {
	row := p.pool.QueryRow(ctx, `SELECT id, protocol_id, creator_id, start_date, end_date, mode, created_at FROM challenges WHERE id = $1`, id)
	var c internal.Challenge
	if err := row.Scan(&c.ID, &c.ProtocolID, &c.CreatorID, &c.StartDate, &c.EndDate, &c.Mode, &c.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		p.logger.Errorf("failed to get challenge: %v", err)
		return nil, err
	}
	return &c, nil
}

func (p *PostgresStorage) ListChallengesByUser(ctx context.Context, userID string) ([]internal.Challenge, error) {
	rows, err := p.pool.Query(ctx, `SELECT c.id, c.protocol_id, c.creator_id, c.start_date, c.end_date, c.mode, c.created_at
		FROM challenges c JOIN participants p ON p.challenge_id = c.id
		WHERE p.user_id = $1 ORDER BY c.start_date DESC`, userID)
	if err != nil {
		p.logger.Errorf("failed to query challenges: %v", err)
		return nil, err
	}
	defer rows.Close()

	var challenges []internal.Challenge
	for rows.Next() {
		var c internal.Challenge
		if err := rows.Scan(&c.ID, &c.ProtocolID, &c.CreatorID, &c.StartDate, &c.EndDate, &c.Mode, &c.CreatedAt); err != nil {
			p.logger.Errorf("failed to scan challenge: %v", err)
			return nil, err
		}
		challenges = append(challenges, c)
	}
	return challenges, rows.Err()
}

func (p *PostgresStorage) ListActiveChallenges(ctx context.Context, today string) ([]internal.Challenge, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, protocol_id, creator_id, start_date, end_date, mode, created_at
		FROM challenges WHERE start_date <= $1 AND end_date >= $1`, today)
	if err != nil {
		p.logger.Errorf("failed to query active challenges: %v", err)
		return nil, err
	}
	defer rows.Close()

	var challenges []internal.Challenge
	for rows.Next() {
		var c internal.Challenge
		if err := rows.Scan(&c.ID, &c.ProtocolID, &c.CreatorID, &c.StartDate, &c.EndDate, &c.Mode, &c.CreatedAt); err != nil {
			p.logger.Errorf("failed to scan challenge: %v", err)
			return nil, err
		}
		challenges = append(challenges, c)
	}
	return challenges, rows.Err()
}

func (p *PostgresStorage) DeleteChallenge(ctx context.Context, id string) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		p.logger.Errorf("failed to begin delete transaction: %v", err)
		return err
	}
	defer tx.Rollback(ctx)

	for _, q := range []string{
		`DELETE FROM habit_completions WHERE challenge_id = $1`,
		`DELETE FROM participants WHERE challenge_id = $1`,
		`DELETE FROM challenges WHERE id = $1`,
	} {
		if _, err := tx.Exec(ctx, q, id); err != nil {
			p.logger.Errorf("failed to delete challenge %s: %v", id, err)
			return err
		}
	}
	return tx.Commit(ctx)
}

// --- ParticipantRepository ---

func (p *PostgresStorage) AddParticipant(ctx context.Context, part *internal.Participant) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO participants (challenge_id, user_id, status, joined_at) VALUES ($1, $2, $3, $4)`,
		part.ChallengeID, part.UserID, part.Status, part.JoinedAt)
	if err != nil {
		p.logger.Errorf("failed to insert participant: %v", err)
		return err
	}
	return nil
}

func (p *PostgresStorage) ListParticipants(ctx context.Context, challengeID string) ([]internal.Participant, error) {
	rows, err := p.pool.Query(ctx, `SELECT challenge_id, user_id, status, joined_at FROM participants WHERE challenge_id = $1 ORDER BY joined_at ASC`, challengeID)
	if err != nil {
		p.logger.Errorf("failed to query participants: %v", err)
		return nil, err
	}
	defer rows.Close()

	var participants []internal.Participant
	for rows.Next() {
		var part internal.Participant
		if err := rows.Scan(&part.ChallengeID, &part.UserID, &part.Status, &part.JoinedAt); err != nil {
			p.logger.Errorf("failed to scan participant: %v", err)
			return nil, err
		}
		participants = append(participants, part)
	}
	return participants, rows.Err()
}

func (p *PostgresStorage) UpdateParticipantStatus(ctx context.Context, challengeID, userID string, status internal.ParticipantStatus) error {
	_, err := p.pool.Exec(ctx, `UPDATE participants SET status = $3 WHERE challenge_id = $1 AND user_id = $2`, challengeID, userID, status)
	if err != nil {
		p.logger.Errorf("failed to update participant status: %v", err)
		return err
	}
	return nil
}

// --- HabitCompletionRepository ---

func (p *PostgresStorage) HasCompletion(ctx context.Context, challengeID, habitID, userID, day string) (bool, error) {
	var exists bool
	err := p.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM habit_completions WHERE challenge_id = $1 AND habit_id = $2 AND user_id = $3 AND day = $4)`,
		challengeID, habitID, userID, day).Scan(&exists)
	if err != nil {
		p.logger.Errorf("failed to check completion: %v", err)
		return false, err
	}
	return exists, nil
}

func (p *PostgresStorage) AddCompletion(ctx context.Context, c *internal.HabitCompletion) error {
	// ON CONFLICT DO NOTHING keeps the unique (challenge_id, habit_id,
	// user_id, day) key as the backstop against a duplicate slipping past
	// the in-process guard.
	_, err := p.pool.Exec(ctx, `INSERT INTO habit_completions (challenge_id, habit_id, user_id, day, created_at) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (challenge_id, habit_id, user_id, day) DO NOTHING`,
		c.ChallengeID, c.HabitID, c.UserID, c.Day, c.CreatedAt)
	if err != nil {
		p.logger.Errorf("failed to insert completion: %v", err)
		return err
	}
	return nil
}

func (p *PostgresStorage) RemoveCompletion(ctx context.Context, challengeID, habitID, userID, day string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM habit_completions WHERE challenge_id = $1 AND habit_id = $2 AND user_id = $3 AND day = $4`,
		challengeID, habitID, userID, day)
	if err != nil {
		p.logger.Errorf("failed to delete completion: %v", err)
		return err
	}
	return nil
}

func (p *PostgresStorage) ListCompletions(ctx context.Context, challengeID, userID string) ([]internal.HabitCompletion, error) {
	rows, err := p.pool.Query(ctx, `SELECT challenge_id, habit_id, user_id, day, created_at FROM habit_completions WHERE challenge_id = $1 AND user_id = $2 ORDER BY day ASC`,
		challengeID, userID)
	if err != nil {
		p.logger.Errorf("failed to query completions: %v", err)
		return nil, err
	}
	defer rows.Close()

	var completions []internal.HabitCompletion
	for rows.Next() {
		var c internal.HabitCompletion
		if err := rows.Scan(&c.ChallengeID, &c.HabitID, &c.UserID, &c.Day, &c.CreatedAt); err != nil {
			p.logger.Errorf("failed to scan completion: %v", err)
			return nil, err
		}
		completions = append(completions, c)
	}
	return completions, rows.Err()
}

// --- UserRepository ---

func (p *PostgresStorage) GetUser(ctx context.Context, id string) (*internal.User, error) {
	row := p.pool.QueryRow(ctx, `SELECT id, token, name FROM users WHERE id = $1`, id)
	var u internal.User
	if err := row.Scan(&u.ID, &u.Token, &u.Name); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		p.logger.Errorf("user not found: %v", err)
		return nil, err
	}
	return &u, nil
}

func (p *PostgresStorage) GetUserByToken(ctx context.Context, token string) (*internal.User, error) {
	row := p.pool.QueryRow(ctx, `SELECT id, token, name FROM users WHERE token = $1`, token)
	var u internal.User
	if err := row.Scan(&u.ID, &u.Token, &u.Name); err != nil {
		p.logger.Errorf("user not found: %v", err)
		return nil, err
	}
	return &u, nil
}

// --- Compile-time assertions ---
var _ DailySleepRepository = (*PostgresStorage)(nil)
var _ ChallengeRepository = (*PostgresStorage)(nil)
var _ ParticipantRepository = (*PostgresStorage)(nil)
var _ HabitCompletionRepository = (*PostgresStorage)(nil)
var _ UserRepository = (*PostgresStorage)(nil)

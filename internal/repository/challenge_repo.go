package repository

import (
	"context"
	"encoding/json"
	"errors"

	"farmhub/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const challengeColumns = `id, title, description, category, difficulty, challenge_type, points,
	eligibility, starts_at, ends_at, is_active, created_by,
	total_participants, completed_participants, created_at`

type ChallengeRepository struct {
	db *pgxpool.Pool
}

func NewChallengeRepository(db *pgxpool.Pool) *ChallengeRepository {
	return &ChallengeRepository{db: db}
}

func scanChallenge(row pgx.Row) (*domain.Challenge, error) {
	var (
		c       domain.Challenge
		eligRaw []byte
	)
	err := row.Scan(
		&c.ID, &c.Title, &c.Description, &c.Category, &c.Difficulty, &c.Type, &c.Points,
		&eligRaw, &c.StartsAt, &c.EndsAt, &c.IsActive, &c.CreatedBy,
		&c.TotalParticipants, &c.CompletedParticipants, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if len(eligRaw) > 0 {
		_ = json.Unmarshal(eligRaw, &c.Eligibility)
	}
	return &c, nil
}

func (r *ChallengeRepository) Create(ctx context.Context, c *domain.Challenge) error {
	eligJSON, err := json.Marshal(c.Eligibility)
	if err != nil {
		eligJSON = []byte("{}")
	}
	return r.db.QueryRow(ctx,
		`INSERT INTO challenges (title, description, category, difficulty, challenge_type,
		                         points, eligibility, starts_at, ends_at, is_active, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id, created_at`,
		c.Title, c.Description, c.Category, c.Difficulty, c.Type,
		c.Points, eligJSON, c.StartsAt, c.EndsAt, c.IsActive, c.CreatedBy,
	).Scan(&c.ID, &c.CreatedAt)
}

func (r *ChallengeRepository) GetByID(ctx context.Context, id int64) (*domain.Challenge, error) {
	return scanChallenge(r.db.QueryRow(ctx,
		`SELECT `+challengeColumns+` FROM challenges WHERE id = $1`, id))
}

// GetByIDForUpdate reads a challenge with a row lock inside a transaction
func (r *ChallengeRepository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Challenge, error) {
	return scanChallenge(tx.QueryRow(ctx,
		`SELECT `+challengeColumns+` FROM challenges WHERE id = $1 FOR UPDATE`, id))
}

// ListActive returns active challenges, newest first
func (r *ChallengeRepository) ListActive(ctx context.Context, limit int) ([]*domain.Challenge, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+challengeColumns+`
		 FROM challenges
		 WHERE is_active = TRUE
		 ORDER BY created_at DESC, id DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.Challenge
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// SetActive toggles a challenge on or off
func (r *ChallengeRepository) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE challenges SET is_active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanParticipant(row pgx.Row) (*domain.Participant, error) {
	var (
		p       domain.Participant
		subsRaw []byte
	)
	err := row.Scan(
		&p.ID, &p.ChallengeID, &p.UserID, &p.Status,
		&p.JoinedAt, &p.CompletedAt, &subsRaw, &p.PointsEarned,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if len(subsRaw) > 0 {
		_ = json.Unmarshal(subsRaw, &p.Submissions)
	}
	return &p, nil
}

const participantColumns = `id, challenge_id, user_id, status, joined_at, completed_at, submissions, points_earned`

// GetParticipant returns the entry for one (challenge, account) pair
func (r *ChallengeRepository) GetParticipant(ctx context.Context, challengeID, userID int64) (*domain.Participant, error) {
	return scanParticipant(r.db.QueryRow(ctx,
		`SELECT `+participantColumns+`
		 FROM challenge_participants
		 WHERE challenge_id = $1 AND user_id = $2`,
		challengeID, userID))
}

// GetParticipantForUpdate locks the entry row inside a transaction so the
// pending to completed transition cannot race with itself.
func (r *ChallengeRepository) GetParticipantForUpdate(ctx context.Context, tx pgx.Tx, challengeID, userID int64) (*domain.Participant, error) {
	return scanParticipant(tx.QueryRow(ctx,
		`SELECT `+participantColumns+`
		 FROM challenge_participants
		 WHERE challenge_id = $1 AND user_id = $2
		 FOR UPDATE`,
		challengeID, userID))
}

// AddParticipantWithTx appends a pending entry and bumps the counter.
// The unique index on (challenge_id, user_id) backs the one-entry rule.
func (r *ChallengeRepository) AddParticipantWithTx(ctx context.Context, tx pgx.Tx, p *domain.Participant) error {
	err := tx.QueryRow(ctx,
		`INSERT INTO challenge_participants (challenge_id, user_id, status)
		 VALUES ($1, $2, $3)
		 RETURNING id, joined_at`,
		p.ChallengeID, p.UserID, p.Status,
	).Scan(&p.ID, &p.JoinedAt)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		`UPDATE challenges SET total_participants = total_participants + 1 WHERE id = $1`,
		p.ChallengeID)
	return err
}

// CompleteParticipantWithTx records the completion and bumps the counter
func (r *ChallengeRepository) CompleteParticipantWithTx(ctx context.Context, tx pgx.Tx, p *domain.Participant) error {
	subsJSON, err := json.Marshal(p.Submissions)
	if err != nil {
		subsJSON = []byte("[]")
	}

	_, err = tx.Exec(ctx,
		`UPDATE challenge_participants
		 SET status = $1, completed_at = $2, submissions = $3, points_earned = $4
		 WHERE id = $5`,
		p.Status, p.CompletedAt, subsJSON, p.PointsEarned, p.ID,
	)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		`UPDATE challenges SET completed_participants = completed_participants + 1 WHERE id = $1`,
		p.ChallengeID)
	return err
}

// ListByUser returns an account's entries joined with their challenges
func (r *ChallengeRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.ParticipantWithChallenge, error) {
	rows, err := r.db.Query(ctx,
		`SELECT
			p.id, p.challenge_id, p.user_id, p.status, p.joined_at, p.completed_at, p.submissions, p.points_earned,
			c.id, c.title, c.description, c.category, c.difficulty, c.challenge_type, c.points,
			c.eligibility, c.starts_at, c.ends_at, c.is_active, c.created_by,
			c.total_participants, c.completed_participants, c.created_at
		 FROM challenge_participants p
		 JOIN challenges c ON p.challenge_id = c.id
		 WHERE p.user_id = $1
		 ORDER BY p.joined_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.ParticipantWithChallenge
	for rows.Next() {
		var (
			pc      domain.ParticipantWithChallenge
			subsRaw []byte
			eligRaw []byte
		)
		err := rows.Scan(
			&pc.ID, &pc.ChallengeID, &pc.UserID, &pc.Status, &pc.JoinedAt, &pc.CompletedAt, &subsRaw, &pc.PointsEarned,
			&pc.Challenge.ID, &pc.Challenge.Title, &pc.Challenge.Description, &pc.Challenge.Category,
			&pc.Challenge.Difficulty, &pc.Challenge.Type, &pc.Challenge.Points,
			&eligRaw, &pc.Challenge.StartsAt, &pc.Challenge.EndsAt, &pc.Challenge.IsActive, &pc.Challenge.CreatedBy,
			&pc.Challenge.TotalParticipants, &pc.Challenge.CompletedParticipants, &pc.Challenge.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		if len(subsRaw) > 0 {
			_ = json.Unmarshal(subsRaw, &pc.Submissions)
		}
		if len(eligRaw) > 0 {
			_ = json.Unmarshal(eligRaw, &pc.Challenge.Eligibility)
		}
		result = append(result, &pc)
	}
	return result, rows.Err()
}

// CountCompletedByUser returns how many challenges an account has completed
func (r *ChallengeRepository) CountCompletedByUser(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM challenge_participants WHERE user_id = $1 AND status = 'completed'`,
		userID,
	).Scan(&n)
	return n, err
}

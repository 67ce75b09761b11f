package repository

import (
	"context"
	"errors"
	"time"

	"farmhub/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("not found")

const userColumns = `id, first_name, last_name, email, COALESCE(phone, ''), password_hash, role,
	is_email_verified, is_phone_verified, otp_code, otp_channel, otp_expires_at,
	level, experience, points, streak, balance,
	farming_experience, state, is_active, last_login_at, created_at`

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Phone, &u.PasswordHash, &u.Role,
		&u.IsEmailVerified, &u.IsPhoneVerified, &u.OTPCode, &u.OTPChannel, &u.OTPExpiresAt,
		&u.Level, &u.Experience, &u.Points, &u.Streak, &u.Balance,
		&u.FarmingExperience, &u.State, &u.IsActive, &u.LastLoginAt, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	var phone interface{}
	if u.Phone != "" {
		phone = u.Phone
	}
	return r.db.QueryRow(ctx,
		`INSERT INTO users (first_name, last_name, email, phone, password_hash, role, farming_experience, state)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, level, is_active, created_at`,
		u.FirstName, u.LastName, u.Email, phone, u.PasswordHash, u.Role, u.FarmingExperience, u.State,
	).Scan(&u.ID, &u.Level, &u.IsActive, &u.CreatedAt)
}

// UpdateProfile updates the mutable identity fields
func (r *UserRepository) UpdateProfile(ctx context.Context, id int64, firstName, lastName, farmingExperience, state string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users
		 SET first_name = $1, last_name = $2, farming_experience = $3, state = $4
		 WHERE id = $5 AND is_active = TRUE`,
		firstName, lastName, farmingExperience, state, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Deactivate soft-deletes an account. Accounts are never hard-deleted.
func (r *UserRepository) Deactivate(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetOTP stores a fresh code bound to the channel it was issued for,
// overwriting any prior unconsumed one
func (r *UserRepository) SetOTP(ctx context.Context, id int64, code, channel string, expiresAt time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET otp_code = $1, otp_channel = $2, otp_expires_at = $3 WHERE id = $4`,
		code, channel, expiresAt, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearOTPWithTx removes the stored code so further verify calls fail.
// Runs inside the caller's transaction so the code is consumed only if
// the whole verification commits.
func (r *UserRepository) ClearOTPWithTx(ctx context.Context, tx pgx.Tx, id int64) error {
	_, err := tx.Exec(ctx,
		`UPDATE users SET otp_code = NULL, otp_channel = NULL, otp_expires_at = NULL WHERE id = $1`, id)
	return err
}

// MarkVerifiedWithTx flips a verification flag. Returns true when the
// flag actually changed, so callers can award the bonus exactly once.
func (r *UserRepository) MarkVerifiedWithTx(ctx context.Context, tx pgx.Tx, id int64, channel string) (bool, error) {
	column := "is_email_verified"
	if channel == "phone" {
		column = "is_phone_verified"
	}
	tag, err := tx.Exec(ctx,
		`UPDATE users SET `+column+` = TRUE WHERE id = $1 AND `+column+` = FALSE`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// RecordLogin stores the login time and the recomputed streak
func (r *UserRepository) RecordLogin(ctx context.Context, id int64, streak int, at time.Time) error {
	_, err := r.db.Exec(ctx,
		`UPDATE users SET streak = $1, last_login_at = $2 WHERE id = $3`,
		streak, at, id,
	)
	return err
}

// LeaderboardEntry is one row of the points leaderboard
type LeaderboardEntry struct {
	Rank      int    `json:"rank"`
	UserID    int64  `json:"user_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Points    int64  `json:"points"`
	Level     int    `json:"level"`
}

// GetTopByPoints returns active accounts ordered by points desc
func (r *UserRepository) GetTopByPoints(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, first_name, last_name, points, level
		 FROM users
		 WHERE is_active = TRUE
		 ORDER BY points DESC, id
		 LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []LeaderboardEntry
	rank := 1
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.FirstName, &e.LastName, &e.Points, &e.Level); err != nil {
			return nil, err
		}
		e.Rank = rank
		res = append(res, e)
		rank++
	}
	return res, rows.Err()
}

// GetRank returns an account's rank: the count of active accounts with
// strictly greater points, plus one.
func (r *UserRepository) GetRank(ctx context.Context, userID int64) (int, int64, error) {
	var rank int
	var points int64
	err := r.db.QueryRow(ctx,
		`SELECT (SELECT COUNT(*) FROM users o
		         WHERE o.is_active = TRUE AND o.points > u.points) + 1,
		        u.points
		 FROM users u
		 WHERE u.id = $1`, userID,
	).Scan(&rank, &points)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, ErrNotFound
		}
		return 0, 0, err
	}
	return rank, points, nil
}

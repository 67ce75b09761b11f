package repository

import (
	"context"

	"farmhub/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type BadgeRepository struct {
	db *pgxpool.Pool
}

func NewBadgeRepository(db *pgxpool.Pool) *BadgeRepository {
	return &BadgeRepository{db: db}
}

// Award records a badge for an account. The unique index on
// (user_id, badge_code) keeps awards to one per badge; a repeat award
// is a no-op and reports false.
func (r *BadgeRepository) Award(ctx context.Context, userID int64, badgeCode string) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`INSERT INTO user_badges (user_id, badge_code)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id, badge_code) DO NOTHING`,
		userID, badgeCode,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListByUser returns an account's badges, newest first
func (r *BadgeRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.UserBadge, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, badge_code, awarded_at
		 FROM user_badges
		 WHERE user_id = $1
		 ORDER BY awarded_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.UserBadge
	for rows.Next() {
		var b domain.UserBadge
		if err := rows.Scan(&b.ID, &b.UserID, &b.BadgeCode, &b.AwardedAt); err != nil {
			return nil, err
		}
		result = append(result, &b)
	}
	return result, rows.Err()
}

package service

import (
	"context"

	"farmhub/internal/domain"
	"farmhub/internal/logger"
	"farmhub/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

// BadgeService checks threshold badges after progress updates and awards
// event badges on explicit triggers.
type BadgeService struct {
	badgeRepo     *repository.BadgeRepository
	challengeRepo *repository.ChallengeRepository
	db            *pgxpool.Pool
}

func NewBadgeService(db *pgxpool.Pool) *BadgeService {
	return &BadgeService{
		badgeRepo:     repository.NewBadgeRepository(db),
		challengeRepo: repository.NewChallengeRepository(db),
		db:            db,
	}
}

// Sweep checks every threshold badge against the account's current stats.
// Failures are logged and swallowed; a missed badge is picked up by the
// next sweep, so no caller treats this as fatal.
func (s *BadgeService) Sweep(ctx context.Context, userID int64) {
	var progress domain.BadgeProgress
	var level int
	err := s.db.QueryRow(ctx,
		`SELECT points, level, streak FROM users WHERE id = $1`, userID,
	).Scan(&progress.Points, &level, &progress.Streak)
	if err != nil {
		logger.Warn("badge sweep: load user failed", "user_id", userID, "error", err)
		return
	}
	progress.Level = int64(level)

	completed, err := s.challengeRepo.CountCompletedByUser(ctx, userID)
	if err != nil {
		logger.Warn("badge sweep: count challenges failed", "user_id", userID, "error", err)
		return
	}
	progress.ChallengesCompleted = completed

	for _, badge := range domain.Badges {
		if !badge.Meets(progress) {
			continue
		}
		awarded, err := s.badgeRepo.Award(ctx, userID, badge.Code)
		if err != nil {
			logger.Warn("badge sweep: award failed", "user_id", userID, "badge", badge.Code, "error", err)
			continue
		}
		if awarded {
			logger.Info("badge awarded", "user_id", userID, "badge", badge.Code)
		}
	}
}

// AwardEvent grants an event badge (signup and the like) directly
func (s *BadgeService) AwardEvent(ctx context.Context, userID int64, code string) {
	if _, ok := domain.BadgeByCode(code); !ok {
		logger.Warn("unknown badge code", "badge", code)
		return
	}
	awarded, err := s.badgeRepo.Award(ctx, userID, code)
	if err != nil {
		logger.Warn("event badge award failed", "user_id", userID, "badge", code, "error", err)
		return
	}
	if awarded {
		logger.Info("badge awarded", "user_id", userID, "badge", code)
	}
}

// ListForUser returns the account's earned badges with their definitions
func (s *BadgeService) ListForUser(ctx context.Context, userID int64) ([]map[string]interface{}, error) {
	earned, err := s.badgeRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := make([]map[string]interface{}, 0, len(earned))
	for _, ub := range earned {
		entry := map[string]interface{}{
			"code":       ub.BadgeCode,
			"awarded_at": ub.AwardedAt,
		}
		if def, ok := domain.BadgeByCode(ub.BadgeCode); ok {
			entry["name"] = def.Name
			entry["description"] = def.Description
			entry["rarity"] = def.Rarity
		}
		result = append(result, entry)
	}
	return result, nil
}

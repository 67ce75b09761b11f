package handlers

import (
	"farmhub/internal/notifier"
	"farmhub/internal/repository"
	"farmhub/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
)

// HandlerConfig holds gamification tunables passed down from config
type HandlerConfig struct {
	VerificationBonus int64
}

type Handler struct {
	DB               *pgxpool.Pool
	UserRepo         *repository.UserRepository
	PostRepo         *repository.PostRepository
	BadgeService     *service.BadgeService
	LedgerService    *service.LedgerService
	OTPService       *service.OTPService
	ChallengeService *service.ChallengeService
}

func NewHandler(db *pgxpool.Pool, n notifier.Notifier, cfg HandlerConfig) *Handler {
	badges := service.NewBadgeService(db)
	ledger := service.NewLedgerService(db, badges)
	return &Handler{
		DB:               db,
		UserRepo:         repository.NewUserRepository(db),
		PostRepo:         repository.NewPostRepository(db),
		BadgeService:     badges,
		LedgerService:    ledger,
		OTPService:       service.NewOTPService(db, n, ledger, badges, cfg.VerificationBonus),
		ChallengeService: service.NewChallengeService(db, ledger, badges, n),
	}
}

// getUserID extracts user_id from the Gin context
func getUserID(c interface{ Get(string) (any, bool) }) (int64, bool) {
	uidVal, ok := c.Get("user_id")
	if !ok {
		return 0, false
	}
	switch v := uidVal.(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

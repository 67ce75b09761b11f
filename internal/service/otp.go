package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"farmhub/internal/domain"
	"farmhub/internal/logger"
	"farmhub/internal/notifier"
	"farmhub/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OTPTTL - how long a generated code stays valid
const OTPTTL = 10 * time.Minute

var (
	// ErrInvalidOTP covers both a wrong code and an expired one; the
	// caller is never told which it was.
	ErrInvalidOTP         = errors.New("invalid or expired code")
	ErrChannelUnavailable = errors.New("no contact address for this channel")
	ErrUnknownChannel     = errors.New("unknown verification channel")
)

// OTPService generates, verifies and clears one-time verification codes
type OTPService struct {
	db       *pgxpool.Pool
	userRepo *repository.UserRepository
	notifier notifier.Notifier
	ledger   *LedgerService
	badges   *BadgeService
	bonus    int64
}

func NewOTPService(db *pgxpool.Pool, n notifier.Notifier, ledger *LedgerService, badges *BadgeService, bonus int64) *OTPService {
	return &OTPService{
		db:       db,
		userRepo: repository.NewUserRepository(db),
		notifier: n,
		ledger:   ledger,
		badges:   badges,
		bonus:    bonus,
	}
}

// generateCode returns a 6-digit numeric code in [100000, 999999]
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// Request stores a fresh code on the account, overwriting any prior
// unconsumed one, and dispatches it. Dispatch failure is logged and does
// not undo the stored code.
func (s *OTPService) Request(ctx context.Context, userID int64, channel string) error {
	if channel != "email" && channel != "phone" {
		return ErrUnknownChannel
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	to := user.Email
	if channel == "phone" {
		if user.Phone == "" {
			return ErrChannelUnavailable
		}
		to = user.Phone
	}

	code, err := generateCode()
	if err != nil {
		return err
	}

	if err := s.userRepo.SetOTP(ctx, userID, code, channel, time.Now().Add(OTPTTL)); err != nil {
		return err
	}

	go func(to, name, code string) {
		if err := s.notifier.SendOTP(to, name, code); err != nil {
			logger.Error("otp dispatch failed", "user_id", userID, "channel", channel, "error", err)
		}
	}(to, user.FirstName, code)

	return nil
}

// Verify checks the candidate code against the channel it was issued
// for, then consumes it, flips the channel's verified flag and awards
// the one-time verification bonus, all in one database transaction: a
// failure after the match leaves the code intact for a retry.
func (s *OTPService) Verify(ctx context.Context, userID int64, channel, candidate string) error {
	if channel != "email" && channel != "phone" {
		return ErrUnknownChannel
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if !user.MatchesOTP(candidate, channel, time.Now()) {
		return ErrInvalidOTP
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.userRepo.ClearOTPWithTx(ctx, tx, userID); err != nil {
		return err
	}

	changed, err := s.userRepo.MarkVerifiedWithTx(ctx, tx, userID, channel)
	if err != nil {
		return err
	}

	if changed && s.bonus > 0 {
		description := "Verified email"
		if channel == "phone" {
			description = "Verified phone"
		}
		if _, err := s.ledger.AwardWithTx(ctx, tx, userID, s.bonus, description, domain.TransactionEarned); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	if changed && s.bonus > 0 {
		s.badges.Sweep(ctx, userID)
	}
	return nil
}

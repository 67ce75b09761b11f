package service

import (
	"context"
	"errors"

	"farmhub/internal/domain"
	"farmhub/internal/logger"
	"farmhub/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrUserNotFound      = errors.New("user not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// LedgerService owns every mutation of points, experience, level and the
// wallet. All point-awarding paths converge here.
type LedgerService struct {
	db              *pgxpool.Pool
	transactionRepo *repository.TransactionRepository
	badges          *BadgeService
}

// AwardResult is the account's gamification state after a ledger operation
type AwardResult struct {
	Points     int64 `json:"points"`
	Experience int64 `json:"experience"`
	Level      int   `json:"level"`
	Balance    int64 `json:"balance"`
}

func NewLedgerService(db *pgxpool.Pool, badges *BadgeService) *LedgerService {
	return &LedgerService{
		db:              db,
		transactionRepo: repository.NewTransactionRepository(db),
		badges:          badges,
	}
}

// AwardPoints credits amount to points, experience and the wallet balance
// and appends an earned transaction, all in one database transaction.
// Level is recomputed from the new experience and only ever raised.
func (s *LedgerService) AwardPoints(ctx context.Context, userID int64, amount int64, description string) (*AwardResult, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	res, err := s.AwardWithTx(ctx, tx, userID, amount, description, domain.TransactionEarned)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.badges.Sweep(ctx, userID)
	return res, nil
}

// AwardWithTx credits points within an existing transaction. Callers that
// complete a challenge use this so the award commits with the transition.
// The badge sweep is the caller's duty after commit.
func (s *LedgerService) AwardWithTx(ctx context.Context, tx pgx.Tx, userID int64, amount int64, description string, kind domain.TransactionKind) (*AwardResult, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var res AwardResult
	err := tx.QueryRow(ctx,
		`UPDATE users
		 SET points = points + $1,
		     experience = experience + $1,
		     level = GREATEST(level, (experience + $1) / $2 + 1),
		     balance = balance + $1
		 WHERE id = $3
		 RETURNING points, experience, level, balance`,
		amount, int64(domain.ExperiencePerLevel), userID,
	).Scan(&res.Points, &res.Experience, &res.Level, &res.Balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	transaction := &domain.Transaction{
		UserID:      userID,
		Kind:        kind,
		Amount:      amount,
		Description: description,
	}
	if err = s.transactionRepo.CreateWithTx(ctx, tx, transaction); err != nil {
		return nil, err
	}

	return &res, nil
}

// SpendPoints debits the wallet balance and appends a spent transaction
// with a negative amount, so the balance stays the sum of the log.
// Points and experience are untouched; they never decrease.
func (s *LedgerService) SpendPoints(ctx context.Context, userID int64, amount int64, description string) (*AwardResult, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var res AwardResult
	err = tx.QueryRow(ctx,
		`UPDATE users
		 SET balance = balance - $1
		 WHERE id = $2 AND balance >= $1
		 RETURNING points, experience, level, balance`,
		amount, userID,
	).Scan(&res.Points, &res.Experience, &res.Level, &res.Balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			var exists bool
			_ = tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists)
			if !exists {
				return nil, ErrUserNotFound
			}
			return nil, ErrInsufficientFunds
		}
		return nil, err
	}

	transaction := &domain.Transaction{
		UserID:      userID,
		Kind:        domain.TransactionSpent,
		Amount:      -amount,
		Description: description,
	}
	if err = s.transactionRepo.CreateWithTx(ctx, tx, transaction); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &res, nil
}

// GetTransactionHistory returns the account's wallet log
func (s *LedgerService) GetTransactionHistory(ctx context.Context, userID int64, limit int) ([]*domain.Transaction, error) {
	return s.transactionRepo.GetByUserID(ctx, userID, limit)
}

// VerifyBalance recomputes one account's balance from the transaction
// log and compares it with the stored column.
func (s *LedgerService) VerifyBalance(ctx context.Context, userID int64) (bool, error) {
	sum, err := s.transactionRepo.SumByUserID(ctx, userID)
	if err != nil {
		return false, err
	}

	var balance int64
	err = s.db.QueryRow(ctx, `SELECT balance FROM users WHERE id = $1`, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrUserNotFound
		}
		return false, err
	}

	if sum != balance {
		logger.Error("wallet balance diverged from transaction log",
			"user_id", userID, "balance", balance, "sum", sum)
		return false, nil
	}
	return true, nil
}

// AuditWallets counts accounts whose stored balance disagrees with the
// signed sum of their transaction log. The readiness probe reports a
// non-zero count as unhealthy.
func (s *LedgerService) AuditWallets(ctx context.Context) (int64, error) {
	var diverged int64
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*)
		 FROM users u
		 WHERE u.balance <> COALESCE(
		     (SELECT SUM(t.amount) FROM wallet_transactions t WHERE t.user_id = u.id), 0)`,
	).Scan(&diverged)
	if err != nil {
		return 0, err
	}
	if diverged > 0 {
		logger.Error("wallet audit found diverged balances", "count", diverged)
	}
	return diverged, nil
}

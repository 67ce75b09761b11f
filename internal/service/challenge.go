package service

import (
	"context"
	"errors"
	"time"

	"farmhub/internal/domain"
	"farmhub/internal/logger"
	"farmhub/internal/notifier"
	"farmhub/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrChallengeNotFound = errors.New("challenge not found")
	ErrChallengeInactive = errors.New("challenge is not active")
	ErrAlreadyJoined     = errors.New("already joined this challenge")
	ErrNotEligible       = errors.New("not eligible for this challenge")
	ErrNotParticipant    = errors.New("not a participant of this challenge")
	ErrAlreadyCompleted  = errors.New("challenge already completed")
	ErrNotAdmin          = errors.New("admin role required")
)

// ChallengeService enforces the join/submit state machine and hands the
// reward to the ledger when an entry completes.
type ChallengeService struct {
	db            *pgxpool.Pool
	challengeRepo *repository.ChallengeRepository
	userRepo      *repository.UserRepository
	ledger        *LedgerService
	badges        *BadgeService
	notifier      notifier.Notifier
}

func NewChallengeService(db *pgxpool.Pool, ledger *LedgerService, badges *BadgeService, n notifier.Notifier) *ChallengeService {
	return &ChallengeService{
		db:            db,
		challengeRepo: repository.NewChallengeRepository(db),
		userRepo:      repository.NewUserRepository(db),
		ledger:        ledger,
		badges:        badges,
		notifier:      n,
	}
}

// Create stores a new challenge. Only admin accounts may create them.
func (s *ChallengeService) Create(ctx context.Context, creatorID int64, c *domain.Challenge) error {
	creator, err := s.userRepo.GetByID(ctx, creatorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if creator.Role != domain.RoleAdmin {
		return ErrNotAdmin
	}

	if c.Points <= 0 {
		return ErrInvalidAmount
	}
	c.CreatedBy = creatorID
	return s.challengeRepo.Create(ctx, c)
}

// Join adds a pending participant entry for the account. The challenge
// row is locked for the duration so the participant counter cannot race.
// Check order: existing entry, then active flag, then eligibility.
func (s *ChallengeService) Join(ctx context.Context, challengeID, userID int64) (*domain.Participant, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	challenge, err := s.challengeRepo.GetByIDForUpdate(ctx, tx, challengeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrChallengeNotFound
		}
		return nil, err
	}

	var exists bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM challenge_participants WHERE challenge_id = $1 AND user_id = $2)`,
		challengeID, userID,
	).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyJoined
	}

	if !challenge.IsActive {
		return nil, ErrChallengeInactive
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !challenge.Eligibility.Allows(user) {
		return nil, ErrNotEligible
	}

	p := &domain.Participant{
		ChallengeID: challengeID,
		UserID:      userID,
		Status:      domain.ParticipantPending,
	}
	if err := s.challengeRepo.AddParticipantWithTx(ctx, tx, p); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// SubmitResult reports the completed entry and the resulting ledger state
type SubmitResult struct {
	Participant  *domain.Participant `json:"participant"`
	PointsEarned int64               `json:"points_earned"`
	Ledger       *AwardResult        `json:"ledger"`
	SuccessRate  float64             `json:"success_rate"`
}

// Submit completes the account's entry and awards the challenge reward.
// The participant row is locked so two concurrent submits cannot both
// pass the completed check; transition and award commit together.
func (s *ChallengeService) Submit(ctx context.Context, challengeID, userID int64, submissions []string) (*SubmitResult, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	challenge, err := s.challengeRepo.GetByIDForUpdate(ctx, tx, challengeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrChallengeNotFound
		}
		return nil, err
	}

	p, err := s.challengeRepo.GetParticipantForUpdate(ctx, tx, challengeID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotParticipant
		}
		return nil, err
	}
	if !p.CanComplete() {
		return nil, ErrAlreadyCompleted
	}

	now := time.Now()
	p.Status = domain.ParticipantCompleted
	p.CompletedAt = &now
	p.Submissions = submissions
	p.PointsEarned = challenge.Points

	if err := s.challengeRepo.CompleteParticipantWithTx(ctx, tx, p); err != nil {
		return nil, err
	}

	ledgerRes, err := s.ledger.AwardWithTx(ctx, tx, userID, challenge.Points,
		"Completed challenge: "+challenge.Title, domain.TransactionEarned)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.badges.Sweep(ctx, userID)
	s.notifyAward(userID, challenge.Title, challenge.Points)

	completed := challenge.CompletedParticipants + 1
	rate := float64(0)
	if challenge.TotalParticipants > 0 {
		rate = float64(completed) / float64(challenge.TotalParticipants) * 100
	}

	return &SubmitResult{
		Participant:  p,
		PointsEarned: p.PointsEarned,
		Ledger:       ledgerRes,
		SuccessRate:  rate,
	}, nil
}

// notifyAward dispatches the completion notice. Fire-and-forget; a failed
// send never unwinds the award.
func (s *ChallengeService) notifyAward(userID int64, title string, points int64) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			logger.Warn("award notice: load user failed", "user_id", userID, "error", err)
			return
		}
		if err := s.notifier.SendChallengeAward(user.Email, user.FirstName, title, points); err != nil {
			logger.Error("award notice dispatch failed", "user_id", userID, "error", err)
		}
	}()
}

// List returns active challenges
func (s *ChallengeService) List(ctx context.Context, limit int) ([]*domain.Challenge, error) {
	return s.challengeRepo.ListActive(ctx, limit)
}

// Get returns one challenge
func (s *ChallengeService) Get(ctx context.Context, id int64) (*domain.Challenge, error) {
	c, err := s.challengeRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrChallengeNotFound
		}
		return nil, err
	}
	return c, nil
}

// ListForUser returns the account's entries with challenge details
func (s *ChallengeService) ListForUser(ctx context.Context, userID int64) ([]*domain.ParticipantWithChallenge, error) {
	return s.challengeRepo.ListByUser(ctx, userID)
}

// Participation returns the account's entry for one challenge, without
// touching any state.
func (s *ChallengeService) Participation(ctx context.Context, challengeID, userID int64) (*domain.Participant, error) {
	p, err := s.challengeRepo.GetParticipant(ctx, challengeID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotParticipant
		}
		return nil, err
	}
	return p, nil
}

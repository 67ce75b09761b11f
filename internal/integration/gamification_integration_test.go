package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"farmhub/internal/domain"
	"farmhub/internal/notifier"
	"farmhub/internal/repository"
	"farmhub/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
)

func applyMigrations(t *testing.T, db *pgxpool.Pool) {
	t.Helper()
	migDir := filepath.Join("..", "..", "internal", "migrations")
	files, err := os.ReadDir(migDir)
	if err != nil {
		t.Fatalf("read migrations: %v", err)
	}
	for _, f := range files {
		b, err := os.ReadFile(filepath.Join(migDir, f.Name()))
		if err != nil {
			t.Fatalf("read file: %v", err)
		}
		if _, err := db.Exec(context.Background(), string(b)); err != nil {
			t.Fatalf("apply migration %s: %v", f.Name(), err)
		}
	}
}

func connectTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	db, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(db.Close)
	applyMigrations(t, db)
	return db
}

func createTestUser(t *testing.T, db *pgxpool.Pool, role domain.Role) *domain.User {
	t.Helper()
	u := &domain.User{
		FirstName:         "Test",
		LastName:          "Farmer",
		Email:             fmt.Sprintf("test-%d@example.com", time.Now().UnixNano()),
		PasswordHash:      "x",
		Role:              role,
		FarmingExperience: "intermediate",
		State:             "Punjab",
	}
	if err := repository.NewUserRepository(db).Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func newServices(db *pgxpool.Pool) (*service.LedgerService, *service.ChallengeService) {
	badges := service.NewBadgeService(db)
	ledger := service.NewLedgerService(db, badges)
	challenges := service.NewChallengeService(db, ledger, badges, notifier.NewLogNotifier())
	return ledger, challenges
}

func TestAwardPoints_LevelAndWallet(t *testing.T) {
	db := connectTestDB(t)
	ledger, _ := newServices(db)
	ctx := context.Background()

	u := createTestUser(t, db, domain.RoleFarmer)

	res, err := ledger.AwardPoints(ctx, u.ID, 1000, "test award")
	if err != nil {
		t.Fatalf("AwardPoints: %v", err)
	}
	if res.Points != 1000 || res.Experience != 1000 {
		t.Fatalf("points/experience = %d/%d; want 1000/1000", res.Points, res.Experience)
	}
	if res.Level != 2 {
		t.Fatalf("level = %d; want 2", res.Level)
	}
	if res.Balance != 1000 {
		t.Fatalf("balance = %d; want 1000", res.Balance)
	}

	txs, err := ledger.GetTransactionHistory(ctx, u.ID, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(txs))
	}
	if txs[0].Kind != domain.TransactionEarned || txs[0].Amount != 1000 {
		t.Fatalf("transaction = %s/%d; want earned/1000", txs[0].Kind, txs[0].Amount)
	}

	ok, err := ledger.VerifyBalance(ctx, u.ID)
	if err != nil || !ok {
		t.Fatalf("balance does not equal transaction sum (ok=%v err=%v)", ok, err)
	}

	diverged, err := ledger.AuditWallets(ctx)
	if err != nil {
		t.Fatalf("AuditWallets: %v", err)
	}
	if diverged != 0 {
		t.Fatalf("wallet audit found %d diverged balances; want 0", diverged)
	}
}

func TestBadgeAwardedOncePerCode(t *testing.T) {
	db := connectTestDB(t)
	ledger, _ := newServices(db)
	ctx := context.Background()
	u := createTestUser(t, db, domain.RoleFarmer)

	// two awards mean two sweeps, both of which see FIRST_POINTS as met
	if _, err := ledger.AwardPoints(ctx, u.ID, 10, "first"); err != nil {
		t.Fatalf("AwardPoints: %v", err)
	}
	if _, err := ledger.AwardPoints(ctx, u.ID, 10, "second"); err != nil {
		t.Fatalf("AwardPoints: %v", err)
	}

	var count int
	err := db.QueryRow(ctx,
		`SELECT COUNT(*) FROM user_badges WHERE user_id = $1 AND badge_code = 'FIRST_POINTS'`,
		u.ID,
	).Scan(&count)
	if err != nil {
		t.Fatalf("count badges: %v", err)
	}
	if count != 1 {
		t.Fatalf("FIRST_POINTS rows = %d; want exactly 1", count)
	}
}

func TestAwardPoints_RejectsNonPositive(t *testing.T) {
	db := connectTestDB(t)
	ledger, _ := newServices(db)
	u := createTestUser(t, db, domain.RoleFarmer)

	for _, amount := range []int64{0, -10} {
		if _, err := ledger.AwardPoints(context.Background(), u.ID, amount, "bad"); err != service.ErrInvalidAmount {
			t.Fatalf("AwardPoints(%d) err = %v; want ErrInvalidAmount", amount, err)
		}
	}
}

func TestSpendPoints_KeepsLedgerInvariant(t *testing.T) {
	db := connectTestDB(t)
	ledger, _ := newServices(db)
	ctx := context.Background()
	u := createTestUser(t, db, domain.RoleFarmer)

	if _, err := ledger.AwardPoints(ctx, u.ID, 500, "seed"); err != nil {
		t.Fatalf("AwardPoints: %v", err)
	}

	res, err := ledger.SpendPoints(ctx, u.ID, 200, "shop purchase")
	if err != nil {
		t.Fatalf("SpendPoints: %v", err)
	}
	if res.Balance != 300 {
		t.Fatalf("balance = %d; want 300", res.Balance)
	}
	if res.Points != 500 {
		t.Fatalf("points = %d; want 500 (spending must not touch points)", res.Points)
	}

	if _, err := ledger.SpendPoints(ctx, u.ID, 10000, "too much"); err != service.ErrInsufficientFunds {
		t.Fatalf("overspend err = %v; want ErrInsufficientFunds", err)
	}

	ok, err := ledger.VerifyBalance(ctx, u.ID)
	if err != nil || !ok {
		t.Fatalf("balance does not equal transaction sum (ok=%v err=%v)", ok, err)
	}
}

func createTestChallenge(t *testing.T, db *pgxpool.Pool, svc *service.ChallengeService, admin *domain.User, points int64, elig domain.Eligibility) *domain.Challenge {
	t.Helper()
	c := &domain.Challenge{
		Title:       "Soil health check",
		Description: "Submit a soil test report",
		Category:    "soil",
		Difficulty:  "easy",
		Type:        domain.ChallengeTypeWeekly,
		Points:      points,
		Eligibility: elig,
		StartsAt:    time.Now(),
		EndsAt:      time.Now().AddDate(0, 0, 7),
		IsActive:    true,
	}
	if err := svc.Create(context.Background(), admin.ID, c); err != nil {
		t.Fatalf("create challenge: %v", err)
	}
	return c
}

func TestChallengeJoinSubmitFlow(t *testing.T) {
	db := connectTestDB(t)
	ledger, challenges := newServices(db)
	ctx := context.Background()

	admin := createTestUser(t, db, domain.RoleAdmin)
	farmer := createTestUser(t, db, domain.RoleFarmer)
	c := createTestChallenge(t, db, challenges, admin, 100, domain.Eligibility{})

	p, err := challenges.Join(ctx, c.ID, farmer.ID)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if p.Status != domain.ParticipantPending {
		t.Fatalf("status = %s; want pending", p.Status)
	}

	entry, err := challenges.Participation(ctx, c.ID, farmer.ID)
	if err != nil {
		t.Fatalf("Participation: %v", err)
	}
	if entry.Status != domain.ParticipantPending {
		t.Fatalf("participation status = %s; want pending", entry.Status)
	}

	// second join must be rejected and must not bump the counter
	if _, err := challenges.Join(ctx, c.ID, farmer.ID); err != service.ErrAlreadyJoined {
		t.Fatalf("second Join err = %v; want ErrAlreadyJoined", err)
	}
	got, err := challenges.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.TotalParticipants != 1 {
		t.Fatalf("total participants = %d; want 1", got.TotalParticipants)
	}

	res, err := challenges.Submit(ctx, c.ID, farmer.ID, []string{"report.pdf"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Participant.Status != domain.ParticipantCompleted {
		t.Fatalf("status = %s; want completed", res.Participant.Status)
	}
	if res.PointsEarned != 100 {
		t.Fatalf("points earned = %d; want 100", res.PointsEarned)
	}
	if res.Ledger.Balance != 100 {
		t.Fatalf("balance = %d; want 100", res.Ledger.Balance)
	}

	got, err = challenges.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.CompletedParticipants != 1 {
		t.Fatalf("completed participants = %d; want 1", got.CompletedParticipants)
	}

	// repeat submit must fail and leave the ledger unchanged
	if _, err := challenges.Submit(ctx, c.ID, farmer.ID, nil); err != service.ErrAlreadyCompleted {
		t.Fatalf("second Submit err = %v; want ErrAlreadyCompleted", err)
	}
	txs, err := ledger.GetTransactionHistory(ctx, farmer.ID, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("expected 1 transaction after repeat submit, got %d", len(txs))
	}
}

func TestChallengeJoinGuards(t *testing.T) {
	db := connectTestDB(t)
	_, challenges := newServices(db)
	ctx := context.Background()

	admin := createTestUser(t, db, domain.RoleAdmin)
	dealer := createTestUser(t, db, domain.RoleDealer)
	farmer := createTestUser(t, db, domain.RoleFarmer)

	restricted := createTestChallenge(t, db, challenges, admin, 50, domain.Eligibility{
		Roles: []domain.Role{domain.RoleFarmer},
	})

	if _, err := challenges.Join(ctx, restricted.ID, dealer.ID); err != service.ErrNotEligible {
		t.Fatalf("ineligible Join err = %v; want ErrNotEligible", err)
	}

	inactive := createTestChallenge(t, db, challenges, admin, 50, domain.Eligibility{})
	if err := repository.NewChallengeRepository(db).SetActive(ctx, inactive.ID, false); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	if _, err := challenges.Join(ctx, inactive.ID, farmer.ID); err != service.ErrChallengeInactive {
		t.Fatalf("inactive Join err = %v; want ErrChallengeInactive", err)
	}

	if _, err := challenges.Submit(ctx, restricted.ID, farmer.ID, nil); err != service.ErrNotParticipant {
		t.Fatalf("Submit without join err = %v; want ErrNotParticipant", err)
	}
	if _, err := challenges.Participation(ctx, restricted.ID, farmer.ID); err != service.ErrNotParticipant {
		t.Fatalf("Participation without join err = %v; want ErrNotParticipant", err)
	}

	if err := challenges.Create(ctx, farmer.ID, &domain.Challenge{Title: "x", Points: 10}); err != service.ErrNotAdmin {
		t.Fatalf("non-admin Create err = %v; want ErrNotAdmin", err)
	}
}

func TestLeaderboardRank(t *testing.T) {
	db := connectTestDB(t)
	ledger, _ := newServices(db)
	ctx := context.Background()
	users := repository.NewUserRepository(db)

	low := createTestUser(t, db, domain.RoleFarmer)
	high := createTestUser(t, db, domain.RoleFarmer)

	if _, err := ledger.AwardPoints(ctx, low.ID, 10, "seed"); err != nil {
		t.Fatalf("AwardPoints: %v", err)
	}
	if _, err := ledger.AwardPoints(ctx, high.ID, 5000, "seed"); err != nil {
		t.Fatalf("AwardPoints: %v", err)
	}

	rankHigh, _, err := users.GetRank(ctx, high.ID)
	if err != nil {
		t.Fatalf("GetRank: %v", err)
	}
	rankLow, _, err := users.GetRank(ctx, low.ID)
	if err != nil {
		t.Fatalf("GetRank: %v", err)
	}
	if rankHigh >= rankLow {
		t.Fatalf("expected higher points to rank better: high=%d low=%d", rankHigh, rankLow)
	}
}

func newOTPService(db *pgxpool.Pool, bonus int64) *service.OTPService {
	badges := service.NewBadgeService(db)
	ledger := service.NewLedgerService(db, badges)
	return service.NewOTPService(db, notifier.NewLogNotifier(), ledger, badges, bonus)
}

func TestOTPVerifyFlow(t *testing.T) {
	db := connectTestDB(t)
	ctx := context.Background()

	otp := newOTPService(db, 50)
	u := createTestUser(t, db, domain.RoleFarmer)

	if err := otp.Request(ctx, u.ID, "email"); err != nil {
		t.Fatalf("Request: %v", err)
	}

	// read the stored code directly; dispatch is fire-and-forget
	var code string
	if err := db.QueryRow(ctx, `SELECT otp_code FROM users WHERE id = $1`, u.ID).Scan(&code); err != nil {
		t.Fatalf("read code: %v", err)
	}

	if err := otp.Verify(ctx, u.ID, "email", "000000"); err != service.ErrInvalidOTP {
		t.Fatalf("wrong code err = %v; want ErrInvalidOTP", err)
	}

	if err := otp.Verify(ctx, u.ID, "email", code); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	loaded, err := repository.NewUserRepository(db).GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !loaded.IsEmailVerified {
		t.Fatalf("expected email to be verified")
	}
	if loaded.Points != 50 {
		t.Fatalf("points = %d; want 50 verification bonus", loaded.Points)
	}

	// code is cleared on success, so a replay fails
	if err := otp.Verify(ctx, u.ID, "email", code); err != service.ErrInvalidOTP {
		t.Fatalf("replay err = %v; want ErrInvalidOTP", err)
	}
}

func TestOTPCodeBoundToChannel(t *testing.T) {
	db := connectTestDB(t)
	ctx := context.Background()

	otp := newOTPService(db, 50)
	u := createTestUser(t, db, domain.RoleFarmer)

	if err := otp.Request(ctx, u.ID, "email"); err != nil {
		t.Fatalf("Request: %v", err)
	}

	var code string
	if err := db.QueryRow(ctx, `SELECT otp_code FROM users WHERE id = $1`, u.ID).Scan(&code); err != nil {
		t.Fatalf("read code: %v", err)
	}

	// a code issued over email must not verify the phone channel
	if err := otp.Verify(ctx, u.ID, "phone", code); err != service.ErrInvalidOTP {
		t.Fatalf("cross-channel Verify err = %v; want ErrInvalidOTP", err)
	}

	loaded, err := repository.NewUserRepository(db).GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if loaded.IsPhoneVerified {
		t.Fatalf("phone must not be verified by an email-issued code")
	}
	if loaded.Points != 0 {
		t.Fatalf("points = %d; want 0 (no bonus for the wrong channel)", loaded.Points)
	}

	// the code survives the failed attempt and still works on its own channel
	if err := otp.Verify(ctx, u.ID, "email", code); err != nil {
		t.Fatalf("Verify on issuing channel: %v", err)
	}
}

package http

import (
	"time"

	"farmhub/internal/config"
	"farmhub/internal/http/handlers"
	"farmhub/internal/http/middleware"
	"farmhub/internal/notifier"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

func RegisterRoutes(r *gin.Engine, db *pgxpool.Pool, n notifier.Notifier, version string, cfg *config.Config) {
	h := handlers.NewHandler(db, n, handlers.HandlerConfig{
		VerificationBonus: cfg.VerificationBonus,
	})
	healthHandler := handlers.NewHealthHandler(db, h.LedgerService, version)

	apiRateLimit := cfg.APIRateLimit
	apiRateWindow := time.Duration(cfg.APIRateWindow) * time.Second
	authRateLimit := cfg.AuthRateLimit
	authRateWindow := time.Duration(cfg.AuthRateWindow) * time.Second

	// Health checks (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.RedisRateLimit(apiRateLimit, apiRateWindow))

	// Auth and OTP: stricter window, OTP per account not per IP
	authRL := middleware.RedisRateLimit(authRateLimit, authRateWindow)
	otpRL := middleware.UserRateLimit(authRateLimit, authRateWindow)
	v1.POST("/auth/register", authRL, h.Register)
	v1.POST("/auth/login", authRL, h.Login)
	v1.POST("/auth/otp/request", middleware.JWT(), otpRL, h.RequestOTP)
	v1.POST("/auth/otp/verify", middleware.JWT(), otpRL, h.VerifyOTP)

	// Profile
	v1.GET("/me", middleware.JWT(), h.Me)
	v1.PATCH("/me", middleware.JWT(), h.UpdateMe)
	v1.DELETE("/me", middleware.JWT(), h.DeleteMe)
	v1.GET("/profile/:id", h.Profile)

	// Wallet and badges
	v1.GET("/me/wallet", middleware.JWT(), h.Wallet)
	v1.GET("/me/wallet/transactions", middleware.JWT(), h.WalletTransactions)
	v1.POST("/me/wallet/spend", middleware.JWT(), h.Spend)
	v1.GET("/me/badges", middleware.JWT(), h.MyBadges)

	// Challenges
	v1.GET("/challenges", h.ListChallenges)
	v1.GET("/challenges/:id", h.GetChallenge)
	v1.POST("/challenges", middleware.JWT(), h.CreateChallenge)
	v1.POST("/challenges/:id/join", middleware.JWT(), h.JoinChallenge)
	v1.POST("/challenges/:id/submit", middleware.JWT(), h.SubmitChallenge)
	v1.GET("/challenges/:id/me", middleware.JWT(), h.MyParticipation)
	v1.GET("/me/challenges", middleware.JWT(), h.MyChallenges)

	// Leaderboard
	v1.GET("/leaderboard", h.GetLeaderboard)
	v1.GET("/leaderboard/rank", middleware.JWT(), h.GetMyRank)

	// Community feed
	v1.GET("/posts", h.ListPosts)
	v1.POST("/posts", middleware.JWT(), h.CreatePost)
	v1.POST("/posts/:id/like", middleware.JWT(), h.LikePost)
}

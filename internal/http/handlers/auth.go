package handlers

import (
	"errors"
	"net/http"
	"time"

	"farmhub/internal/domain"
	"farmhub/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
)

type RegisterRequest struct {
	FirstName         string `json:"first_name" binding:"required"`
	LastName          string `json:"last_name"`
	Email             string `json:"email" binding:"required,email"`
	Phone             string `json:"phone"`
	Password          string `json:"password" binding:"required,min=8"`
	Role              string `json:"role"`
	FarmingExperience string `json:"farming_experience"`
	State             string `json:"state"`
}

func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	role := domain.Role(req.Role)
	if req.Role == "" {
		role = domain.RoleFarmer
	}
	if !domain.ValidRole(role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process password"})
		return
	}

	user := &domain.User{
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Email:             req.Email,
		Phone:             req.Phone,
		PasswordHash:      string(hash),
		Role:              role,
		FarmingExperience: req.FarmingExperience,
		State:             req.State,
	}

	ctx := c.Request.Context()
	if err := h.UserRepo.Create(ctx, user); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		return
	}

	h.BadgeService.AwardEvent(ctx, user.ID, "WELCOME")

	token, err := service.GenerateJWT(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token generation failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token": token,
		"user":  user,
	})
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	ctx := c.Request.Context()
	user, err := h.UserRepo.GetByEmail(ctx, req.Email)
	if err != nil || !user.IsActive {
		// wrong email, wrong password and deactivated account all look alike
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	now := time.Now()
	user.Streak = domain.NextStreak(user.Streak, user.LastLoginAt, now)
	if err := h.UserRepo.RecordLogin(ctx, user.ID, user.Streak, now); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record login"})
		return
	}
	h.BadgeService.Sweep(ctx, user.ID)

	token, err := service.GenerateJWT(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token generation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}

type OTPRequestBody struct {
	Channel string `json:"channel" binding:"required"`
}

// RequestOTP generates and dispatches a fresh verification code
func (h *Handler) RequestOTP(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req OTPRequestBody
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	err := h.OTPService.Request(c.Request.Context(), userID, req.Channel)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": "code sent"})
	case errors.Is(err, service.ErrUnknownChannel), errors.Is(err, service.ErrChannelUnavailable):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate code"})
	}
}

type OTPVerifyBody struct {
	Channel string `json:"channel" binding:"required"`
	Code    string `json:"code" binding:"required"`
}

// VerifyOTP checks a submitted code and flips the verification flag
func (h *Handler) VerifyOTP(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req OTPVerifyBody
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	err := h.OTPService.Verify(c.Request.Context(), userID, req.Channel, req.Code)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": "verified"})
	case errors.Is(err, service.ErrInvalidOTP):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired code"})
	case errors.Is(err, service.ErrUnknownChannel):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "verification failed"})
	}
}

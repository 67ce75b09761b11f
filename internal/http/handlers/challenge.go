package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"farmhub/internal/domain"
	"farmhub/internal/service"

	"github.com/gin-gonic/gin"
)

// ListChallenges returns active challenges
func (h *Handler) ListChallenges(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	challenges, err := h.ChallengeService.List(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get challenges"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"challenges": challenges})
}

// GetChallenge returns one challenge with its completion rate
func (h *Handler) GetChallenge(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid challenge id"})
		return
	}

	challenge, err := h.ChallengeService.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrChallengeNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "challenge not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get challenge"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"challenge":       challenge,
		"completion_rate": challenge.CompletionRate(),
	})
}

type CreateChallengeRequest struct {
	Title       string             `json:"title" binding:"required"`
	Description string             `json:"description"`
	Category    string             `json:"category"`
	Difficulty  string             `json:"difficulty"`
	Type        string             `json:"type"`
	Points      int64              `json:"points" binding:"required,min=1"`
	Eligibility domain.Eligibility `json:"eligibility"`
	StartsAt    *time.Time         `json:"starts_at"`
	EndsAt      *time.Time         `json:"ends_at"`
}

// CreateChallenge stores a new challenge (admin only)
func (h *Handler) CreateChallenge(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req CreateChallengeRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	ctype := domain.ChallengeType(req.Type)
	switch ctype {
	case domain.ChallengeTypeDaily, domain.ChallengeTypeWeekly, domain.ChallengeTypeMonthly, domain.ChallengeTypeSpecial:
	case "":
		ctype = domain.ChallengeTypeSpecial
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid challenge type"})
		return
	}

	now := time.Now()
	startsAt := now
	if req.StartsAt != nil {
		startsAt = *req.StartsAt
	}
	endsAt := now.AddDate(0, 1, 0)
	if req.EndsAt != nil {
		endsAt = *req.EndsAt
	}

	challenge := &domain.Challenge{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Difficulty:  req.Difficulty,
		Type:        ctype,
		Points:      req.Points,
		Eligibility: req.Eligibility,
		StartsAt:    startsAt,
		EndsAt:      endsAt,
		IsActive:    true,
	}

	err := h.ChallengeService.Create(c.Request.Context(), userID, challenge)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, gin.H{"challenge": challenge})
	case errors.Is(err, service.ErrNotAdmin):
		c.JSON(http.StatusForbidden, gin.H{"error": "admin role required"})
	case errors.Is(err, service.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": "points must be positive"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create challenge"})
	}
}

// JoinChallenge adds the account as a pending participant
func (h *Handler) JoinChallenge(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	challengeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid challenge id"})
		return
	}

	p, err := h.ChallengeService.Join(c.Request.Context(), challengeID, userID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"participant": p})
	case errors.Is(err, service.ErrChallengeNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "challenge not found"})
	case errors.Is(err, service.ErrAlreadyJoined):
		c.JSON(http.StatusConflict, gin.H{"error": "already joined"})
	case errors.Is(err, service.ErrChallengeInactive):
		c.JSON(http.StatusForbidden, gin.H{"error": "challenge is not active"})
	case errors.Is(err, service.ErrNotEligible):
		c.JSON(http.StatusForbidden, gin.H{"error": "not eligible"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to join"})
	}
}

type SubmitRequest struct {
	Submissions []string `json:"submissions"`
}

// SubmitChallenge completes the account's entry and awards the reward
func (h *Handler) SubmitChallenge(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	challengeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid challenge id"})
		return
	}

	var req SubmitRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	res, err := h.ChallengeService.Submit(c.Request.Context(), challengeID, userID, req.Submissions)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{
			"participant":   res.Participant,
			"points_earned": res.PointsEarned,
			"wallet":        res.Ledger,
			"success_rate":  res.SuccessRate,
		})
	case errors.Is(err, service.ErrChallengeNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "challenge not found"})
	case errors.Is(err, service.ErrNotParticipant):
		c.JSON(http.StatusForbidden, gin.H{"error": "not a participant"})
	case errors.Is(err, service.ErrAlreadyCompleted):
		c.JSON(http.StatusConflict, gin.H{"error": "already completed"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to submit"})
	}
}

// MyParticipation returns the account's entry for one challenge
func (h *Handler) MyParticipation(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	challengeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid challenge id"})
		return
	}

	p, err := h.ChallengeService.Participation(c.Request.Context(), challengeID, userID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"participant": p})
	case errors.Is(err, service.ErrNotParticipant):
		c.JSON(http.StatusNotFound, gin.H{"error": "not a participant"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load participation"})
	}
}

// MyChallenges lists the account's participant entries
func (h *Handler) MyChallenges(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	entries, err := h.ChallengeService.ListForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load challenges"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"challenges": entries})
}

package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"farmhub/internal/repository"

	"github.com/gin-gonic/gin"
)

// GetLeaderboard returns the top accounts by points
func (h *Handler) GetLeaderboard(c *gin.Context) {
	limit := 100
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	top, err := h.UserRepo.GetTopByPoints(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get leaderboard"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"leaderboard": top})
}

// GetMyRank returns the current account's rank by points
func (h *Handler) GetMyRank(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	rank, points, err := h.UserRepo.GetRank(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get rank"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"rank":   rank,
		"points": points,
	})
}

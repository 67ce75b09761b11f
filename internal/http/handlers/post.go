package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"farmhub/internal/domain"
	"farmhub/internal/repository"

	"github.com/gin-gonic/gin"
)

type CreatePostRequest struct {
	Content  string `json:"content" binding:"required"`
	Category string `json:"category"`
}

// CreatePost adds a community feed entry
func (h *Handler) CreatePost(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req CreatePostRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	post := &domain.Post{
		UserID:   userID,
		Content:  req.Content,
		Category: req.Category,
	}
	if err := h.PostRepo.Create(c.Request.Context(), post); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create post"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"post": post})
}

// ListPosts returns the feed, newest first
func (h *Handler) ListPosts(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	posts, err := h.PostRepo.List(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load posts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// LikePost bumps a post's like counter
func (h *Handler) LikePost(c *gin.Context) {
	postID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}

	likes, err := h.PostRepo.Like(c.Request.Context(), postID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to like post"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"likes": likes})
}

package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/loopinhq/loopin/internal/forum"
	"github.com/loopinhq/loopin/internal/models"
	"github.com/loopinhq/loopin/internal/store"
)

type ThreadHandler struct {
	store store.Store
	forum *forum.Service
}

func NewThreadHandler(st store.Store, svc *forum.Service) *ThreadHandler {
	return &ThreadHandler{store: st, forum: svc}
}

// GetThreads returns the joined thread listing. Supported query params:
// category, tags (comma separated, overlap match), sort (newest|popular).
func (h *ThreadHandler) GetThreads(c *gin.Context) {
	filter := forum.Filter{Sort: c.DefaultQuery("sort", forum.SortNewest)}
	if category := c.Query("category"); category != "" {
		filter.Category = &category
	}
	if tags := c.Query("tags"); tags != "" {
		filter.Tags = strings.Split(tags, ",")
	}

	threads, err := h.forum.ListThreads(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch threads"})
		return
	}
	c.JSON(http.StatusOK, threads)
}

// GetThread returns a single thread and bumps its view count.
func (h *ThreadHandler) GetThread(c *gin.Context) {
	thread, err := h.forum.GetThread(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Thread not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch thread"})
		return
	}
	c.JSON(http.StatusOK, thread)
}

// CreateThread creates a new thread (PROTECTED - requires authentication).
// The anonymous flag is part of the request payload.
func (h *ThreadHandler) CreateThread(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input models.CreateThreadRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	thread, err := h.forum.CreateThread(c.Request.Context(), userID, input)
	if err != nil {
		var verr *forum.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message, "field": verr.Field})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create thread"})
		return
	}

	c.JSON(http.StatusCreated, thread)
}

// GetCategories returns the static category list.
func (h *ThreadHandler) GetCategories(c *gin.Context) {
	c.JSON(http.StatusOK, models.Categories)
}

// ModerateThread pins or locks a thread (PROTECTED - moderator or admin).
func (h *ThreadHandler) ModerateThread(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	profile, err := h.store.ProfileByID(c.Request.Context(), userID)
	if err != nil || !profile.CanModerate() {
		c.JSON(http.StatusForbidden, gin.H{"error": "Moderator access required"})
		return
	}

	var input models.ModerateThreadRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	err = h.store.ModerateThread(c.Request.Context(), c.Param("id"), input.IsPinned, input.IsLocked)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Thread not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update thread"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Thread updated"})
}

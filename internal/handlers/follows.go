package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/loopinhq/loopin/internal/forum"
	"github.com/loopinhq/loopin/internal/optimistic"
)

type FollowHandler struct {
	forum  *forum.Service
	boards *optimistic.Registry
}

func NewFollowHandler(svc *forum.Service, boards *optimistic.Registry) *FollowHandler {
	return &FollowHandler{forum: svc, boards: boards}
}

// ToggleFollow follows or unfollows a thread (PROTECTED - requires
// authentication). Failures revert silently, same as votes.
func (h *FollowHandler) ToggleFollow(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	state, err := h.boards.Board(userID).ToggleFollow(c.Request.Context(), c.Param("id"))
	if err != nil {
		log.Printf("follow reverted for user %s: %v", userID, err)
	}
	c.JSON(http.StatusOK, state)
}

// GetFollowedThreads lists the threads the caller follows (PROTECTED).
func (h *FollowHandler) GetFollowedThreads(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	threads, err := h.forum.FollowedThreads(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch followed threads"})
		return
	}
	c.JSON(http.StatusOK, threads)
}

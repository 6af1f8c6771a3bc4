package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/loopinhq/loopin/internal/optimistic"
	"github.com/loopinhq/loopin/internal/store"
)

type VoteHandler struct {
	boards *optimistic.Registry
}

func NewVoteHandler(boards *optimistic.Registry) *VoteHandler {
	return &VoteHandler{boards: boards}
}

type voteInput struct {
	VoteType int `json:"vote_type" binding:"required,oneof=-1 1"`
}

// VoteThread casts, switches, or toggles off a vote on a thread
// (PROTECTED - requires authentication). A failed backend write is reverted
// silently: the response carries the restored counters and no error body.
func (h *VoteHandler) VoteThread(c *gin.Context) {
	h.vote(c, store.Target{ThreadID: c.Param("id")})
}

// VotePost casts, switches, or toggles off a vote on a post
// (PROTECTED - requires authentication).
func (h *VoteHandler) VotePost(c *gin.Context) {
	h.vote(c, store.Target{PostID: c.Param("id")})
}

func (h *VoteHandler) vote(c *gin.Context, target store.Target) {
	userID, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input voteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Vote type must be -1 or 1"})
		return
	}

	state, err := h.boards.Board(userID).Vote(c.Request.Context(), target, input.VoteType)
	if err != nil {
		// Reverted; no user-visible error by design.
		log.Printf("vote reverted for user %s: %v", userID, err)
	}
	c.JSON(http.StatusOK, state)
}

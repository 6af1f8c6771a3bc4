package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/loopinhq/loopin/internal/forum"
	"github.com/loopinhq/loopin/internal/models"
	"github.com/loopinhq/loopin/internal/store"
)

type PostHandler struct {
	forum *forum.Service
}

func NewPostHandler(svc *forum.Service) *PostHandler {
	return &PostHandler{forum: svc}
}

// GetPosts returns a thread's posts with authors resolved and one level of
// replies attached.
func (h *PostHandler) GetPosts(c *gin.Context) {
	posts, err := h.forum.GetPosts(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}
	c.JSON(http.StatusOK, posts)
}

// CreatePost creates a reply on a thread (PROTECTED - requires
// authentication). Locked threads reject new posts.
func (h *PostHandler) CreatePost(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input models.CreatePostRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	post, err := h.forum.CreatePost(c.Request.Context(), userID, c.Param("id"), input)
	if err != nil {
		var verr *forum.ValidationError
		switch {
		case errors.As(err, &verr):
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message, "field": verr.Field})
		case errors.Is(err, forum.ErrThreadLocked):
			c.JSON(http.StatusForbidden, gin.H{"error": "Thread is locked"})
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Thread not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create post"})
		}
		return
	}

	c.JSON(http.StatusCreated, post)
}

package handlers

import (
	"errors"
	"net/http"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/loopinhq/loopin/internal/models"
	"github.com/loopinhq/loopin/internal/store"
)

type ProfileHandler struct {
	store store.Store
}

func NewProfileHandler(st store.Store) *ProfileHandler {
	return &ProfileHandler{store: st}
}

// GetProfile returns a user's public profile
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	profile, err := h.store.ProfileByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch profile"})
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateProfile updates the caller's own profile (PROTECTED).
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	// Check if user is updating their own profile
	if userID != c.Param("id") {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only update your own profile"})
		return
	}

	var input models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if input.DisplayName != nil && utf8.RuneCountInString(*input.DisplayName) > 50 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Display name is too long"})
		return
	}

	profile, err := h.store.ProfileByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if input.DisplayName != nil {
		profile.DisplayName = input.DisplayName
	}
	if input.AvatarURL != nil {
		profile.AvatarURL = input.AvatarURL
	}
	if input.Bio != nil {
		profile.Bio = input.Bio
	}

	if err := h.store.UpdateProfile(c.Request.Context(), profile); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, profile)
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/loopinhq/loopin/internal/storage"
)

type UploadHandler struct {
	blobs storage.Store
}

func NewUploadHandler(blobs storage.Store) *UploadHandler {
	return &UploadHandler{blobs: blobs}
}

// Upload stores an image (PROTECTED - requires authentication). Type and
// size are validated before anything is written.
func (h *UploadHandler) Upload(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A file is required"})
		return
	}

	contentType := file.Header.Get("Content-Type")
	if err := storage.ValidateImage(contentType, file.Size); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read upload"})
		return
	}
	defer src.Close()

	key, err := h.blobs.Upload(contentType, file.Size, src)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) || errors.Is(err, storage.ErrWrongType) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store upload"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"key": key,
		"url": h.blobs.PublicURL(key),
	})
}

// Delete removes an uploaded image (PROTECTED).
func (h *UploadHandler) Delete(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if err := h.blobs.Delete(c.Param("key")); err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Upload not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete upload"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Upload deleted"})
}

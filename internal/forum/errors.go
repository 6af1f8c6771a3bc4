package forum

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/loopinhq/loopin/internal/models"
)

// ErrThreadLocked rejects new posts on locked threads.
var ErrThreadLocked = errors.New("thread is locked")

// ValidationError is a client-side rejection raised before any backend call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

const maxTitleLen = 300

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func validateThread(req models.CreateThreadRequest) error {
	if isBlank(req.Title) {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	if utf8.RuneCountInString(req.Title) > maxTitleLen {
		return &ValidationError{Field: "title", Message: "title is too long"}
	}
	if isBlank(req.Content) {
		return &ValidationError{Field: "content", Message: "content is required"}
	}
	if req.Category != nil && *req.Category != "" && models.CategoryByID(*req.Category) == nil {
		return &ValidationError{Field: "category", Message: "unknown category"}
	}
	return nil
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/loopinhq/loopin/internal/search"
)

type SearchHandler struct {
	aggregator *search.Aggregator
}

func NewSearchHandler(agg *search.Aggregator) *SearchHandler {
	return &SearchHandler{aggregator: agg}
}

// Search runs the keyword search. A blank query returns empty result sets
// without touching the backend.
func (h *SearchHandler) Search(c *gin.Context) {
	results, err := h.aggregator.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed"})
		return
	}
	c.JSON(http.StatusOK, results)
}

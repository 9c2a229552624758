// Package rest exposes the service layer over HTTP with gin.
package rest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mizusawa-dev/clique/apperr"
	"github.com/mizusawa-dev/clique/config"
	"github.com/mizusawa-dev/clique/pagination"
)

// writeError maps service-layer errors onto HTTP statuses. Untyped errors
// surface as an opaque 500.
func writeError(c *gin.Context, err error) {
	if errors.Is(err, pagination.ErrInvalidCursor) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cursor"})
		return
	}

	var e *apperr.Error
	if errors.As(err, &e) {
		status := http.StatusInternalServerError
		switch e.Kind {
		case apperr.KindNotFound:
			status = http.StatusNotFound
		case apperr.KindForbidden:
			status = http.StatusForbidden
		case apperr.KindConflict:
			status = http.StatusConflict
		case apperr.KindOrphanedReference:
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"error": e.Error()})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

// pageLimit parses the limit query parameter. Absent defaults; anything that
// is not an integer in [1, max] is rejected.
func pageLimit(c *gin.Context, cfg config.FeedConfig) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return cfg.DefaultLimit, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > cfg.MaxLimit {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return 0, false
	}
	return n, true
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/Conceptual-Machines/lyricist-api/internal/errs"
	"github.com/Conceptual-Machines/lyricist-api/internal/logger"
	"github.com/gin-gonic/gin"
)

// statusForKind maps a failure kind to the HTTP status returned to callers
func statusForKind(kind errs.Kind) int {
	switch kind {
	case errs.KindTransient:
		return http.StatusServiceUnavailable
	case errs.KindServer:
		return http.StatusBadGateway
	case errs.KindParsing, errs.KindValidation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	respondErrorWith(c, err, nil)
}

// respondErrorWith adds extra keys to the error body
func respondErrorWith(c *gin.Context, err error, extra gin.H) {
	classified := errs.Classify(err)
	status := statusForKind(classified.Kind)

	fields := logger.WithContext(c)
	fields["kind"] = string(classified.Kind)
	fields["status_code"] = status
	logger.Error("Generation request failed", err, fields)

	body := gin.H{
		"error":      classified.Error(),
		"kind":       classified.Kind,
		"request_id": c.GetString("request_id"),
	}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(status, body)
}

func respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":      err.Error(),
		"request_id": c.GetString("request_id"),
	})
}

var (
	errMissingText  = errors.New("text is required")
	errMissingDraft = errors.New("draft.lyrics or text is required")
	errTextTooLong  = errors.New("text is too long")
	errInvalidLimit = errors.New("limit must be between 1 and 100")
)

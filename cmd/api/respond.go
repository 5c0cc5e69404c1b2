package main

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/therealutkarshpriyadarshi/creatorhub/internal/metrics"
	"github.com/therealutkarshpriyadarshi/creatorhub/internal/middleware"
	"github.com/therealutkarshpriyadarshi/creatorhub/pkg/models"
)

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, models.ErrMissingUser),
		errors.Is(err, models.ErrAccessDenied),
		errors.Is(err, models.ErrKycNotVerified):
		return http.StatusForbidden
	case errors.Is(err, models.ErrUpstreamUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as {"error": ...} with the mapped status
func (api *API) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		metrics.RecordError("api", "internal")
		api.logger.WithField("path", c.FullPath()).ErrorWithErr("Request failed", err)
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}

	body := gin.H{"error": err.Error()}
	var verr *models.ValidationError
	if errors.As(err, &verr) && verr.Field != "" {
		body["field"] = verr.Field
	}
	c.JSON(status, body)
}

// bind decodes the request body by content type. An empty body leaves obj
// unchanged.
func bind(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBind(obj); err != nil && !errors.Is(err, io.EOF) {
		return models.NewValidationError("body", "invalid request: %v", err)
	}
	return nil
}

// viewerID returns the bearer token identity, falling back to the given value
func viewerID(c *gin.Context, fallback string) string {
	if userID, ok := middleware.GetUserID(c); ok {
		return userID
	}
	return fallback
}

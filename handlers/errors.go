package handlers

import (
	"errors"
	"net/http"

	guideRepo "outlandish/database/repository/guide"
	"outlandish/middleware"
	"outlandish/models"
	"outlandish/services/booking"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps service errors to status codes. Unknown errors are logged and hidden.
func respondError(c *gin.Context, err error) {
	var (
		validation *booking.ValidationError
		authz      *booking.AuthorizationError
		notFound   *booking.NotFoundError
		integrity  *booking.IntegrityError
		dependency *booking.DependencyError
	)

	switch {
	case errors.As(err, &validation):
		body := gin.H{"error": validation.Message}
		if validation.Field != "" {
			body["field"] = validation.Field
		}
		c.JSON(http.StatusBadRequest, body)
	case errors.As(err, &authz):
		c.JSON(http.StatusForbidden, gin.H{"error": authz.Message})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
	case errors.Is(err, guideRepo.ErrGuideNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "guide not found"})
	case errors.As(err, &integrity):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
	case errors.As(err, &dependency):
		getLogger(c).Error("Upstream call failed", zap.String("op", dependency.Op), zap.Error(dependency.Err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "A service we depend on failed. Please try again."})
	default:
		getLogger(c).Error("Unhandled error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// sessionUser returns the caller or writes a 401.
func sessionUser(c *gin.Context) (models.SessionUser, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Sign in to continue"})
		return models.SessionUser{}, false
	}
	return *user, true
}

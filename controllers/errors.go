package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"cleanstreet-be/models"
)

// respondError writes the status matching err's kind. Anything unrecognised
// is logged and answered with a generic 500.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	var (
		verr *models.ValidationError
		aerr *models.AuthError
	)
	switch {
	case errors.As(err, &verr):
		body := gin.H{"error": verr.Message}
		if verr.Field != "" {
			body["field"] = verr.Field
		}
		c.JSON(http.StatusBadRequest, body)
	case errors.As(err, &aerr):
		status := http.StatusForbidden
		if aerr.Unauthenticated {
			status = http.StatusUnauthorized
		}
		c.JSON(status, gin.H{"error": aerr.Message})
	case errors.Is(err, models.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.ErrorContext(c.Request.Context(), "request failed",
			slog.String("path", c.FullPath()),
			slog.Any("error", err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
	}
}

// bindError answers a body that could not be decoded.
func bindError(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
}

// objectIDParam parses a path parameter. An id that is not a valid ObjectID
// cannot name a stored record, so it is reported as not found.
func objectIDParam(c *gin.Context, name, resource string) (primitive.ObjectID, error) {
	raw := c.Param(name)
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, models.NewNotFoundError(resource, raw)
	}
	return id, nil
}

package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"rental-service/internal/apperr"
	"rental-service/internal/middleware"
	"rental-service/internal/models"
)

// respondError maps the domain error taxonomy onto HTTP statuses. Storage
// failures never leak their cause.
func respondError(c *gin.Context, err error) {
	var conflict *apperr.ConflictError
	var transition *apperr.TransitionError

	switch {
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"error": conflict.Error(), "listing_id": conflict.ListingID, "range": conflict.Range})
	case errors.As(err, &transition):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": transition.Error(), "from": transition.From, "to": transition.To})
	case errors.Is(err, apperr.ErrInvalidRange),
		errors.Is(err, apperr.ErrEmptyMessage),
		errors.Is(err, apperr.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrInvalidTransition):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func actorOrAbort(c *gin.Context) (models.Actor, bool) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": apperr.ErrUnauthenticated.Error()})
		return models.Actor{}, false
	}
	return actor, true
}

func int64Param(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func threadParam(c *gin.Context) (models.ThreadRef, bool) {
	id, ok := int64Param(c, "id")
	if !ok {
		return models.ThreadRef{}, false
	}
	ref, err := models.ParseThreadRef(c.Param("kind"), id)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return models.ThreadRef{}, false
	}
	return ref, true
}

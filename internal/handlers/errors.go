package handlers

import (
	"errors"

	"github.com/devex-hq/devex-api/internal/apperr"
	"github.com/m1z23r/drift/pkg/drift"
	"go.uber.org/zap"
)

// respondError maps a service error to its status code. Store failures are
// logged and reported without detail.
func respondError(c *drift.Context, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		c.NotFound(err.Error())
	case errors.Is(err, apperr.ErrForbidden):
		c.Unauthorized(err.Error())
	case errors.Is(err, apperr.ErrInvalidState),
		errors.Is(err, apperr.ErrConflict),
		errors.Is(err, apperr.ErrValidation):
		c.BadRequest(err.Error())
	default:
		log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		c.InternalServerError("internal server error")
	}
}

// errorMessage is the text sent to a realtime client for err.
func errorMessage(err error) string {
	if errors.Is(err, apperr.ErrPersistence) || !isKnown(err) {
		return "internal server error"
	}
	return err.Error()
}

func isKnown(err error) bool {
	for _, kind := range []error{
		apperr.ErrNotFound, apperr.ErrForbidden, apperr.ErrInvalidState,
		apperr.ErrConflict, apperr.ErrValidation,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}

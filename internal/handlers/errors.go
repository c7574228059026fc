package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/iaejovem/backend/internal/services"
	"github.com/iaejovem/backend/pkg/logger"
	"github.com/iaejovem/backend/pkg/response"
)

// toAppError maps service sentinels onto HTTP statuses and application codes.
// Unknown errors are returned unchanged and end up as a generic 500.
func toAppError(err error) error {
	switch {
	case errors.Is(err, services.ErrValidation):
		return response.NewBadRequest(err.Error())
	case errors.Is(err, services.ErrNotFound):
		return response.NewNotFound(err.Error())
	case errors.Is(err, services.ErrOutOfStock):
		return response.NewConflict(response.CodeOutOfStock, "product out of stock")
	case errors.Is(err, services.ErrInsufficientPoints):
		return response.NewConflict(response.CodeInsufficientPoints, "insufficient points")
	case errors.Is(err, services.ErrInvalidCredentials):
		return response.NewUnauthorized(err.Error())
	case errors.Is(err, services.ErrUserDisabled):
		return response.NewForbidden(err.Error())
	case errors.Is(err, services.ErrInsightsUnavailable):
		return response.NewServerError("insights provider not configured")
	case errors.Is(err, services.ErrChatUnavailable):
		return response.NewServerError("chat provider not configured")
	}
	return err
}

func respondError(c *gin.Context, err error) {
	mapped := toAppError(err)

	var appErr *response.AppError
	if !errors.As(mapped, &appErr) || appErr.HTTPStatus >= 500 {
		logger.Error().Err(err).
			Str("path", c.FullPath()).
			Str("request_id", c.GetString(logger.RequestIDKey)).
			Msg("request failed")
	}
	response.Error(c, mapped)
}

func parseID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil || id == 0 {
		response.BadRequest(c, "invalid "+param)
		return 0, false
	}
	return uint(id), true
}

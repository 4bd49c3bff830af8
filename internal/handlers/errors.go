package handlers

import (
	"errors"
	"log/slog"

	apperrors "edupay/internal/errors"
	"edupay/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// statusByCode maps domain error codes to HTTP statuses.
var statusByCode = map[string]int{
	apperrors.ErrValidation.Code:             fiber.StatusBadRequest,
	apperrors.ErrInvalidAmount.Code:          fiber.StatusBadRequest,
	apperrors.ErrInvalidTransactionType.Code: fiber.StatusBadRequest,
	apperrors.ErrInvalidFundingMethod.Code:   fiber.StatusBadRequest,
	apperrors.ErrInvalidCredentials.Code:     fiber.StatusUnauthorized,
	apperrors.ErrInvalidSignature.Code:       fiber.StatusUnauthorized,
	apperrors.ErrInsufficientBalance.Code:    fiber.StatusPaymentRequired,
	apperrors.ErrWalletNotFound.Code:         fiber.StatusNotFound,
	apperrors.ErrTransactionNotFound.Code:    fiber.StatusNotFound,
	apperrors.ErrProductNotFound.Code:        fiber.StatusNotFound,
	apperrors.ErrDuplicateUser.Code:          fiber.StatusConflict,
	apperrors.ErrWalletLocked.Code:           fiber.StatusLocked,
	apperrors.ErrGateway.Code:                fiber.StatusBadGateway,
	apperrors.ErrStorage.Code:                fiber.StatusInternalServerError,
}

// StatusOf returns the HTTP status for err. Errors without a known code are
// internal errors.
func StatusOf(err error) int {
	if status, ok := statusByCode[apperrors.CodeOf(err)]; ok {
		return status
	}
	return fiber.StatusInternalServerError
}

// respondError writes err as an ErrorBody. Internal errors are logged and
// their details are not sent to the client.
func respondError(c *fiber.Ctx, logger *slog.Logger, err error) error {
	status := StatusOf(err)
	code := apperrors.CodeOf(err)
	if status >= fiber.StatusInternalServerError {
		logger.Error("request failed",
			"method", c.Method(), "path", c.Path(), "code", code, "error", err)
		if code == "" || code == apperrors.ErrStorage.Code {
			return utils.Fail(c, status, code, "internal server error")
		}
		// Upstream causes (gateway response bodies) stay in the log.
		var de *apperrors.DomainError
		if errors.As(err, &de) {
			return utils.Fail(c, status, code, de.Message)
		}
	}
	return utils.Fail(c, status, code, err.Error())
}

// ErrorHandler is the fiber.Config ErrorHandler. It keeps fiber's own errors
// (404 for unknown routes, 405, body limits) and maps domain errors.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		if fe, ok := err.(*fiber.Error); ok {
			return utils.Respond(c, fe.Code, utils.ErrorBody{Error: fe.Message})
		}
		return respondError(c, logger, err)
	}
}

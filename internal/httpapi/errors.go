package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codeready-toolchain/crmcore/internal/apperrors"
)

// ErrorBody is the stable {error:{code,message,details?}} shape used for
// every 4xx/5xx ingest response; 2xx responses use IngestResponse.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the machine-readable code and message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// writeError maps a service error to an HTTP status and the stable error
// body, never leaking a stack trace or another lead's identifiers.
func writeError(c *gin.Context, err error) {
	var verr *apperrors.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, ErrorBody{Error: ErrorDetail{Code: verr.Code, Message: verr.Message, Details: verr.Field}})
	case errors.Is(err, apperrors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, ErrorBody{Error: ErrorDetail{Code: "unauthorized", Message: "authentication failed"}})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, ErrorBody{Error: ErrorDetail{Code: "validation_error", Message: err.Error()}})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorBody{Error: ErrorDetail{Code: "not_found", Message: "resource not found"}})
	default:
		c.JSON(http.StatusInternalServerError, ErrorBody{Error: ErrorDetail{Code: "internal_error", Message: "an internal error occurred"}})
	}
}

package rest

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/pawbridge/message-security-backend/internal/domain/errors"
)

// writeJSON writes a JSON body with the given status.
func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// writeError maps any error to the uniform error envelope. Domain AppErrors
// carry their own status codes; everything else is an opaque 500.
func writeError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	status, code, msg, details := classifyError(err)

	if status >= 500 && logger != nil {
		logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("method", r.Method),
			zap.Int("status", status),
			zap.Error(err))
	}

	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{
		Code:      code,
		Message:   msg,
		Details:   details,
		RequestID: requestIDFrom(r.Context()),
	}})
}

func classifyError(err error) (status int, code, msg string, details map[string]interface{}) {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr.StatusCode, appErr.Code, appErr.Message, appErr.Details
	}

	var validationErrs validator.ValidationErrors
	if stderrors.As(err, &validationErrs) {
		fields := make(map[string]interface{}, len(validationErrs))
		for _, fe := range validationErrs {
			fields[strings.ToLower(fe.Field())] = fmt.Sprintf("failed %s validation", fe.Tag())
		}
		return http.StatusBadRequest, "VALIDATION_FAILED", "request validation failed", fields
	}

	var syntaxErr *json.SyntaxError
	if stderrors.As(err, &syntaxErr) {
		return http.StatusBadRequest, "INVALID_JSON", "invalid JSON syntax",
			map[string]interface{}{"offset": syntaxErr.Offset}
	}
	var typeErr *json.UnmarshalTypeError
	if stderrors.As(err, &typeErr) {
		return http.StatusBadRequest, "TYPE_MISMATCH",
			fmt.Sprintf("invalid type for field %q", typeErr.Field), nil
	}

	if stderrors.Is(err, context.Canceled) {
		return http.StatusRequestTimeout, "REQUEST_CANCELED", "request was canceled", nil
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return http.StatusRequestTimeout, "REQUEST_TIMEOUT", "request timed out", nil
	}

	return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred", nil
}

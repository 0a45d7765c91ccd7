package httpapi

import (
	"context"
	"errors"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/predictions-chips/internal/domain/chip"
	"github.com/riskibarqy/predictions-chips/internal/usecase"
)

const (
	googleAPIVersion = "2.0"
	errorDomain      = "predictions-chips"

	internalErrorMessage = "internal server error"
)

type googleResponseEnvelope struct {
	APIVersion string           `json:"apiVersion"`
	Data       any              `json:"data,omitempty"`
	Error      *googleErrorBody `json:"error,omitempty"`
}

type googleErrorBody struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Status  string            `json:"status"`
	Errors  []googleErrorItem `json:"errors,omitempty"`
	Details any               `json:"details,omitempty"`
}

type googleErrorItem struct {
	Domain  string `json:"domain"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type mappedError struct {
	HTTPStatus int
	Reason     string
	Status     string
}

var internalMapping = mappedError{HTTPStatus: http.StatusInternalServerError, Reason: "internalError", Status: "INTERNAL"}

// errorMappings is checked in order; the first sentinel matched by errors.Is wins.
var errorMappings = []struct {
	sentinels []error
	mapped    mappedError
}{
	{[]error{usecase.ErrInvalidInput}, mappedError{http.StatusBadRequest, "invalidInput", "INVALID_ARGUMENT"}},
	{[]error{usecase.ErrNotFound}, mappedError{http.StatusNotFound, "notFound", "NOT_FOUND"}},
	{[]error{usecase.ErrUnauthorized}, mappedError{http.StatusUnauthorized, "unauthorized", "UNAUTHENTICATED"}},
	{[]error{usecase.ErrDependencyUnavailable}, mappedError{http.StatusServiceUnavailable, "dependencyUnavailable", "UNAVAILABLE"}},
	{
		[]error{chip.ErrUnknownChip, chip.ErrChipNotApplicable},
		mappedError{http.StatusUnprocessableEntity, "chipRejected", "FAILED_PRECONDITION"},
	},
	{
		[]error{chip.ErrChipLocked, chip.ErrChipUnavailable, chip.ErrIncompatibleChips},
		mappedError{http.StatusConflict, "chipRejected", "FAILED_PRECONDITION"},
	},
}

func mapError(ctx context.Context, err error) mappedError {
	_, span := startSpan(ctx, "httpapi.mapError")
	defer span.End()

	for _, m := range errorMappings {
		for _, sentinel := range m.sentinels {
			if errors.Is(err, sentinel) {
				return m.mapped
			}
		}
	}
	return internalMapping
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	_, span := startSpan(ctx, "httpapi.writeJSON")
	defer span.End()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(payload)
}

func writeSuccess(ctx context.Context, w http.ResponseWriter, status int, data any) {
	writeJSON(ctx, w, status, googleResponseEnvelope{APIVersion: googleAPIVersion, Data: data})
}

// writeFailure builds the error envelope. reason overrides the mapped reason when set.
func writeFailure(ctx context.Context, w http.ResponseWriter, mapped mappedError, reason, message string, details any) {
	if reason == "" {
		reason = mapped.Reason
	}
	writeJSON(ctx, w, mapped.HTTPStatus, googleResponseEnvelope{
		APIVersion: googleAPIVersion,
		Error: &googleErrorBody{
			Code:    mapped.HTTPStatus,
			Message: message,
			Status:  mapped.Status,
			Errors:  []googleErrorItem{{Domain: errorDomain, Reason: reason, Message: message}},
			Details: details,
		},
	})
}

// writeError hides the message of unmapped errors; they may carry backend internals.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	ctx, span := startSpan(ctx, "httpapi.writeError")
	defer span.End()

	mapped := mapError(ctx, err)
	message := err.Error()
	if mapped == internalMapping {
		message = internalErrorMessage
	}
	writeFailure(ctx, w, mapped, "", message, nil)
}

func writeInternalError(ctx context.Context, w http.ResponseWriter) {
	writeFailure(ctx, w, internalMapping, "", internalErrorMessage, nil)
}

// writeRejection renders a refused chip operation. The rejection code becomes the error reason
// and the full rejection is echoed under details.
func writeRejection(ctx context.Context, w http.ResponseWriter, rejection usecase.Rejection) {
	ctx, span := startSpan(ctx, "httpapi.writeRejection")
	defer span.End()

	mapped := mapError(ctx, rejection.Sentinel())
	if rejection.Code == usecase.RejectWrongScope {
		mapped.HTTPStatus = http.StatusUnprocessableEntity
	}
	writeFailure(ctx, w, mapped, string(rejection.Code), rejection.Reason, rejectionToDTO(rejection))
}

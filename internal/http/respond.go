package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"aura/internal/auth"
	"aura/internal/bills"
	"aura/internal/core"
	"aura/internal/layout"
	"aura/internal/log"
	"aura/internal/ports"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// apiError is an error with a fixed HTTP status and a stable code.
type apiError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *apiError) Error() string { return e.Message }

func errorf(status int, code, format string, args ...any) *apiError {
	return &apiError{Status: status, Code: code, Message: fmt.Sprintf(format, args...)}
}

func badRequest(format string, args ...any) *apiError {
	return errorf(http.StatusBadRequest, "bad_request", format, args...)
}

var (
	invalidInput = []error{
		core.ErrInvalidAmount, core.ErrEmptyName, core.ErrEmptyBank, core.ErrEmptyUser,
		core.ErrInvalidEmail, core.ErrInvalidFrequency, core.ErrInvalidDateRange, core.ErrEmptyStartDate,
		core.ErrInvalidAccount, core.ErrDescriptionTooBig,
		auth.ErrWeakPassword, layout.ErrInvalidSize, layout.ErrInvalidGrid,
	}
	unprocessable = []error{
		layout.ErrSizeUnavailable, layout.ErrWidgetDisabled, layout.ErrInvalidLayout, bills.ErrNothingDue,
	}
	unauthenticated = []error{
		auth.ErrInvalidToken, auth.ErrExpiredToken, auth.ErrInvalidCredentials,
	}
)

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// toAPIError maps domain errors to responses. Anything unknown is a 500
// whose message is not shown to the caller.
func toAPIError(err error) *apiError {
	var ae *apiError
	switch {
	case errors.As(err, &ae):
		return ae
	case isAny(err, invalidInput):
		return errorf(http.StatusBadRequest, "invalid", "%s", err.Error())
	case isAny(err, unauthenticated):
		return errorf(http.StatusUnauthorized, "unauthorized", "%s", err.Error())
	case errors.Is(err, ports.ErrNotFound), errors.Is(err, layout.ErrWidgetNotFound):
		return errorf(http.StatusNotFound, "not_found", "%s", err.Error())
	case errors.Is(err, ports.ErrConflict):
		return errorf(http.StatusConflict, "conflict", "%s", err.Error())
	case isAny(err, unprocessable):
		return errorf(http.StatusUnprocessableEntity, "unprocessable", "%s", err.Error())
	default:
		return errorf(http.StatusInternalServerError, "internal", "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	ae := toAPIError(err)
	logger := log.FromContext(r.Context())
	if ae.Status >= 500 {
		logger.ErrorContext(r.Context(), "Request failed", log.FieldError, err, log.FieldPath, r.URL.Path)
	} else {
		logger.DebugContext(r.Context(), "Request rejected", log.FieldError, err, log.FieldStatusCode, ae.Status)
	}
	writeJSON(w, ae.Status, map[string]*apiError{"error": ae})
}

func noContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// decodeJSON reads a single JSON document from the request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.As(err, &tooBig):
			return errorf(http.StatusRequestEntityTooLarge, "too_large", "request body exceeds %d bytes", tooBig.Limit)
		case errors.Is(err, io.EOF):
			return badRequest("request body is empty")
		case isAny(err, invalidInput):
			return err
		default:
			return badRequest("malformed JSON: %v", err)
		}
	}
	if dec.More() {
		return badRequest("request body must hold a single JSON document")
	}
	return nil
}

// readBody returns the raw request body, bounded like decodeJSON.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, errorf(http.StatusRequestEntityTooLarge, "too_large", "request body exceeds %d bytes", tooBig.Limit)
		}
		return nil, badRequest("read body: %v", err)
	}
	return data, nil
}

// userID returns the authenticated user. Routes that call it sit behind
// auth.Middleware.
func userID(r *http.Request) string {
	id, _ := auth.UserIDFromContext(r.Context())
	return id
}

// components/booking/errors.go
//
// Error → HTTP status mapping, kept in one place.

package booking

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/yanizio/xplora/internal/booking"
	"github.com/yanizio/xplora/internal/draft"
	"github.com/yanizio/xplora/internal/logger"
)

var errCSRF = errors.New("missing or invalid csrf token")

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// statusFor maps err to a status code.  Unknown errors are 500.
func statusFor(err error) int {
	var fe fieldErrors
	switch {
	case errors.As(err, &fe):
		return http.StatusBadRequest
	case errors.Is(err, booking.ErrNoProduct):
		return http.StatusUnprocessableEntity
	case errors.Is(err, draft.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, booking.ErrClosed):
		return http.StatusGone
	case errors.Is(err, errCSRF):
		return http.StatusForbidden
	case errors.Is(err, booking.ErrBusy),
		errors.Is(err, booking.ErrNoPendingPrompt),
		errors.Is(err, booking.ErrAlreadyBooked):
		return http.StatusConflict
	case errors.Is(err, booking.ErrUnknownField),
		errors.Is(err, booking.ErrUnknownPaymentMethod),
		errors.Is(err, errBadBody):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// writeError logs err and writes its JSON body.  Internal errors are
// masked.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	log := logger.FromContext(r.Context())

	body := errorBody{Error: err.Error()}
	var fe fieldErrors
	if errors.As(err, &fe) {
		body = errorBody{Error: "invalid navigation state", Fields: fe}
	}
	if errors.Is(err, booking.ErrNoProduct) {
		body.Error = booking.ErrNoProduct.Error()
	}

	if status >= http.StatusInternalServerError {
		log.Errorw("booking request failed", "path", r.URL.Path, "err", err)
		body = errorBody{Error: http.StatusText(status)}
	} else {
		log.Debugw("booking request rejected", "path", r.URL.Path, "status", status, "err", err)
	}
	writeJSON(w, status, body)
}

// writeJSON encodes v with status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

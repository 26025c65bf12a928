// internal/booking/errors.go
//
// Sentinel errors for the review workflow.  Callers match them with
// errors.Is; the HTTP layer maps each one to a status code.

package booking

import "errors"

var (
	// ErrNoProduct means the navigation state carried no product.  The
	// review screen cannot be used at all.
	ErrNoProduct = errors.New("no product information to show")

	// ErrUnauthenticated is returned by the gate when no session credential
	// is present.
	ErrUnauthenticated = errors.New("session credential required")

	// ErrAvailabilityNotFound means the selected date has no availability
	// record on the product.
	ErrAvailabilityNotFound = errors.New("no availability for selected date")

	// ErrRemote wraps any failure of the booking-creation call, including
	// an empty confirmation.
	ErrRemote = errors.New("booking creation failed")

	// ErrBusy rejects a trigger while another step is in progress.
	ErrBusy = errors.New("review is busy")

	// ErrNoPendingPrompt rejects an answer when no matching prompt is open.
	ErrNoPendingPrompt = errors.New("no pending prompt")

	// ErrAlreadyBooked rejects a submit after a booking succeeded.
	ErrAlreadyBooked = errors.New("booking already confirmed")

	// ErrUnknownField rejects an update to a field the form does not declare.
	ErrUnknownField = errors.New("unknown field")

	// ErrUnknownPaymentMethod rejects a method other than card or googlepay.
	ErrUnknownPaymentMethod = errors.New("unknown payment method")

	// ErrClosed rejects any operation after the draft was abandoned.
	ErrClosed = errors.New("review closed")

	// ErrNoPrompter is returned by the blocking helpers when no Prompter was
	// configured.
	ErrNoPrompter = errors.New("no prompter configured")
)

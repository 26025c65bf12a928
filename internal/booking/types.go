// internal/booking/types.go
//
// Value types shared by the review workflow.
//
// Context
// -------
// A review draft starts from the navigation state handed over by the product
// page (`Context`), then collects contact and payment input from the user.
// Only the product, availability, and quantity ever leave this package, as a
// `Payload` for the remote booking call.  Card data is captured so the form
// can be validated, and is never transmitted.
//
// Notes
// -----
//   - Field names match the JSON keys used by the client, so an ErrorMap key
//     can be bound straight to its input.
//   - Confirmation is opaque.  It is passed through byte-for-byte.
package booking

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/yanizio/xplora/internal/catalog"
	"github.com/yanizio/xplora/internal/form"
)

// Field names accepted by Controller.Update.
const (
	FieldFirstName     = "firstName"
	FieldLastName      = "lastName"
	FieldEmail         = "email"
	FieldPhone         = "phone"
	FieldPaymentMethod = "paymentMethod"
	FieldCardNumber    = "cardNumber"
	FieldExpiryDate    = "expiryDate"
	FieldCVV           = "cvv"
)

// cardFields are required only while the card method is selected.
var cardFields = []string{FieldCardNumber, FieldExpiryDate, FieldCVV}

/*──────────────────────────── navigation state ────────────────────────────*/

// Context is the immutable navigation state a draft is created from.
type Context struct {
	Product        *catalog.Product `json:"product"`
	SelectedDate   time.Time        `json:"selectedDate"`
	SelectedPeople int              `json:"selectedPeople"`
	TotalPrice     float64          `json:"totalPrice"`
}

// NewContext returns a Context or ErrNoProduct when p is nil.  A zero
// totalPrice is recomputed as price × people.
func NewContext(p *catalog.Product, date time.Time, people int, totalPrice float64) (Context, error) {
	if p == nil {
		return Context{}, ErrNoProduct
	}
	if totalPrice == 0 {
		totalPrice = p.Price * float64(people)
	}
	return Context{
		Product:        p,
		SelectedDate:   date,
		SelectedPeople: people,
		TotalPrice:     totalPrice,
	}, nil
}

/*──────────────────────────── user input ──────────────────────────────────*/

// ContactForm holds the traveller's contact details.
type ContactForm struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// PaymentMethod is the method picked on the review screen.
type PaymentMethod string

const (
	MethodUnset     PaymentMethod = ""
	MethodCard      PaymentMethod = "card"
	MethodGooglePay PaymentMethod = "googlepay"
)

// Valid reports whether m is one of the known methods, unset included.
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodUnset, MethodCard, MethodGooglePay:
		return true
	}
	return false
}

// PaymentSelection is the chosen method plus the card fields.
type PaymentSelection struct {
	Method     PaymentMethod `json:"paymentMethod"`
	CardNumber string        `json:"-"`
	ExpiryDate string        `json:"-"`
	CVV        string        `json:"-"`
}

/*──────────────────────────── remote call ─────────────────────────────────*/

// Payload is the body sent to the booking-creation endpoint.
type Payload struct {
	ProductID      int64 `json:"product_id"`
	AvailabilityID int64 `json:"availability_id"`
	Quantity       int   `json:"quantity"`
}

// Confirmation is the backend's acknowledgement, kept as raw JSON.
type Confirmation json.RawMessage

// Empty reports whether c carries no usable confirmation: no bytes, or a
// JSON null, false, empty string, or zero.
func (c Confirmation) Empty() bool {
	switch string(bytes.TrimSpace(c)) {
	case "", "null", "false", `""`, "0":
		return true
	}
	return false
}

// MarshalJSON emits the raw bytes unchanged, or null when empty.  Bytes
// that are not JSON are emitted as a JSON string.
func (c Confirmation) MarshalJSON() ([]byte, error) {
	switch {
	case len(c) == 0:
		return []byte("null"), nil
	case !json.Valid(c):
		return json.Marshal(string(c))
	}
	return c, nil
}

/*──────────────────────────── presentation ────────────────────────────────*/

// Notice is a blocking, user-visible message that is not tied to a field.
type Notice struct {
	Failure FailureKind `json:"failure"`
	Title   string      `json:"title"`
	Message string      `json:"message"`
}

// PromptKind tells which question a Prompt asks.
type PromptKind string

const (
	PromptConfirmBooking PromptKind = "confirm_booking"
	PromptRemoveProduct  PromptKind = "remove_product"
)

// Prompt is a yes/no question put to the user.
type Prompt struct {
	Kind    PromptKind `json:"kind"`
	Title   string     `json:"title"`
	Message string     `json:"message,omitempty"`
	Yes     string     `json:"yes"`
	No      string     `json:"no"`
}

var (
	confirmPrompt = Prompt{
		Kind:    PromptConfirmBooking,
		Title:   "Confirm this reservation?",
		Message: "Check that your details are correct before continuing.",
		Yes:     "Yes, confirm",
		No:      "Cancel",
	}
	removePrompt = Prompt{
		Kind:  PromptRemoveProduct,
		Title: "Remove this product from the reservation?",
		Yes:   "Yes, remove",
		No:    "Cancel",
	}

	availabilityNotice = Notice{
		Failure: FailureAvailabilityMissing,
		Title:   "Availability error",
		Message: "No availability was found for the selected date.",
	}
	remoteNotice = Notice{
		Failure: FailureRemoteError,
		Title:   "Booking failed",
		Message: "We could not complete your reservation.  Please try again in a moment.",
	}
)

// Summary is the read-only product recap shown above the form.
type Summary struct {
	ProductID   int64   `json:"productId"`
	ProductName string  `json:"productName"`
	City        string  `json:"city"`
	Country     string  `json:"country"`
	ImageURL    string  `json:"imageUrl"`
	Date        string  `json:"date"`
	People      int     `json:"people"`
	UnitPrice   float64 `json:"unitPrice"`
	TotalPrice  float64 `json:"totalPrice"`
}

// View is a point-in-time copy of a draft for rendering.
type View struct {
	State        State         `json:"state"`
	LastFailure  FailureKind   `json:"lastFailure"`
	Summary      Summary       `json:"summary"`
	Contact      ContactForm   `json:"contact"`
	Payment      PaymentMethod `json:"paymentMethod"`
	CardRequired bool          `json:"cardRequired"`
	Errors       form.ErrorMap `json:"errors"`
	Prompt       *Prompt       `json:"prompt,omitempty"`
	Notice       *Notice       `json:"notice,omitempty"`
	LoginOpen    bool          `json:"loginOpen"`
	Confirmation Confirmation  `json:"confirmation,omitempty"`
	ShowConfirm  bool          `json:"showConfirmation"`
	Closed       bool          `json:"closed"`
}

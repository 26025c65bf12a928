// internal/booking/validate.go
//
// Review form validation.
//
// Context
// -------
// The rules live in `forms/review.yaml` and run through the generic form
// engine, so the client can fetch the same definition to hint at them.  This
// file only maps the typed input onto form values.

package booking

import (
	_ "embed"

	"github.com/yanizio/xplora/internal/form"
)

//go:embed forms/review.yaml
var reviewYAML []byte

var reviewForm = mustReviewForm()

func mustReviewForm() *form.FormDef {
	fd, err := form.ParseFormDef(reviewYAML, "booking/forms/review.yaml")
	if err != nil {
		panic(err)
	}
	form.Register(fd)
	return fd
}

// ReviewForm returns the parsed review form definition.
func ReviewForm() *form.FormDef { return reviewForm }

// Validate checks contact and payment input.  It is pure and returns an
// empty map when every rule passes.
func Validate(c ContactForm, p PaymentSelection) form.ErrorMap {
	return form.Validate(reviewForm, values(c, p))
}

func values(c ContactForm, p PaymentSelection) form.Values {
	return form.Values{
		FieldFirstName:     c.FirstName,
		FieldLastName:      c.LastName,
		FieldEmail:         c.Email,
		FieldPhone:         c.Phone,
		FieldPaymentMethod: string(p.Method),
		FieldCardNumber:    p.CardNumber,
		FieldExpiryDate:    p.ExpiryDate,
		FieldCVV:           p.CVV,
	}
}

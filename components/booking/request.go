// components/booking/request.go
//
// Inbound navigation state.
//
// The product page hands over either the whole product (as the public
// product API returns it) or just its ID.  An ID is looked up in the
// catalog.  Neither one means there is nothing to review, which is the
// render-only ErrNoProduct case, not a validation failure.

package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/yanizio/xplora/internal/booking"
	"github.com/yanizio/xplora/internal/catalog"
)

// startRequest is the body of POST /booking/review.
type startRequest struct {
	Product        *catalog.Product `json:"product"`
	ProductID      int64            `json:"productId"      validate:"gte=0"`
	SelectedDate   string           `json:"selectedDate"   validate:"required"`
	SelectedPeople int              `json:"selectedPeople" validate:"gte=1"`
	TotalPrice     float64          `json:"totalPrice"     validate:"gte=0"`
}

// fieldErrors is the 400 body for a malformed navigation state.
type fieldErrors map[string]string

func (fe fieldErrors) Error() string { return fmt.Sprintf("invalid navigation state: %v", map[string]string(fe)) }

// parseSelectedDate accepts a calendar date, read in server-local time, or
// an RFC 3339 timestamp, which keeps its own offset.
func parseSelectedDate(s string) (time.Time, error) {
	if t, err := time.ParseInLocation(catalog.DateLayout, s, time.Local); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// bookingContext turns the request into a booking.Context.
func (c *Component) bookingContext(ctx context.Context, req startRequest) (booking.Context, error) {
	if req.Product == nil && req.ProductID == 0 {
		return booking.Context{}, booking.ErrNoProduct
	}

	if err := c.validate.Struct(req); err != nil {
		var ves validator.ValidationErrors
		if errors.As(err, &ves) {
			fe := make(fieldErrors, len(ves))
			for _, ve := range ves {
				fe[ve.Namespace()] = ve.Tag()
			}
			return booking.Context{}, fe
		}
		return booking.Context{}, err
	}

	date, err := parseSelectedDate(req.SelectedDate)
	if err != nil {
		return booking.Context{}, fieldErrors{"startRequest.SelectedDate": "date"}
	}

	p := req.Product
	if p == nil {
		if c.deps.Catalog == nil {
			return booking.Context{}, booking.ErrNoProduct
		}
		p, err = c.deps.Catalog.ProductByID(ctx, req.ProductID)
		if errors.Is(err, catalog.ErrProductNotFound) {
			return booking.Context{}, fmt.Errorf("%w: %w", booking.ErrNoProduct, err)
		}
		if err != nil {
			return booking.Context{}, err
		}
	}
	return booking.NewContext(p, date, req.SelectedPeople, req.TotalPrice)
}

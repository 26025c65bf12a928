// internal/booking/availability.go
//
// Availability resolution.
//
// The selected date is reduced to its calendar day in its own location, so a
// late-evening selection does not roll into the next UTC day.  The first
// record with that day wins; duplicates are not rejected here.

package booking

import (
	"fmt"
	"time"

	"github.com/yanizio/xplora/internal/catalog"
)

// ResolveAvailability returns the availability record for date on p, or
// ErrAvailabilityNotFound.
func ResolveAvailability(p *catalog.Product, date time.Time) (catalog.Availability, error) {
	if p == nil {
		return catalog.Availability{}, ErrNoProduct
	}
	day := date.Format(catalog.DateLayout)
	for _, a := range p.AvailabilitySet {
		if a.Date == day {
			return a, nil
		}
	}
	return catalog.Availability{}, fmt.Errorf("%w: %s", ErrAvailabilityNotFound, day)
}

// internal/catalog/model.go
//
// Product aggregate as the review flow sees it.
//
// Context
// -------
// A Product row carries its City plus two child sets: the dates it can be
// booked on (`availability`) and its gallery (`image`).  The review screen
// needs all three, so the repository assembles them into one value.  JSON
// names follow the public product API (`availabilitySet`, `imageSet`) so a
// client may also post a product it already holds.
//
// Notes
// -----
//   - Availability.Date is a calendar date string, `YYYY-MM-DD`, never a
//     timestamp.
//   - Products are shared between drafts.  Treat them as read-only.
package catalog

// DateLayout is the calendar-date format used by availability records.
const DateLayout = "2006-01-02"

// City locates a product.
type City struct {
	Name    string `json:"name"`
	Country string `json:"country"`
}

// Availability is one bookable date for a product.
type Availability struct {
	ID   int64  `db:"id"   json:"id"   validate:"required"`
	Date string `db:"date" json:"date" validate:"required,datetime=2006-01-02"`
}

// Image is one gallery entry.
type Image struct {
	ID       int64  `db:"id"        json:"id"`
	ImageURL string `db:"image_url" json:"imageUrl"`
}

// Product is the aggregate handed to a review draft.
type Product struct {
	ID              int64          `json:"id"              validate:"required"`
	Name            string         `json:"name"`
	Price           float64        `json:"price"           validate:"gte=0"`
	City            City           `json:"city"`
	AvailabilitySet []Availability `json:"availabilitySet" validate:"dive"`
	ImageSet        []Image        `json:"imageSet"`
}

// CoverImage returns the first gallery URL or fallback when the set is empty.
func (p *Product) CoverImage(fallback string) string {
	if len(p.ImageSet) > 0 && p.ImageSet[0].ImageURL != "" {
		return p.ImageSet[0].ImageURL
	}
	return fallback
}

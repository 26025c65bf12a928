// internal/draft/entry.go
//
// Draft store entry.
//
// Context
// -------
// A Draft pairs a review Controller with the ID the client uses to address
// it.  The store wraps each Draft in an `entry` carrying a `lastSeen`
// UnixNano timestamp, which the evictor reads for idle and LRU eviction.
//
// Notes
// -----
//   - Drafts live in process memory only.  A restart drops them.
//   - Oxford commas, two spaces after periods.
package draft

import (
	"time"

	"github.com/yanizio/xplora/internal/booking"
)

//
// Cache entry
//

type entry struct {
	draft    *Draft
	lastSeen int64 // UnixNano
}

//
// Draft aggregate
//

// Draft is one review in progress.
type Draft struct {
	ID         string
	Created    time.Time
	Controller *booking.Controller
}

// internal/draft/store.go
//
// In-process draft store.
//
// Context
// -------
// Each review started over HTTP gets a random ID and a Controller.  The
// store keeps them in a sync.Map and evicts them on idle TTL or LRU
// pressure, so abandoned reviews do not pile up.  IDs come from
// google/uuid, so they cannot be guessed from one another.
package draft

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yanizio/xplora/internal/booking"
	"github.com/yanizio/xplora/internal/metrics"
)

// Static defaults.  Override via config.
const (
	IdleTTL       = 30 * time.Minute
	MaxEntries    = 10000
	EvictInterval = time.Minute
)

// ErrNotFound is returned for an unknown or evicted draft ID.
var ErrNotFound = errors.New("draft not found")

// BuildFunc constructs the controller for a new draft.  It receives the ID
// so presenters can refer back to the draft.
type BuildFunc func(id string) (*booking.Controller, error)

// Store holds live drafts.
type Store struct {
	m           sync.Map
	size        atomic.Int64
	idleTTL     time.Duration
	maxEntries  int
	evictTicker *time.Ticker
	stop        chan struct{}
	stopOnce    sync.Once

	newID func() string
	now   func() time.Time
}

// New constructs a Store and starts the background evictor.  Zero values
// fall back to the package defaults.
func New(idleTTL time.Duration, maxEntries int) *Store {
	if idleTTL <= 0 {
		idleTTL = IdleTTL
	}
	if maxEntries <= 0 {
		maxEntries = MaxEntries
	}
	s := &Store{
		idleTTL:    idleTTL,
		maxEntries: maxEntries,
		stop:       make(chan struct{}),
		newID:      uuid.NewString,
		now:        time.Now,
	}
	s.evictTicker = time.NewTicker(EvictInterval)
	go s.evictLoop()
	return s
}

// Create builds and stores a new draft.
func (s *Store) Create(build BuildFunc) (*Draft, error) {
	id := s.newID()
	ctrl, err := build(id)
	if err != nil {
		return nil, fmt.Errorf("build draft: %w", err)
	}

	now := s.now()
	d := &Draft{ID: id, Created: now, Controller: ctrl}
	s.m.Store(id, &entry{draft: d, lastSeen: now.UnixNano()})
	s.size.Add(1)
	metrics.ActiveDrafts.Inc()
	zap.S().Debugw("draft created", "draft", id)
	return d, nil
}

// Get returns the draft for id and marks it as seen.
func (s *Store) Get(id string) (*Draft, error) {
	v, ok := s.m.Load(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	ent := v.(*entry)
	atomic.StoreInt64(&ent.lastSeen, s.now().UnixNano())
	return ent.draft, nil
}

// Delete drops id.  It reports whether the draft was present.
func (s *Store) Delete(id string) bool {
	return s.remove(id, "closed")
}

// Len returns the number of live drafts.
func (s *Store) Len() int { return int(s.size.Load()) }

// Close stops the evictor.  Stored drafts stay readable.
func (s *Store) Close() {
	s.stopOnce.Do(func() {
		s.evictTicker.Stop()
		close(s.stop)
	})
}

func (s *Store) remove(id, reason string) bool {
	if _, loaded := s.m.LoadAndDelete(id); !loaded {
		return false
	}
	s.size.Add(-1)
	metrics.ActiveDrafts.Dec()
	metrics.DraftEvictTotal.WithLabelValues(reason).Inc()
	return true
}

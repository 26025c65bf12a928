// internal/component/registry.go
//
// Component registry (cycle-free).
//
// Each concrete component lives under components/<name> and calls
// component.Register() in an init() function.  cmd/web builds one Deps
// value after boot, calls Init(deps) on every component, and then mounts
// each component’s Routes() under “/<name>”, so two components never
// claim the same prefix.

package component

import (
	"context"
	"sort"
	"sync"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/xplora/internal/booking"
	"github.com/yanizio/xplora/internal/catalog"
	"github.com/yanizio/xplora/internal/config"
	"github.com/yanizio/xplora/internal/draft"
)

// ProductSource looks products up by ID.  *catalog.Repository satisfies it.
type ProductSource interface {
	ProductByID(ctx context.Context, id int64) (*catalog.Product, error)
}

// Deps carries the shared services a component may use.  Catalog may be
// nil when no database is configured; components must then accept inline
// products only.
type Deps struct {
	Config  *config.Config
	Catalog ProductSource
	Drafts  *draft.Store
	Backend booking.BookingAPI
	Logger  *zap.SugaredLogger
}

// Component contract.
//
// Routes() should mount every endpoint the component serves, e.g:
//
//	r := chi.NewRouter()
//	r.Post("/review", c.handleStart)             // → /booking/review
//	r.Route("/review/{id}", func(d chi.Router) { ... })
//	return r
type Component interface {
	Name() string
	Init(Deps) error
	Routes() chi.Router
}

var (
	mu       sync.RWMutex
	registry = map[string]Component{}
)

// Register is invoked from component init() functions.
func Register(c Component) {
	mu.Lock()
	registry[c.Name()] = c
	mu.Unlock()
}

// All returns every registered component sorted by name.
func All() []Component {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Component, 0, len(registry))
	for _, c := range registry {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Mount initialises every registered component with deps and mounts its
// routes on r.  The first Init error aborts.
func Mount(r chi.Router, deps Deps) error {
	for _, c := range All() {
		if err := c.Init(deps); err != nil {
			return err
		}
		prefix := "/" + c.Name()
		r.Mount(prefix, c.Routes())
		zap.S().Infow("component mounted", "component", c.Name(), "prefix", prefix)
	}
	return nil
}

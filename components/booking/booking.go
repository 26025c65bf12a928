// components/booking/booking.go
//
// Booking review component – HTTP surface of the review workflow.
//
// Context
//   A client arrives from the product page with its navigation state
//   (product, date, party size, price) and POSTs it to /booking/review.
//   That creates a draft: one booking.Controller held in the draft store
//   under a random ID.  Every later call addresses the draft by ID, reads a
//   snapshot, edits fields, and walks the confirm → answer steps.  The
//   login sub-flow, notice dialogs, and confirmation display live in the
//   client; the snapshot tells it which of them to show.
//
// Routes (mounted under /booking)
//     GET  /review/form                     form definition
//     POST /review                          start draft
//     GET  /review/{id}                     snapshot + csrf token
//     PATCH /review/{id}/fields             field edits
//     POST /review/{id}/validate            recompute errors
//     POST /review/{id}/confirm             open confirmation prompt
//     POST /review/{id}/confirm/answer      {"yes": bool}
//     POST /review/{id}/login/success       login sub-flow finished
//     POST /review/{id}/login/close         login sub-flow dismissed
//     POST /review/{id}/confirmation/close  confirmation display closed
//     POST /review/{id}/notice/dismiss      notice dialog closed
//     POST /review/{id}/remove              open removal prompt
//     POST /review/{id}/remove/answer       {"yes": bool}
//     POST /review/{id}/back                header back action
//
// Every route under /review/{id} except GET requires the X-CSRF-Token
// header issued with the draft.
//
//------------------------------------------------------------------------------

package booking

import (
	"errors"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/yanizio/xplora/internal/booking"
	"github.com/yanizio/xplora/internal/component"
	"github.com/yanizio/xplora/internal/config"
	"github.com/yanizio/xplora/internal/form"
	"github.com/yanizio/xplora/internal/session"
)

// HeaderCSRF carries the draft-bound token on mutating requests.
const HeaderCSRF = "X-CSRF-Token"

// Compile-time assertion: *Component satisfies component.Component.
var _ component.Component = (*Component)(nil)

// Component serves the booking review workflow.
type Component struct {
	deps     component.Deps
	gate     *booking.Gate
	signer   *form.Signer
	validate *validator.Validate
	log      *zap.SugaredLogger

	cookieName string
	cookieTTL  time.Duration
	opts       booking.Options
}

/*────────────────── component.Component methods ───────────────────────────*/

// Name returns the canonical component key and route prefix.
func (c *Component) Name() string { return "booking" }

// Init wires shared services.  Drafts and Backend are mandatory; Catalog is
// optional.
func (c *Component) Init(deps component.Deps) error {
	if deps.Drafts == nil {
		return errors.New("booking component: draft store missing")
	}
	if deps.Backend == nil {
		return errors.New("booking component: backend client missing")
	}
	cfg := deps.Config
	if cfg == nil {
		cfg = &config.Config{}
	}

	c.deps = deps
	c.log = deps.Logger
	if c.log == nil {
		c.log = zap.S()
	}
	c.log = c.log.Named("booking")
	c.gate = booking.NewGate(session.ContextProvider{})
	c.signer = form.NewSigner(cfg.CSRF.Key, cfg.CSRF.MaxAge)
	c.validate = validator.New()
	c.cookieName = cfg.Session.CookieName
	c.cookieTTL = cfg.Session.CookieTTL
	c.opts = booking.Options{
		ResumeAfterLogin: cfg.Booking.ResumeAfterLogin,
		FallbackImage:    cfg.Booking.FallbackImage,
	}
	return nil
}

// Routes builds the router mounted at /booking.
func (c *Component) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(session.Middleware(c.cookieName))

	r.Get("/review/form", c.handleForm)
	r.Post("/review", c.handleStart)

	r.Route("/review/{id}", func(d chi.Router) {
		d.Use(c.loadDraft)
		d.Get("/", c.handleSnapshot)

		d.Group(func(m chi.Router) {
			m.Use(c.requireCSRF)
			m.Patch("/fields", c.handleFields)
			m.Post("/validate", c.handleValidate)
			m.Post("/confirm", c.handleConfirm)
			m.Post("/confirm/answer", c.handleConfirmAnswer)
			m.Post("/login/success", c.handleLoginSuccess)
			m.Post("/login/close", c.handleLoginClose)
			m.Post("/confirmation/close", c.handleConfirmationClose)
			m.Post("/notice/dismiss", c.handleNoticeDismiss)
			m.Post("/remove", c.handleRemove)
			m.Post("/remove/answer", c.handleRemoveAnswer)
			m.Post("/back", c.handleBack)
		})
	})
	return r
}

// Register component at program start.
func init() { component.Register(&Component{}) }

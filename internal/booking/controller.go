// internal/booking/controller.go
//
// Booking submission controller.
//
// Context
// -------
// One Controller owns one review draft.  It holds the contact and payment
// input, the current ErrorMap, and the submission state, and it drives the
// confirmation pipeline:
//
//	confirm prompt → Validate → Gate → ResolveAvailability → CreateBooking
//
// Each stage must succeed before the next starts.  A failing stage records a
// Failed(kind) transition, surfaces its outcome, and returns the draft to
// Idle.  Nothing is retried automatically.
//
// Concurrency
// -----------
// Methods are safe for concurrent use.  The mutex guards all draft state and
// is released around the remote call, which is the only suspension point.
// Triggers are rejected with ErrBusy while the draft is not Idle, so at most
// one remote call is ever in flight per draft.  Presenter callbacks run after
// the lock is released, so a presenter may call Snapshot.
//
// Notes
// -----
//   - Prompts are modelled as state.  RequestConfirmation opens the prompt and
//     Answer resolves it; Submit does both through a Prompter.
//   - A remote failure is logged and shown as a generic notice.
//   - Observers run with the draft locked and must not call back into it.
package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/xplora/internal/catalog"
	"github.com/yanizio/xplora/internal/form"
	"github.com/yanizio/xplora/internal/metrics"
)

/*──────────────────────────── capabilities ────────────────────────────────*/

// BookingAPI creates a booking on the backend.  Any error, or an empty
// confirmation, is a failure.
type BookingAPI interface {
	CreateBooking(ctx context.Context, credential string, p Payload) (Confirmation, error)
}

// Presenter is the user-facing side of the draft.
type Presenter interface {
	OpenLogin()
	ShowNotice(n Notice)
	ShowConfirmation(c Confirmation)
	NavigateBack()
}

// Prompter asks the user a yes/no question and waits for the answer.
type Prompter interface {
	Confirm(ctx context.Context, p Prompt) (bool, error)
}

// Observer is told about every state transition.
type Observer func(from, to State, failure FailureKind)

// Options tunes a Controller.  The zero value is usable.
type Options struct {
	Presenter        Presenter
	Prompter         Prompter
	Logger           *zap.SugaredLogger
	ResumeAfterLogin bool   // retry the submission once login succeeds
	FallbackImage    string // cover image when the product has none
	Observers        []Observer
}

// Outcome reports how a confirmation attempt ended.
type Outcome struct {
	State        State         `json:"state"`
	Failure      FailureKind   `json:"failure"`
	Cancelled    bool          `json:"cancelled,omitempty"`
	Errors       form.ErrorMap `json:"errors,omitempty"`
	Confirmation Confirmation  `json:"confirmation,omitempty"`
	Err          error         `json:"-"`
}

var (
	errEmptyConfirmation     = errors.New("empty confirmation")
	errMalformedConfirmation = errors.New("confirmation is not JSON")
)

/*──────────────────────────── controller ──────────────────────────────────*/

// Controller drives one review draft.
type Controller struct {
	bc        Context
	gate      *Gate
	api       BookingAPI
	presenter Presenter
	prompter  Prompter
	log       *zap.SugaredLogger
	opts      Options

	mu           sync.Mutex
	state        State
	lastFailure  FailureKind
	contact      ContactForm
	payment      PaymentSelection
	errs         form.ErrorMap
	prompt       *Prompt
	notice       *Notice
	loginOpen    bool
	resume       bool
	confirmation Confirmation
	showConfirm  bool
	closed       bool
}

// NewController returns an Idle controller for bc.
func NewController(bc Context, gate *Gate, api BookingAPI, opts Options) (*Controller, error) {
	if bc.Product == nil {
		return nil, ErrNoProduct
	}
	if api == nil {
		return nil, errors.New("booking: nil BookingAPI")
	}
	c := &Controller{
		bc:        bc,
		gate:      gate,
		api:       api,
		presenter: opts.Presenter,
		prompter:  opts.Prompter,
		log:       opts.Logger,
		opts:      opts,
		errs:      make(form.ErrorMap),
	}
	if c.presenter == nil {
		c.presenter = nopPresenter{}
	}
	if c.log == nil {
		c.log = zap.S()
	}
	c.log = c.log.With("product_id", bc.Product.ID)
	return c, nil
}

// Context returns the navigation state the draft was created from.
func (c *Controller) Context() Context { return c.bc }

/*──────────────────────────── field edits ─────────────────────────────────*/

// Update sets one field and clears its error.  Other errors are kept until
// the next Validate.
func (c *Controller) Update(field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.editableLocked(); err != nil {
		return err
	}
	switch field {
	case FieldFirstName:
		c.contact.FirstName = value
	case FieldLastName:
		c.contact.LastName = value
	case FieldEmail:
		c.contact.Email = value
	case FieldPhone:
		c.contact.Phone = value
	case FieldCardNumber:
		c.payment.CardNumber = value
	case FieldExpiryDate:
		c.payment.ExpiryDate = value
	case FieldCVV:
		c.payment.CVV = value
	case FieldPaymentMethod:
		return c.setMethodLocked(PaymentMethod(value))
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	c.errs.Clear(field)
	return nil
}

// SetPaymentMethod selects the payment method.  Leaving card clears the
// card-field errors since those fields are no longer required.
func (c *Controller) SetPaymentMethod(m PaymentMethod) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.editableLocked(); err != nil {
		return err
	}
	return c.setMethodLocked(m)
}

func (c *Controller) setMethodLocked(m PaymentMethod) error {
	if !m.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownPaymentMethod, m)
	}
	c.payment.Method = m
	c.errs.Clear(FieldPaymentMethod)
	if m != MethodCard {
		for _, f := range cardFields {
			c.errs.Clear(f)
		}
	}
	return nil
}

// Validate recomputes the ErrorMap from the current input and returns a copy.
func (c *Controller) Validate() form.ErrorMap {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.inFlight() {
		c.errs = Validate(c.contact, c.payment)
	}
	return c.errs.Clone()
}

/*──────────────────────────── confirmation ────────────────────────────────*/

// RequestConfirmation moves Idle → ConfirmPending and returns the prompt the
// user must answer.
func (c *Controller) RequestConfirmation() (Prompt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.triggerableLocked(); err != nil {
		return Prompt{}, err
	}
	c.notice = nil
	p := confirmPrompt
	c.prompt = &p
	c.transitionLocked(StateConfirmPending, FailureNone)
	return p, nil
}

// Answer resolves the confirmation prompt.  "No" returns to Idle with no
// side effects; "yes" runs the pipeline.  The error is non-nil only when no
// confirmation prompt is open; pipeline failures are reported in Outcome.
func (c *Controller) Answer(ctx context.Context, yes bool) (Outcome, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Outcome{}, ErrClosed
	}
	if c.state != StateConfirmPending || c.prompt == nil || c.prompt.Kind != PromptConfirmBooking {
		c.mu.Unlock()
		return Outcome{}, ErrNoPendingPrompt
	}
	c.prompt = nil

	if !yes {
		c.transitionLocked(StateIdle, FailureNone)
		c.mu.Unlock()
		return Outcome{State: StateIdle, Cancelled: true}, nil
	}
	return c.runLocked(ctx), nil
}

// Submit asks the Prompter to confirm and, on "yes", runs the pipeline.  A
// prompt error counts as "no" and is returned.
func (c *Controller) Submit(ctx context.Context) (Outcome, error) {
	if c.prompter == nil {
		return Outcome{}, ErrNoPrompter
	}
	p, err := c.RequestConfirmation()
	if err != nil {
		return Outcome{}, err
	}

	yes, err := c.prompter.Confirm(ctx, p)
	if err != nil {
		c.cancelPrompt(PromptConfirmBooking)
		return Outcome{State: StateIdle, Cancelled: true}, fmt.Errorf("confirm prompt: %w", err)
	}
	return c.Answer(ctx, yes)
}

// runLocked executes the pipeline.  It is entered with c.mu held and
// returns with it released.
func (c *Controller) runLocked(ctx context.Context) Outcome {
	c.transitionLocked(StateValidating, FailureNone)
	c.errs = Validate(c.contact, c.payment)
	if !c.errs.Valid() {
		return c.failAndUnlock(FailureFormInvalid, nil, nil)
	}

	c.transitionLocked(StateAuthenticating, FailureNone)
	cred, err := c.gate.RequireSession(ctx)
	if err != nil {
		c.loginOpen = true
		c.resume = c.opts.ResumeAfterLogin
		return c.failAndUnlock(FailureAuthRequired, err, c.presenter.OpenLogin)
	}

	c.transitionLocked(StateResolvingAvailability, FailureNone)
	av, err := ResolveAvailability(c.bc.Product, c.bc.SelectedDate)
	if err != nil {
		n := availabilityNotice
		c.notice = &n
		return c.failAndUnlock(FailureAvailabilityMissing, err, func() { c.presenter.ShowNotice(n) })
	}

	payload := Payload{
		ProductID:      c.bc.Product.ID,
		AvailabilityID: av.ID,
		Quantity:       c.bc.SelectedPeople,
	}
	c.transitionLocked(StateSubmitting, FailureNone)
	c.mu.Unlock()

	start := time.Now()
	conf, err := c.createBooking(ctx, cred, payload)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.RemoteCallSeconds.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	c.mu.Lock()
	if err != nil {
		c.log.Errorw("booking creation failed",
			"availability_id", payload.AvailabilityID,
			"quantity", payload.Quantity,
			"err", err)
		n := remoteNotice
		c.notice = &n
		return c.failAndUnlock(FailureRemoteError, fmt.Errorf("%w: %w", ErrRemote, err),
			func() { c.presenter.ShowNotice(n) })
	}

	c.confirmation = conf
	c.showConfirm = true
	c.lastFailure = FailureNone
	c.transitionLocked(StateSucceeded, FailureNone)
	c.mu.Unlock()

	c.log.Infow("booking confirmed", "availability_id", payload.AvailabilityID, "quantity", payload.Quantity)
	c.presenter.ShowConfirmation(conf)
	return Outcome{State: StateSucceeded, Confirmation: conf}
}

// createBooking calls the backend with c.mu released.  A panic in the API
// and an empty or non-JSON confirmation all come back as errors, so the
// draft always leaves Submitting.
func (c *Controller) createBooking(ctx context.Context, cred string, p Payload) (conf Confirmation, err error) {
	defer func() {
		if r := recover(); r != nil {
			conf, err = nil, fmt.Errorf("booking api panic: %v", r)
		}
	}()

	conf, err = c.api.CreateBooking(ctx, cred, p)
	switch {
	case err != nil:
		return nil, err
	case conf.Empty():
		return nil, errEmptyConfirmation
	case !json.Valid(conf):
		return nil, errMalformedConfirmation
	}
	return conf, nil
}

// failAndUnlock records Failed(kind), returns to Idle, releases c.mu, and
// then runs effect.
func (c *Controller) failAndUnlock(kind FailureKind, err error, effect func()) Outcome {
	c.lastFailure = kind
	c.transitionLocked(StateFailed, kind)
	c.transitionLocked(StateIdle, FailureNone)
	out := Outcome{State: StateIdle, Failure: kind, Errors: c.errs.Clone(), Err: err}
	c.mu.Unlock()

	if effect != nil {
		effect()
	}
	return out
}

/*──────────────────────────── sub-flow signals ────────────────────────────*/

// LoginSucceeded closes the login sub-flow.  With ResumeAfterLogin set and a
// submission interrupted by the gate, the pipeline runs again and resumed is
// true.
func (c *Controller) LoginSucceeded(ctx context.Context) (out Outcome, resumed bool, err error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Outcome{}, false, ErrClosed
	}
	c.loginOpen = false

	if !c.resume || c.state != StateIdle || c.prompt != nil {
		c.resume = false
		out = Outcome{State: c.state, Failure: c.lastFailure}
		c.mu.Unlock()
		return out, false, nil
	}
	c.resume = false
	c.notice = nil
	c.log.Debugw("resuming submission after login")
	return c.runLocked(ctx), true, nil
}

// CloseLogin dismisses the login sub-flow without logging in.
func (c *Controller) CloseLogin() {
	c.mu.Lock()
	c.loginOpen = false
	c.resume = false
	c.mu.Unlock()
}

// CloseConfirmation dismisses the confirmation display.
func (c *Controller) CloseConfirmation() {
	c.mu.Lock()
	c.showConfirm = false
	c.mu.Unlock()
}

// DismissNotice clears the current notice.
func (c *Controller) DismissNotice() {
	c.mu.Lock()
	c.notice = nil
	c.mu.Unlock()
}

/*──────────────────────────── snapshot ────────────────────────────────────*/

// Snapshot returns a copy of the draft for rendering.
func (c *Controller) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.bc.Product
	v := View{
		State:       c.state,
		LastFailure: c.lastFailure,
		Summary: Summary{
			ProductID:   p.ID,
			ProductName: p.Name,
			City:        p.City.Name,
			Country:     p.City.Country,
			ImageURL:    p.CoverImage(c.opts.FallbackImage),
			Date:        c.bc.SelectedDate.Format(catalog.DateLayout),
			People:      c.bc.SelectedPeople,
			UnitPrice:   p.Price,
			TotalPrice:  c.bc.TotalPrice,
		},
		Contact:      c.contact,
		Payment:      c.payment.Method,
		CardRequired: c.payment.Method == MethodCard,
		Errors:       c.errs.Clone(),
		LoginOpen:    c.loginOpen,
		Confirmation: c.confirmation,
		ShowConfirm:  c.showConfirm,
		Closed:       c.closed,
	}
	if c.prompt != nil {
		pr := *c.prompt
		v.Prompt = &pr
	}
	if c.notice != nil {
		n := *c.notice
		v.Notice = &n
	}
	return v
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

func (c *Controller) editableLocked() error {
	switch {
	case c.closed:
		return ErrClosed
	case c.state == StateSucceeded:
		return ErrAlreadyBooked
	case c.state.inFlight():
		return ErrBusy
	}
	return nil
}

func (c *Controller) triggerableLocked() error {
	switch {
	case c.closed:
		return ErrClosed
	case c.state == StateSucceeded:
		return ErrAlreadyBooked
	case c.state != StateIdle, c.prompt != nil:
		return ErrBusy
	}
	return nil
}

// cancelPrompt closes an open prompt of kind k as if answered "no".
func (c *Controller) cancelPrompt(k PromptKind) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.prompt == nil || c.prompt.Kind != k {
		return
	}
	c.prompt = nil
	if c.state == StateConfirmPending {
		c.transitionLocked(StateIdle, FailureNone)
	}
}

func (c *Controller) transitionLocked(to State, failure FailureKind) {
	from := c.state
	c.state = to
	metrics.TransitionTotal.WithLabelValues(to.String(), failure.String()).Inc()
	c.log.Debugw("booking transition", "from", from, "to", to, "failure", failure)
	for _, ob := range c.opts.Observers {
		ob(from, to, failure)
	}
}

type nopPresenter struct{}

func (nopPresenter) OpenLogin()                    {}
func (nopPresenter) ShowNotice(Notice)             {}
func (nopPresenter) ShowConfirmation(Confirmation) {}
func (nopPresenter) NavigateBack()                 {}

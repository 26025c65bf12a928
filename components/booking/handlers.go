// components/booking/handlers.go
//
// Route handlers.  Each one resolves the draft placed in the context by
// loadDraft, calls one controller operation, and answers with JSON.

package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/xplora/internal/backend"
	"github.com/yanizio/xplora/internal/booking"
	"github.com/yanizio/xplora/internal/draft"
	"github.com/yanizio/xplora/internal/logger"
	"github.com/yanizio/xplora/internal/session"
)

const maxBodyBytes = 64 << 10

var errBadBody = errors.New("malformed request body")

type draftKey struct{}

/*──────────────────────────── response shapes ─────────────────────────────*/

type draftResponse struct {
	ID        string       `json:"id"`
	CSRFToken string       `json:"csrfToken,omitempty"`
	View      booking.View `json:"view"`
}

type outcomeResponse struct {
	Outcome booking.Outcome `json:"outcome"`
	Resumed bool            `json:"resumed,omitempty"`
	View    booking.View    `json:"view"`
}

type promptResponse struct {
	Prompt booking.Prompt `json:"prompt"`
	View   booking.View   `json:"view"`
}

type removalResponse struct {
	Result booking.RemovalResult `json:"result"`
	View   booking.View          `json:"view"`
}

type answerRequest struct {
	Yes bool `json:"yes"`
}

type loginRequest struct {
	Token string `json:"token"`
}

type formField struct {
	Name        string   `json:"name"`
	Label       string   `json:"label"`
	Type        string   `json:"type"`
	Placeholder string   `json:"placeholder,omitempty"`
	Required    bool     `json:"required"`
	RequiredIf  string   `json:"requiredWhen,omitempty"`
	Options     []string `json:"options,omitempty"`
}

/*──────────────────────────── middleware ──────────────────────────────────*/

// loadDraft resolves {id} and stores the draft in the request context.
func (c *Component) loadDraft(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		d, err := c.deps.Drafts.Get(id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		log := logger.FromContext(r.Context()).With("draft", id)
		ctx := context.WithValue(r.Context(), draftKey{}, d)
		ctx = logger.WithContext(ctx, log)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireCSRF checks the draft-bound token.
func (c *Component) requireCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d := draftFrom(r)
		if !c.signer.Verify(d.ID, r.Header.Get(HeaderCSRF)) {
			writeError(w, r, errCSRF)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func draftFrom(r *http.Request) *draft.Draft {
	d, _ := r.Context().Value(draftKey{}).(*draft.Draft)
	return d
}

// decode reads a JSON body into v.  An empty body leaves v untouched.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %w", errBadBody, err)
	}
	return nil
}

// dropRejectedSession clears the session cookie when the backend refused
// the credential, so the next attempt goes through login again.
func (c *Component) dropRejectedSession(w http.ResponseWriter, r *http.Request, out booking.Outcome) {
	if out.Failure != booking.FailureRemoteError || !backend.IsUnauthorized(out.Err) {
		return
	}
	session.Clear(w, c.cookieName)
	logger.FromContext(r.Context()).Infow("session cleared after backend rejected credential")
}

// detached keeps request values (credential, logger) but drops
// cancellation, so a client disconnect does not abort a booking that is
// already on its way to the backend.  The backend client's timeout still
// applies.
func detached(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

/*──────────────────────────── handlers ────────────────────────────────────*/

func (c *Component) handleForm(w http.ResponseWriter, r *http.Request) {
	fd := booking.ReviewForm()
	out := make([]formField, 0, len(fd.Fields))
	for _, f := range fd.Fields {
		ff := formField{
			Name:        f.Name,
			Label:       f.Label,
			Type:        f.Type,
			Placeholder: f.Placeholder,
			Required:    f.Required,
			Options:     f.Options,
		}
		if f.RequiredWhen != nil {
			ff.RequiredIf = f.RequiredWhen.Field + "=" + f.RequiredWhen.Equals
		}
		out = append(out, ff)
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": fd.ID, "title": fd.Title, "fields": out})
}

func (c *Component) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	bc, err := c.bookingContext(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	d, err := c.deps.Drafts.Create(func(id string) (*booking.Controller, error) {
		log := c.log.With("draft", id)
		opts := c.opts
		opts.Logger = log
		opts.Presenter = &presenter{id: id, drafts: c.deps.Drafts, log: log}
		return booking.NewController(bc, c.gate, c.deps.Backend, opts)
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	logger.FromContext(r.Context()).Infow("review started",
		"draft", d.ID,
		"product_id", bc.Product.ID,
		"date", req.SelectedDate,
		"people", bc.SelectedPeople)
	c.writeDraft(w, r, http.StatusCreated, d)
}

func (c *Component) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	c.writeDraft(w, r, http.StatusOK, draftFrom(r))
}

func (c *Component) writeDraft(w http.ResponseWriter, r *http.Request, status int, d *draft.Draft) {
	tok, err := c.signer.Generate(d.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, status, draftResponse{ID: d.ID, CSRFToken: tok, View: d.Controller.Snapshot()})
}

// handleFields applies {"field": "value", ...}.  paymentMethod goes first
// so card fields sent alongside it are kept.  The first bad field aborts;
// fields applied before it stay applied.
func (c *Component) handleFields(w http.ResponseWriter, r *http.Request) {
	var edits map[string]string
	if err := decode(w, r, &edits); err != nil {
		writeError(w, r, err)
		return
	}
	keys := make([]string, 0, len(edits))
	for k := range edits {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if (keys[i] == booking.FieldPaymentMethod) != (keys[j] == booking.FieldPaymentMethod) {
			return keys[i] == booking.FieldPaymentMethod
		}
		return keys[i] < keys[j]
	})

	ctrl := draftFrom(r).Controller
	for _, k := range keys {
		if err := ctrl.Update(k, edits[k]); err != nil {
			writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, ctrl.Snapshot())
}

func (c *Component) handleValidate(w http.ResponseWriter, r *http.Request) {
	ctrl := draftFrom(r).Controller
	errs := ctrl.Validate()
	writeJSON(w, http.StatusOK, map[string]any{"valid": errs.Valid(), "errors": errs})
}

func (c *Component) handleConfirm(w http.ResponseWriter, r *http.Request) {
	ctrl := draftFrom(r).Controller
	p, err := ctrl.RequestConfirmation()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, promptResponse{Prompt: p, View: ctrl.Snapshot()})
}

func (c *Component) handleConfirmAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	ctrl := draftFrom(r).Controller
	out, err := ctrl.Answer(detached(r), req.Yes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c.dropRejectedSession(w, r, out)
	writeJSON(w, http.StatusOK, outcomeResponse{Outcome: out, View: ctrl.Snapshot()})
}

// handleLoginSuccess closes the login sub-flow.  The body may carry the
// fresh credential, which is then stored in the session cookie and used
// right away; otherwise the credential already on the request is used.
func (c *Component) handleLoginSuccess(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Token != "" {
		session.Store(w, r, c.cookieName, req.Token, c.cookieTTL)
		r = r.WithContext(session.WithCredential(r.Context(), req.Token))
	}

	ctrl := draftFrom(r).Controller
	out, resumed, err := ctrl.LoginSucceeded(detached(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	c.dropRejectedSession(w, r, out)
	writeJSON(w, http.StatusOK, outcomeResponse{Outcome: out, Resumed: resumed, View: ctrl.Snapshot()})
}

func (c *Component) handleLoginClose(w http.ResponseWriter, r *http.Request) {
	ctrl := draftFrom(r).Controller
	ctrl.CloseLogin()
	writeJSON(w, http.StatusOK, ctrl.Snapshot())
}

func (c *Component) handleConfirmationClose(w http.ResponseWriter, r *http.Request) {
	ctrl := draftFrom(r).Controller
	ctrl.CloseConfirmation()
	writeJSON(w, http.StatusOK, ctrl.Snapshot())
}

func (c *Component) handleNoticeDismiss(w http.ResponseWriter, r *http.Request) {
	ctrl := draftFrom(r).Controller
	ctrl.DismissNotice()
	writeJSON(w, http.StatusOK, ctrl.Snapshot())
}

func (c *Component) handleRemove(w http.ResponseWriter, r *http.Request) {
	ctrl := draftFrom(r).Controller
	p, err := ctrl.BeginRemoval()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, promptResponse{Prompt: p, View: ctrl.Snapshot()})
}

func (c *Component) handleRemoveAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	ctrl := draftFrom(r).Controller
	res, err := ctrl.ResolveRemoval(req.Yes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, removalResponse{Result: res, View: ctrl.Snapshot()})
}

func (c *Component) handleBack(w http.ResponseWriter, r *http.Request) {
	if err := draftFrom(r).Controller.Back(); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// components/booking/booking_test.go
//
// Run: go test ./components/booking -v

package booking

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yanizio/xplora/internal/backend"
	"github.com/yanizio/xplora/internal/booking"
	"github.com/yanizio/xplora/internal/catalog"
	"github.com/yanizio/xplora/internal/component"
	"github.com/yanizio/xplora/internal/config"
	"github.com/yanizio/xplora/internal/draft"
)

/*──────────────────────────── fakes ───────────────────────────────────────*/

type fakeCatalog map[int64]*catalog.Product

func (f fakeCatalog) ProductByID(_ context.Context, id int64) (*catalog.Product, error) {
	if p, ok := f[id]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: %d", catalog.ErrProductNotFound, id)
}

type fakeBackend struct {
	mu      sync.Mutex
	creds   []string
	payload []booking.Payload
	reply   booking.Confirmation
	err     error
}

func (b *fakeBackend) CreateBooking(_ context.Context, cred string, p booking.Payload) (booking.Confirmation, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.creds = append(b.creds, cred)
	b.payload = append(b.payload, p)
	return b.reply, b.err
}

/*──────────────────────────── decoded shapes ──────────────────────────────*/

type viewJSON struct {
	State       string `json:"state"`
	LastFailure string `json:"lastFailure"`
	Summary     struct {
		ProductID  int64   `json:"productId"`
		Date       string  `json:"date"`
		People     int     `json:"people"`
		TotalPrice float64 `json:"totalPrice"`
		ImageURL   string  `json:"imageUrl"`
	} `json:"summary"`
	Errors       map[string]string       `json:"errors"`
	Payment      string                  `json:"paymentMethod"`
	LoginOpen    bool                    `json:"loginOpen"`
	Notice       *struct{ Title string } `json:"notice"`
	Confirmation json.RawMessage         `json:"confirmation"`
	ShowConfirm  bool                    `json:"showConfirmation"`
	Closed       bool                    `json:"closed"`
}

type draftJSON struct {
	ID        string   `json:"id"`
	CSRFToken string   `json:"csrfToken"`
	View      viewJSON `json:"view"`
}

type outcomeJSON struct {
	Outcome struct {
		State        string          `json:"state"`
		Failure      string          `json:"failure"`
		Cancelled    bool            `json:"cancelled"`
		Confirmation json.RawMessage `json:"confirmation"`
	} `json:"outcome"`
	Resumed bool     `json:"resumed"`
	View    viewJSON `json:"view"`
}

/*──────────────────────────── harness ─────────────────────────────────────*/

const confirmation = `{"id":901,"status":"CONFIRMED"}`

type harness struct {
	t       *testing.T
	h       http.Handler
	drafts  *draft.Store
	backend *fakeBackend
	cookie  string
}

func newHarness(t *testing.T, resume bool) *harness {
	t.Helper()
	store := draft.New(time.Hour, 100)
	t.Cleanup(store.Close)

	cfg := &config.Config{}
	cfg.CSRF.Key = base64.RawURLEncoding.EncodeToString([]byte(strings.Repeat("k", 32)))
	cfg.Session.CookieName = "xplora_session"
	cfg.Session.CookieTTL = time.Hour
	cfg.Booking.ResumeAfterLogin = resume
	cfg.Booking.FallbackImage = "https://img.example/fallback.jpg"

	be := &fakeBackend{reply: booking.Confirmation(confirmation)}
	c := &Component{}
	err := c.Init(component.Deps{
		Config: cfg,
		Catalog: fakeCatalog{42: {
			ID:    42,
			Name:  "Sunset kayak tour",
			Price: 60,
			City:  catalog.City{Name: "Cartagena", Country: "Colombia"},
			AvailabilitySet: []catalog.Availability{
				{ID: 7, Date: "2024-06-01"},
				{ID: 8, Date: "2024-06-02"},
			},
		}},
		Drafts:  store,
		Backend: be,
	})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	return &harness{t: t, h: c.Routes(), drafts: store, backend: be}
}

func (h *harness) do(method, path, csrf string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			h.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if csrf != "" {
		req.Header.Set(HeaderCSRF, csrf)
	}
	if h.cookie != "" {
		req.AddCookie(&http.Cookie{Name: "xplora_session", Value: h.cookie})
	}
	rec := httptest.NewRecorder()
	h.h.ServeHTTP(rec, req)
	return rec
}

func decodeAs[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %T: %v (body %s)", v, err, rec.Body.String())
	}
	return v
}

func (h *harness) start() draftJSON {
	h.t.Helper()
	rec := h.do(http.MethodPost, "/review", "", map[string]any{
		"productId":      42,
		"selectedDate":   "2024-06-01",
		"selectedPeople": 3,
	})
	if rec.Code != http.StatusCreated {
		h.t.Fatalf("start status = %d: %s", rec.Code, rec.Body.String())
	}
	return decodeAs[draftJSON](h.t, rec)
}

func (h *harness) fill(d draftJSON) {
	h.t.Helper()
	rec := h.do(http.MethodPatch, "/review/"+d.ID+"/fields", d.CSRFToken, map[string]string{
		"firstName": "Martina",
		"lastName":  "Alvarez",
		"email":     "martina@example.com",
		"phone":     "5551234567",
	})
	if rec.Code != http.StatusOK {
		h.t.Fatalf("fields status = %d: %s", rec.Code, rec.Body.String())
	}
}

func (h *harness) confirmYes(d draftJSON) outcomeJSON {
	h.t.Helper()
	if rec := h.do(http.MethodPost, "/review/"+d.ID+"/confirm", d.CSRFToken, nil); rec.Code != http.StatusOK {
		h.t.Fatalf("confirm status = %d: %s", rec.Code, rec.Body.String())
	}
	rec := h.do(http.MethodPost, "/review/"+d.ID+"/confirm/answer", d.CSRFToken, map[string]bool{"yes": true})
	if rec.Code != http.StatusOK {
		h.t.Fatalf("answer status = %d: %s", rec.Code, rec.Body.String())
	}
	return decodeAs[outcomeJSON](h.t, rec)
}

/*──────────────────────────── tests ───────────────────────────────────────*/

func TestStart_FromProductID(t *testing.T) {
	h := newHarness(t, false)
	d := h.start()

	if d.ID == "" || d.CSRFToken == "" {
		t.Fatalf("draft = %+v", d)
	}
	v := d.View
	if v.State != "idle" || v.Summary.ProductID != 42 || v.Summary.Date != "2024-06-01" {
		t.Errorf("view = %+v", v)
	}
	if v.Summary.TotalPrice != 180 {
		t.Errorf("total = %v, want price × people", v.Summary.TotalPrice)
	}
	if v.Summary.ImageURL != "https://img.example/fallback.jpg" {
		t.Errorf("image = %q", v.Summary.ImageURL)
	}
}

func TestStart_InlineProduct(t *testing.T) {
	h := newHarness(t, false)
	rec := h.do(http.MethodPost, "/review", "", map[string]any{
		"product": map[string]any{
			"id": 5, "name": "Walking tour", "price": 10,
			"availabilitySet": []map[string]any{{"id": 1, "date": "2024-07-01"}},
		},
		"selectedDate":   "2024-07-01T09:00:00-05:00",
		"selectedPeople": 2,
		"totalPrice":     25,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	d := decodeAs[draftJSON](t, rec)
	if d.View.Summary.TotalPrice != 25 || d.View.Summary.Date != "2024-07-01" {
		t.Errorf("summary = %+v", d.View.Summary)
	}
}

func TestStart_Rejections(t *testing.T) {
	h := newHarness(t, false)
	cases := []struct {
		name string
		body map[string]any
		want int
	}{
		{"no product", map[string]any{"selectedDate": "2024-06-01", "selectedPeople": 1}, http.StatusUnprocessableEntity},
		{"unknown product", map[string]any{"productId": 999, "selectedDate": "2024-06-01", "selectedPeople": 1}, http.StatusUnprocessableEntity},
		{"no people", map[string]any{"productId": 42, "selectedDate": "2024-06-01"}, http.StatusBadRequest},
		{"bad date", map[string]any{"productId": 42, "selectedDate": "June 1st", "selectedPeople": 1}, http.StatusBadRequest},
		{"bad inline date", map[string]any{
			"product":        map[string]any{"id": 5, "availabilitySet": []map[string]any{{"id": 1, "date": "01/07/2024"}}},
			"selectedDate":   "2024-07-01",
			"selectedPeople": 1,
		}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := h.do(http.MethodPost, "/review", "", tc.body)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tc.want, rec.Body.String())
			}
		})
	}
	if h.drafts.Len() != 0 {
		t.Errorf("drafts created on rejection: %d", h.drafts.Len())
	}
}

func TestConfirm_Succeeds(t *testing.T) {
	h := newHarness(t, false)
	h.cookie = "session-token"
	d := h.start()
	h.fill(d)

	out := h.confirmYes(d)
	if out.Outcome.State != "succeeded" || string(out.Outcome.Confirmation) != confirmation {
		t.Fatalf("outcome = %+v", out.Outcome)
	}
	if !out.View.ShowConfirm || string(out.View.Confirmation) != confirmation {
		t.Errorf("view = %+v", out.View)
	}
	if len(h.backend.payload) != 1 {
		t.Fatalf("backend calls = %d", len(h.backend.payload))
	}
	want := booking.Payload{ProductID: 42, AvailabilityID: 7, Quantity: 3}
	if h.backend.payload[0] != want || h.backend.creds[0] != "session-token" {
		t.Errorf("call = %+v cred=%q", h.backend.payload[0], h.backend.creds[0])
	}

	// A second attempt is refused.
	if rec := h.do(http.MethodPost, "/review/"+d.ID+"/confirm", d.CSRFToken, nil); rec.Code != http.StatusConflict {
		t.Errorf("second confirm status = %d", rec.Code)
	}
}

func TestConfirm_FormInvalid(t *testing.T) {
	h := newHarness(t, false)
	h.cookie = "session-token"
	d := h.start()

	out := h.confirmYes(d)
	if out.Outcome.Failure != "form_invalid" || out.View.State != "idle" {
		t.Fatalf("outcome = %+v", out.Outcome)
	}
	if out.View.Errors["firstName"] == "" || out.View.Errors["phone"] == "" {
		t.Errorf("errors = %v", out.View.Errors)
	}
	if len(h.backend.payload) != 0 {
		t.Error("backend called with invalid form")
	}
}

func TestConfirm_LoginThenResume(t *testing.T) {
	h := newHarness(t, true)
	d := h.start()
	h.fill(d)

	out := h.confirmYes(d)
	if out.Outcome.Failure != "auth_required" || !out.View.LoginOpen {
		t.Fatalf("outcome = %+v view = %+v", out.Outcome, out.View)
	}

	rec := h.do(http.MethodPost, "/review/"+d.ID+"/login/success", d.CSRFToken, map[string]string{"token": "fresh"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d: %s", rec.Code, rec.Body.String())
	}
	res := decodeAs[outcomeJSON](t, rec)
	if !res.Resumed || res.Outcome.State != "succeeded" {
		t.Fatalf("resume = %+v", res)
	}
	if h.backend.creds[0] != "fresh" {
		t.Errorf("credential = %q", h.backend.creds[0])
	}
	if c := rec.Result().Cookies(); len(c) != 1 || c[0].Value != "fresh" {
		t.Errorf("session cookie = %+v", c)
	}
}

func TestConfirm_RemoteErrorNotice(t *testing.T) {
	h := newHarness(t, false)
	h.cookie = "session-token"
	h.backend.err = fmt.Errorf("connection refused")
	d := h.start()
	h.fill(d)

	out := h.confirmYes(d)
	if out.Outcome.Failure != "remote_error" || out.View.Notice == nil {
		t.Fatalf("outcome = %+v view = %+v", out.Outcome, out.View)
	}

	rec := h.do(http.MethodPost, "/review/"+d.ID+"/notice/dismiss", d.CSRFToken, nil)
	if v := decodeAs[viewJSON](t, rec); v.Notice != nil {
		t.Errorf("notice still shown: %+v", v.Notice)
	}
}

func TestConfirm_RejectedCredentialClearsSession(t *testing.T) {
	cases := map[string]struct {
		err     error
		cleared bool
	}{
		"401":         {&backend.StatusError{Code: http.StatusUnauthorized, Body: "token expired"}, true},
		"403":         {&backend.StatusError{Code: http.StatusForbidden}, true},
		"500":         {&backend.StatusError{Code: http.StatusInternalServerError}, false},
		"unreachable": {fmt.Errorf("connection refused"), false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t, false)
			h.cookie = "session-token"
			h.backend.err = tc.err
			d := h.start()
			h.fill(d)

			h.do(http.MethodPost, "/review/"+d.ID+"/confirm", d.CSRFToken, nil)
			rec := h.do(http.MethodPost, "/review/"+d.ID+"/confirm/answer", d.CSRFToken, map[string]bool{"yes": true})
			if out := decodeAs[outcomeJSON](t, rec); out.Outcome.Failure != "remote_error" {
				t.Fatalf("outcome = %+v", out.Outcome)
			}

			cleared := false
			for _, ck := range rec.Result().Cookies() {
				if ck.Name == "xplora_session" && ck.MaxAge < 0 {
					cleared = true
				}
			}
			if cleared != tc.cleared {
				t.Errorf("session cleared = %v, want %v", cleared, tc.cleared)
			}
		})
	}
}

func TestAnswer_WithoutPrompt(t *testing.T) {
	h := newHarness(t, false)
	d := h.start()
	rec := h.do(http.MethodPost, "/review/"+d.ID+"/confirm/answer", d.CSRFToken, map[string]bool{"yes": true})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestFields(t *testing.T) {
	h := newHarness(t, false)
	d := h.start()

	rec := h.do(http.MethodPatch, "/review/"+d.ID+"/fields", d.CSRFToken, map[string]string{
		"paymentMethod": "card",
		"cardNumber":    "4111111111111111",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if v := decodeAs[viewJSON](t, rec); v.Payment != "card" {
		t.Errorf("payment = %q", v.Payment)
	}

	for body, want := range map[string]int{
		`{"nickname":"x"}`:         http.StatusBadRequest,
		`{"paymentMethod":"cash"}`: http.StatusBadRequest,
		`{"firstName":`:            http.StatusBadRequest,
	} {
		req := httptest.NewRequest(http.MethodPatch, "/review/"+d.ID+"/fields", strings.NewReader(body))
		req.Header.Set(HeaderCSRF, d.CSRFToken)
		rec := httptest.NewRecorder()
		h.h.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Errorf("%s: status = %d, want %d", body, rec.Code, want)
		}
	}
}

func TestValidateEndpoint(t *testing.T) {
	h := newHarness(t, false)
	d := h.start()
	h.fill(d)

	rec := h.do(http.MethodPost, "/review/"+d.ID+"/validate", d.CSRFToken, nil)
	var res struct {
		Valid  bool              `json:"valid"`
		Errors map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if !res.Valid || len(res.Errors) != 0 {
		t.Fatalf("validate = %+v", res)
	}
}

func TestCSRF_Required(t *testing.T) {
	h := newHarness(t, false)
	d := h.start()
	other := h.start()

	for name, tok := range map[string]string{"missing": "", "other draft": other.CSRFToken, "garbage": "xyz"} {
		rec := h.do(http.MethodPost, "/review/"+d.ID+"/confirm", tok, nil)
		if rec.Code != http.StatusForbidden {
			t.Errorf("%s: status = %d", name, rec.Code)
		}
	}
}

func TestRemoval(t *testing.T) {
	h := newHarness(t, false)
	d := h.start()

	if rec := h.do(http.MethodPost, "/review/"+d.ID+"/remove", d.CSRFToken, nil); rec.Code != http.StatusOK {
		t.Fatalf("remove status = %d", rec.Code)
	}
	rec := h.do(http.MethodPost, "/review/"+d.ID+"/remove/answer", d.CSRFToken, map[string]bool{"yes": false})
	var res struct {
		Result string `json:"result"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &res)
	if res.Result != "cancelled" {
		t.Fatalf("result = %q", res.Result)
	}
	if _, err := h.drafts.Get(d.ID); err != nil {
		t.Fatalf("draft dropped after no: %v", err)
	}

	h.do(http.MethodPost, "/review/"+d.ID+"/remove", d.CSRFToken, nil)
	rec = h.do(http.MethodPost, "/review/"+d.ID+"/remove/answer", d.CSRFToken, map[string]bool{"yes": true})
	_ = json.Unmarshal(rec.Body.Bytes(), &res)
	if res.Result != "confirmed" {
		t.Fatalf("result = %q", res.Result)
	}
	if rec := h.do(http.MethodGet, "/review/"+d.ID, "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("removed draft still served: %d", rec.Code)
	}
	if len(h.backend.payload) != 0 {
		t.Error("removal called the backend")
	}
}

func TestBack(t *testing.T) {
	h := newHarness(t, false)
	d := h.start()

	if rec := h.do(http.MethodPost, "/review/"+d.ID+"/back", d.CSRFToken, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("back status = %d", rec.Code)
	}
	if rec := h.do(http.MethodGet, "/review/"+d.ID, "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("draft after back: %d", rec.Code)
	}
}

func TestSnapshot_UnknownDraft(t *testing.T) {
	h := newHarness(t, false)
	if rec := h.do(http.MethodGet, "/review/nope", "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestFormDefinition(t *testing.T) {
	h := newHarness(t, false)
	rec := h.do(http.MethodGet, "/review/form", "", nil)
	var res struct {
		ID     string      `json:"id"`
		Fields []formField `json:"fields"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.ID != "booking/review" || len(res.Fields) != 8 {
		t.Fatalf("form = %+v", res)
	}
	for _, f := range res.Fields {
		if f.Name == "cvv" && f.RequiredIf != "paymentMethod=card" {
			t.Errorf("cvv requiredWhen = %q", f.RequiredIf)
		}
	}
}

package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/concept-booking/internal/booking"
	"github.com/iliyamo/concept-booking/internal/clock"
	"github.com/iliyamo/concept-booking/internal/config"
	"github.com/iliyamo/concept-booking/internal/handler"
	"github.com/iliyamo/concept-booking/internal/model"
	"github.com/iliyamo/concept-booking/internal/repository"
	"github.com/iliyamo/concept-booking/internal/utils"
)

const testSecret = "test-secret"

type testServer struct {
	e        *echo.Echo
	settings *repository.MemorySettings
}

// newTestServer wires the full API on memory stores with the clock pinned
// to Monday 2025-03-03 09:00 UTC.  Holder "1" is an administrator.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := config.Config{
		JWTSecret:    testSecret,
		AccessTTLMin: 60,
		BcryptCost:   4,
		Location:     time.UTC,
		AdminIDs:     map[string]bool{"1": true},
	}
	settings := repository.NewMemorySettings(6)
	hash, err := utils.HashPassword("open sesame", cfg.BcryptCost)
	if err != nil {
		t.Fatal(err)
	}
	_ = settings.SetPasswordHash(context.Background(), hash)

	clk := &clock.Fixed{T: time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)}
	mgr := booking.NewManager(repository.NewMemoryReservations(), repository.NewMemoryNegotiations(15*time.Minute), settings,
		booking.WithClock(clk))

	e := echo.New()
	bh := handler.NewBookingHandler(mgr, settings, time.UTC)
	RegisterRoutes(e, handler.Health(nil), nil, bh)
	RegisterAuth(e, handler.NewAuthHandler(cfg, repository.NewMemoryHolders(), settings), testSecret)
	RegisterHolder(e, bh, testSecret, nil)
	RegisterAdmin(e, handler.NewAdminHandler(settings, time.UTC, cfg.BcryptCost), testSecret)
	return &testServer{e: e, settings: settings}
}

func (s *testServer) do(t *testing.T, method, path, token, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func (s *testServer) verify(t *testing.T, holderID string) string {
	t.Helper()
	rec, out := s.do(t, http.MethodPost, "/v1/auth/verify", "",
		`{"holder_id":"`+holderID+`","name":"Holder `+holderID+`","password":"open sesame"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("verify %s: %d %s", holderID, rec.Code, rec.Body)
	}
	access, _ := out["access"].(map[string]any)
	tok, _ := access["access_token"].(string)
	if tok == "" {
		t.Fatalf("verify %s returned no token: %s", holderID, rec.Body)
	}
	return tok
}

func TestPublicRoutes(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthz: %d %q", rec.Code, rec.Body)
	}

	rec, out := s.do(t, http.MethodGet, "/v1/hours", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("hours: %d", rec.Code)
	}
	hours, _ := out["hours"].([]any)
	if len(hours) != 7 {
		t.Fatalf("expected 7 days, got %v", out["hours"])
	}
	if first, _ := hours[0].(map[string]any); first["weekday"] != "Monday" || first["open"] != "07:00" {
		t.Fatalf("week must start on Monday: %v", first)
	}
}

func TestVerify(t *testing.T) {
	s := newTestServer(t)
	cases := []struct {
		name string
		body string
		want int
	}{
		{"missing fields", `{"holder_id":"5"}`, http.StatusBadRequest},
		{"wrong password", `{"holder_id":"5","name":"x","password":"nope"}`, http.StatusUnauthorized},
		{"ok", `{"holder_id":"5","name":"x","password":"open sesame"}`, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, _ := s.do(t, http.MethodPost, "/v1/auth/verify", "", tc.body)
			if rec.Code != tc.want {
				t.Fatalf("got %d want %d: %s", rec.Code, tc.want, rec.Body)
			}
		})
	}

	tok := s.verify(t, "5")
	rec, out := s.do(t, http.MethodGet, "/v1/me", tok, "")
	if rec.Code != http.StatusOK || out["role"] != model.RoleHolder {
		t.Fatalf("me: %d %v", rec.Code, out)
	}
	rec, _ = s.do(t, http.MethodPut, "/v1/me/name", tok, `{"name":"Five"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("rename: %d", rec.Code)
	}
	if _, out = s.do(t, http.MethodGet, "/v1/me", tok, ""); out["name"] != "Five" {
		t.Fatalf("rename not applied: %v", out)
	}
}

func TestVerifyWithoutPassword(t *testing.T) {
	s := newTestServer(t)
	_ = s.settings.SetPasswordHash(context.Background(), "")
	rec, _ := s.do(t, http.MethodPost, "/v1/auth/verify", "", `{"holder_id":"5","name":"x","password":"open sesame"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestBookingFlow(t *testing.T) {
	s := newTestServer(t)
	ann, bob, cat := s.verify(t, "10"), s.verify(t, "11"), s.verify(t, "12")

	if rec, _ := s.do(t, http.MethodPost, "/v1/bookings", "", `{"start":"2025-03-04T19:00","quantity":1}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated booking: %d", rec.Code)
	}

	rec, out := s.do(t, http.MethodPost, "/v1/bookings", ann, `{"start":"2025-03-04T19:00","duration_minutes":60,"quantity":4}`)
	if rec.Code != http.StatusCreated || out["kind"] != string(booking.Confirmed) {
		t.Fatalf("first booking: %d %v", rec.Code, out)
	}

	rec, out = s.do(t, http.MethodPost, "/v1/bookings", bob, `{"start":"2025-03-04T19:30","quantity":4}`)
	if rec.Code != http.StatusOK || out["kind"] != string(booking.PartialOffer) || out["available"] != float64(2) {
		t.Fatalf("expected partial offer of 2: %d %v", rec.Code, out)
	}
	rec, out = s.do(t, http.MethodPost, "/v1/bookings/offer", bob, `{"answer":"Yes"}`)
	if rec.Code != http.StatusCreated || out["kind"] != string(booking.Confirmed) {
		t.Fatalf("accepting offer: %d %v", rec.Code, out)
	}
	if rec, _ = s.do(t, http.MethodPost, "/v1/bookings/offer", bob, `{"answer":"yes"}`); rec.Code != http.StatusNotFound {
		t.Fatalf("second answer must find no offer: %d", rec.Code)
	}

	rec, out = s.do(t, http.MethodPost, "/v1/bookings", cat, `{"start":"2025-03-04T19:45"}`)
	if rec.Code != http.StatusConflict || out["kind"] != string(booking.Rejected) {
		t.Fatalf("full venue: %d %v", rec.Code, out)
	}
	if rec, _ = s.do(t, http.MethodPost, "/v1/bookings", cat, `{"start":"2025-03-04T23:00"}`); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("outside opening hours: %d", rec.Code)
	}
	if rec, _ = s.do(t, http.MethodPost, "/v1/bookings", cat, `{"start":"tomorrow"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad start: %d", rec.Code)
	}

	rec, out = s.do(t, http.MethodGet, "/v1/availability?start=2025-03-04T20:00&duration=60", cat, "")
	if rec.Code != http.StatusOK || out["available"] != float64(4) {
		t.Fatalf("availability at 20:00: %d %v", rec.Code, out)
	}

	rec, out = s.do(t, http.MethodGet, "/v1/my-bookings", ann, "")
	if rs, _ := out["reservations"].([]any); rec.Code != http.StatusOK || len(rs) != 1 {
		t.Fatalf("my bookings: %d %v", rec.Code, out)
	}
	rec, out = s.do(t, http.MethodGet, "/v1/schedule?day=2025-03-04", cat, "")
	if days, _ := out["days"].([]any); rec.Code != http.StatusOK || len(days) != 1 {
		t.Fatalf("schedule: %d %v", rec.Code, out)
	}

	rec, _ = s.do(t, http.MethodDelete, "/v1/bookings?start=2025-03-04T19:00&duration=60", ann, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel: %d %s", rec.Code, rec.Body)
	}
	if rec, _ = s.do(t, http.MethodDelete, "/v1/bookings?start=2025-03-04T19:00&duration=60", ann, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("second cancel: %d", rec.Code)
	}
	if rec, _ = s.do(t, http.MethodDelete, "/v1/bookings?start=2025-03-04T19:00&duration=-5", ann, ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("negative duration: %d", rec.Code)
	}
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t)
	admin, holder := s.verify(t, "1"), s.verify(t, "2")

	if rec, _ := s.do(t, http.MethodGet, "/v1/admin/settings", holder, ""); rec.Code != http.StatusForbidden {
		t.Fatalf("holder on admin route: %d", rec.Code)
	}

	cases := []struct {
		name, method, path, body string
		want                     int
	}{
		{"capacity zero", http.MethodPut, "/v1/admin/capacity", `{"capacity":0}`, http.StatusBadRequest},
		{"capacity", http.MethodPut, "/v1/admin/capacity", `{"capacity":8}`, http.StatusOK},
		{"unknown weekday", http.MethodPut, "/v1/admin/hours/funday", `{"closed":true}`, http.StatusBadRequest},
		{"inverted hours", http.MethodPut, "/v1/admin/hours/mon", `{"open":"22:00","close":"07:00"}`, http.StatusBadRequest},
		{"open till midnight", http.MethodPut, "/v1/admin/hours/0", `{"open":"10:00","close":"24:00"}`, http.StatusOK},
		{"closure", http.MethodPost, "/v1/admin/closures", `{"from":"2025-05-01T00:00","until":"2025-05-02T00:00","reason":"holiday"}`, http.StatusCreated},
		{"remove missing closure", http.MethodDelete, "/v1/admin/closures/99", "", http.StatusNotFound},
		{"remove closure", http.MethodDelete, "/v1/admin/closures/1", "", http.StatusNoContent},
		{"empty password", http.MethodPut, "/v1/admin/password", `{"password":""}`, http.StatusBadRequest},
		{"password", http.MethodPut, "/v1/admin/password", `{"password":"new one"}`, http.StatusNoContent},
	}
	for _, tc := range cases {
		rec, _ := s.do(t, tc.method, tc.path, admin, tc.body)
		if rec.Code != tc.want {
			t.Fatalf("%s: got %d want %d: %s", tc.name, rec.Code, tc.want, rec.Body)
		}
	}

	rec, out := s.do(t, http.MethodGet, "/v1/admin/settings", admin, "")
	if rec.Code != http.StatusOK || out["capacity"] != float64(8) || out["password_set"] != true {
		t.Fatalf("settings: %d %v", rec.Code, out)
	}
	if rec, _ = s.do(t, http.MethodPost, "/v1/auth/verify", "", `{"holder_id":"3","name":"x","password":"open sesame"}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("old password must stop working: %d", rec.Code)
	}
}

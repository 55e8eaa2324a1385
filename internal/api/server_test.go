package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/cookie-clicker/internal/economy"
	"github.com/talgya/cookie-clicker/internal/persistence"
)

const testKey = "secret"

func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	s := &Server{
		Economy:  economy.New(),
		Store:    persistence.NewFileStore(filepath.Join(t.TempDir(), "save.json")),
		AdminKey: testKey,
	}
	return s, s.Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string, auth bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if auth {
		req.Header.Set("Authorization", "Bearer "+testKey)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestStatusAndStore(t *testing.T) {
	_, h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/api/v1/status", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	var st statusResponse
	decode(t, rec, &st)
	if st.ClickPower != 1 || st.ClickPowerCost != 50000 || st.Balance != 0 {
		t.Fatalf("unexpected status %+v", st)
	}

	rec = do(t, h, http.MethodGet, "/api/v1/store", "", false)
	var store struct {
		Items []struct {
			Name string  `json:"name"`
			Cost float64 `json:"cost"`
		} `json:"items"`
	}
	decode(t, rec, &store)
	if len(store.Items) != 12 || store.Items[0].Name != "Clicker" || store.Items[0].Cost != 10 {
		t.Fatalf("unexpected store %+v", store)
	}
}

func TestActionsRequireToken(t *testing.T) {
	_, h := newTestServer(t)
	if rec := do(t, h, http.MethodPost, "/api/v1/click", "", false); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}

	open := &Server{Economy: economy.New()}
	if rec := do(t, open.Handler(), http.MethodPost, "/api/v1/click", "", true); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 with no admin key got %d", rec.Code)
	}
}

func TestBuyFlow(t *testing.T) {
	s, h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api/v1/buy", `{"item":"clicker"}`, true)
	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402 got %d", rec.Code)
	}
	var fail struct {
		Needed    float64 `json:"needed"`
		Available float64 `json:"available"`
	}
	decode(t, rec, &fail)
	if fail.Needed != 10 || fail.Available != 0 {
		t.Fatalf("unexpected failure body %+v", fail)
	}

	for i := 0; i < 10; i++ {
		if rec := do(t, h, http.MethodPost, "/api/v1/click", "", true); rec.Code != http.StatusOK {
			t.Fatalf("click: got %d", rec.Code)
		}
	}
	// The failed attempt above already advanced the price to 11.
	s.Economy.Click()

	rec = do(t, h, http.MethodPost, "/api/v1/buy", `{"item":"Clicker","amount":1}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("buy: got %d %s", rec.Code, rec.Body)
	}
	var p economy.Purchase
	decode(t, rec, &p)
	if p.Count != 1 || p.Name != "Clicker" {
		t.Fatalf("unexpected purchase %+v", p)
	}

	if rec := do(t, h, http.MethodPost, "/api/v1/buy", `{"item":"unicorn"}`, true); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/api/v1/buy", `{"item":"clicker","amount":-2}`, true); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/api/v1/buy", `{"item":`, true); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad json got %d", rec.Code)
	}
}

func TestPerkEndpoints(t *testing.T) {
	_, h := newTestServer(t)
	if rec := do(t, h, http.MethodPost, "/api/v1/perk", `{"item":"grandma"}`, true); rec.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402 got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/api/v1/clickperk", "", true); rec.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402 got %d", rec.Code)
	}
}

func TestSaveEndpoint(t *testing.T) {
	s, h := newTestServer(t)
	s.Economy.Click()

	rec := do(t, h, http.MethodPost, "/api/v1/save", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("save: got %d %s", rec.Code, rec.Body)
	}
	var info persistence.SaveInfo
	decode(t, rec, &info)
	if info.ID == "" || info.Balance != 1 {
		t.Fatalf("unexpected save info %+v", info)
	}

	st, err := s.Store.Load(context.Background())
	if err != nil || st.Balance != 1 {
		t.Fatalf("expected saved balance 1, got %+v %v", st, err)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	now := time.Unix(1000, 0)
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatalf("first two requests should pass")
	}
	if rl.Allow("a") {
		t.Fatalf("third request should be limited")
	}
	if !rl.Allow("b") {
		t.Fatalf("other clients are independent")
	}
	if got := rl.RetryAfter("a"); got != 61 {
		t.Fatalf("expected retry after 61 got %d", got)
	}

	now = now.Add(time.Minute)
	if !rl.Allow("a") {
		t.Fatalf("window should reset")
	}
}

func TestSaveLimitIgnoresForwardedFor(t *testing.T) {
	s, _ := newTestServer(t)
	s.saveLimiter = NewRateLimiter(1, time.Minute)
	h := s.Handler()

	codes := make([]int, 0, 2)
	for _, xff := range []string{"1.1.1.1", "2.2.2.2"} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/save", nil)
		req.Header.Set("Authorization", "Bearer "+testKey)
		req.Header.Set("X-Forwarded-For", xff)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("expected 200 then 429 got %v", codes)
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	if got := clientIP(r); got != "10.0.0.1" {
		t.Fatalf("got %q", got)
	}
	r.Header.Set("X-Forwarded-For", "1.2.3.4")
	if got := clientIP(r); got != "10.0.0.1" {
		t.Fatalf("forwarded header should be ignored, got %q", got)
	}
}

func TestStreamBroadcast(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	go hub.Run(ctx)

	s := &Server{Economy: economy.New(), Hub: hub}
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Registration is asynchronous; keep broadcasting until a message arrives.
	got := make(chan Message, 1)
	go func() {
		var m Message
		if err := conn.ReadJSON(&m); err == nil {
			got <- m
		}
	}()

	deadline := time.After(5 * time.Second)
	for {
		hub.Broadcast(Message{Type: "status", Tick: 42, Payload: s.Economy.Status()})
		select {
		case m := <-got:
			if m.Type != "status" || m.Tick != 42 {
				t.Fatalf("unexpected message %+v", m)
			}
			return
		case <-deadline:
			t.Fatal("no message received")
		case <-time.After(20 * time.Millisecond):
		}
	}
}

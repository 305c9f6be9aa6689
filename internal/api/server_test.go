package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/talgya/mini-realm/internal/defs"
	"github.com/talgya/mini-realm/internal/economy"
	"github.com/talgya/mini-realm/internal/engine"
	"github.com/talgya/mini-realm/internal/persistence"
	"github.com/talgya/mini-realm/internal/world"
)

func newTestServer(t *testing.T, db *persistence.DB) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	sim, err := engine.NewScenario(defs.Default(), engine.ScenarioConfig{Seed: 3, Countries: 3, MapRadius: 8, ProvincesPerCountry: 1})
	if err != nil {
		t.Fatalf("NewScenario: %v", err)
	}
	sim.Notifier = nil
	sim.Step()
	return NewServer(":0", sim, engine.NewEngine(sim.Turn), db)
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealthzAndStatus(t *testing.T) {
	s := newTestServer(t, nil)
	if w := get(t, s, "/healthz"); w.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", w.Code)
	}

	w := get(t, s, "/api/v1/status")
	if w.Code != http.StatusOK {
		t.Fatalf("status code = %d", w.Code)
	}
	var status struct {
		Turn      int    `json:"turn"`
		SimTime   string `json:"sim_time"`
		Countries int    `json:"countries"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.Turn != 1 || status.SimTime != "January, Year 1" || status.Countries != 3 {
		t.Fatalf("status = %+v", status)
	}
}

func TestCountriesAndDetail(t *testing.T) {
	s := newTestServer(t, nil)

	var list []countrySummary
	w := get(t, s, "/api/v1/countries")
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 3 || list[0].ID != 1 || list[1].Overlord == nil || *list[1].Overlord != 1 {
		t.Fatalf("countries = %+v", list)
	}

	w = get(t, s, "/api/v1/country/2")
	if w.Code != http.StatusOK {
		t.Fatalf("detail status = %d", w.Code)
	}
	var detail struct {
		Summary countrySummary   `json:"summary"`
		Ledger  economy.Snapshot `json:"ledger"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &detail); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if detail.Summary.ID != 2 || detail.Ledger.Owner != 2 || len(detail.Ledger.Entries) == 0 {
		t.Fatalf("detail = %+v", detail)
	}

	if w := get(t, s, "/api/v1/country/99"); w.Code != http.StatusNotFound {
		t.Fatalf("unknown country status = %d", w.Code)
	}
	if w := get(t, s, "/api/v1/country/abc"); w.Code != http.StatusBadRequest {
		t.Fatalf("bad id status = %d", w.Code)
	}
}

func TestEventsFilter(t *testing.T) {
	s := newTestServer(t, nil)
	s.Sim.Events = []engine.Event{
		{Turn: 1, Country: 1, Title: "a"},
		{Turn: 1, Country: 2, Title: "b"},
		{Turn: 1, Country: 1, Title: "c"},
	}

	var events []engine.Event
	w := get(t, s, "/api/v1/events?country=1&limit=1")
	if err := json.Unmarshal(w.Body.Bytes(), &events); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(events) != 1 || events[0].Title != "c" {
		t.Fatalf("events = %+v", events)
	}
}

func TestTransactionsEndpoint(t *testing.T) {
	if w := get(t, newTestServer(t, nil), "/api/v1/country/1/transactions"); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("without db status = %d", w.Code)
	}

	db, err := persistence.Open(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()
	tx := economy.Transaction{Turn: 1, Direction: economy.Income, Category: economy.CategoryProvinceTax, Amount: 7}
	if err := db.AppendTransactions("s", map[world.CountryID][]economy.Transaction{1: {tx}}); err != nil {
		t.Fatalf("AppendTransactions: %v", err)
	}

	s := newTestServer(t, db)
	w := get(t, s, "/api/v1/country/1/transactions")
	var got []economy.Transaction
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0] != tx {
		t.Fatalf("transactions = %+v", got)
	}
}

func TestRateLimiterWindow(t *testing.T) {
	now := time.Unix(1000, 0)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("first two requests rejected")
	}
	if rl.Allow("a") {
		t.Fatal("third request allowed")
	}
	if got := rl.RetryAfter("a"); got != 61 {
		t.Fatalf("RetryAfter = %d, want 61", got)
	}
	if !rl.Allow("b") {
		t.Fatal("other client limited")
	}
	now = now.Add(time.Minute)
	if !rl.Allow("a") {
		t.Fatal("request after window rejected")
	}
}

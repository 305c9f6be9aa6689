// Package api provides the read-only HTTP API for observing a running realm.
// Every handler reads the simulation under its read lock, so responses see
// the state between two steps.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/talgya/mini-realm/internal/economy"
	"github.com/talgya/mini-realm/internal/engine"
	"github.com/talgya/mini-realm/internal/logs"
	"github.com/talgya/mini-realm/internal/persistence"
	"github.com/talgya/mini-realm/internal/pops"
	"github.com/talgya/mini-realm/internal/social"
	"github.com/talgya/mini-realm/internal/world"
)

// Server serves the realm state over HTTP.
type Server struct {
	Sim *engine.Simulation
	Eng *engine.Engine
	DB  *persistence.DB // nil disables the journal endpoint

	engine *gin.Engine
	srv    *http.Server
}

// NewServer wires the routes. The journal endpoint is rate limited since it
// reads the database.
func NewServer(addr string, sim *engine.Simulation, eng *engine.Engine, db *persistence.DB) *Server {
	r := gin.New()
	r.Use(gin.Recovery(), accessLog())

	s := &Server{
		Sim:    sim,
		Eng:    eng,
		DB:     db,
		engine: r,
		srv: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	v1 := r.Group("/api/v1")
	v1.GET("/status", s.handleStatus)
	v1.GET("/stats", s.handleStats)
	v1.GET("/countries", s.handleCountries)
	v1.GET("/country/:id", s.handleCountryDetail)
	v1.GET("/country/:id/transactions", RateLimit(NewRateLimiter(120, time.Minute)), s.handleTransactions)
	v1.GET("/provinces", s.handleProvinces)
	v1.GET("/events", s.handleEvents)
	return s
}

// Start serves until Shutdown. It returns http.ErrServerClosed after a
// clean shutdown.
func (s *Server) Start() error {
	logs.Info("HTTP API starting", zap.String("addr", s.srv.Addr))
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// accessLog writes one debug line per request.
func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		logs.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func (s *Server) handleStatus(c *gin.Context) {
	var status gin.H
	s.Sim.View(func(sim *engine.Simulation) {
		status = gin.H{
			"name":         "Mini Realm",
			"session":      sim.SessionID,
			"turn":         sim.Turn,
			"sim_time":     engine.SimTime(sim.Turn),
			"running":      s.Eng != nil && s.Eng.Running(),
			"countries":    sim.Stats.Countries,
			"units":        sim.Stats.Units,
			"population":   sim.Stats.TotalPopulation,
			"total_wealth": sim.Stats.TotalWealth,
		}
	})
	c.JSON(http.StatusOK, status)
}

func (s *Server) handleStats(c *gin.Context) {
	var stats engine.SimStats
	s.Sim.View(func(sim *engine.Simulation) { stats = sim.Stats })
	c.JSON(http.StatusOK, stats)
}

type countrySummary struct {
	ID         world.CountryID  `json:"id"`
	Name       string           `json:"name"`
	Government string           `json:"government"`
	Overlord   *world.CountryID `json:"overlord,omitempty"`
	Anarchy    bool             `json:"anarchy"`
	Culture    string           `json:"primary_culture"`
	Provinces  int              `json:"provinces"`
	Population int64            `json:"population"`
	Wealth     int64            `json:"wealth"`
}

func summarize(sim *engine.Simulation, c *social.Country) countrySummary {
	return countrySummary{
		ID:         c.ID,
		Name:       c.Name,
		Government: c.Government.String(),
		Overlord:   c.Relations.Overlord,
		Anarchy:    c.Anarchy,
		Culture:    c.PrimaryCulture,
		Provinces:  len(c.Provinces),
		Population: pops.TotalSize(sim.Pops.InProvinces(c.Provinces)),
		Wealth:     c.Economy.Wealth(),
	}
}

func (s *Server) handleCountries(c *gin.Context) {
	var out []countrySummary
	s.Sim.View(func(sim *engine.Simulation) {
		for _, country := range sim.Countries() {
			out = append(out, summarize(sim, country))
		}
	})
	c.JSON(http.StatusOK, out)
}

func parseCountryID(c *gin.Context) (world.CountryID, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid country id"})
		return 0, false
	}
	return world.CountryID(id), true
}

func (s *Server) handleCountryDetail(c *gin.Context) {
	id, ok := parseCountryID(c)
	if !ok {
		return
	}
	var (
		found  bool
		detail gin.H
	)
	s.Sim.View(func(sim *engine.Simulation) {
		country, ok := sim.Country(id)
		if !ok {
			return
		}
		found = true
		// Encoded under the lock; the country keeps changing after View returns.
		raw, _ := json.Marshal(country)
		detail = gin.H{
			"summary":      summarize(sim, country),
			"country":      json.RawMessage(raw),
			"ledger":       country.Economy.Snapshot(),
			"transactions": append([]economy.Transaction(nil), country.Economy.TurnData().Transactions...),
		}
	})
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "country not found"})
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (s *Server) handleTransactions(c *gin.Context) {
	id, ok := parseCountryID(c)
	if !ok {
		return
	}
	if s.DB == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "persistence disabled"})
		return
	}
	from, _ := strconv.Atoi(c.DefaultQuery("from", "0"))
	txs, err := s.DB.Transactions(id, from)
	if err != nil {
		logs.Error("query transactions", zap.Uint32("country", uint32(id)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, txs)
}

func (s *Server) handleProvinces(c *gin.Context) {
	var raw []byte
	s.Sim.View(func(sim *engine.Simulation) { raw, _ = json.Marshal(sim.Provinces()) })
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}

func (s *Server) handleEvents(c *gin.Context) {
	limit := 50
	if n, err := strconv.Atoi(c.Query("limit")); err == nil && n > 0 && n <= 500 {
		limit = n
	}
	var country world.CountryID
	if v := c.Query("country"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid country id"})
			return
		}
		country = world.CountryID(id)
	}

	var events []engine.Event
	s.Sim.View(func(sim *engine.Simulation) {
		for _, e := range sim.Events {
			if country == 0 || e.Country == country {
				events = append(events, e)
			}
		}
	})
	if len(events) > limit {
		events = events[len(events)-limit:]
	}
	c.JSON(http.StatusOK, events)
}

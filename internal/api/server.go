// Package api provides the HTTP API for observing and playing the game.
// GET endpoints are public. POST endpoints require a bearer token.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/talgya/cookie-clicker/internal/economy"
	"github.com/talgya/cookie-clicker/internal/engine"
	"github.com/talgya/cookie-clicker/internal/persistence"
)

// Server serves the game over HTTP.
type Server struct {
	Economy  *economy.Economy
	Store    persistence.Store // nil disables the save endpoint
	Engine   *engine.Engine    // optional, reported by the status endpoint
	Hub      *Hub              // optional, enables the websocket stream
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.

	saveLimiter *RateLimiter
}

// Handler builds the request router.
func (s *Server) Handler() http.Handler {
	if s.saveLimiter == nil {
		s.saveLimiter = NewRateLimiter(30, time.Minute)
	}

	mux := http.NewServeMux()

	// Public endpoints.
	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/store", s.handleStore)
	if s.Hub != nil {
		mux.HandleFunc("GET /api/v1/stream", s.Hub.ServeWS)
	}

	// Player actions (POST, require bearer token).
	mux.HandleFunc("POST /api/v1/click", s.adminOnly(s.handleClick))
	mux.HandleFunc("POST /api/v1/buy", s.adminOnly(s.handleBuy))
	mux.HandleFunc("POST /api/v1/perk", s.adminOnly(s.handlePerk))
	mux.HandleFunc("POST /api/v1/clickperk", s.adminOnly(s.handleClickPerk))
	mux.HandleFunc("POST /api/v1/save", s.adminOnly(RateLimitMiddleware(s.saveLimiter, s.handleSave)))

	return corsMiddleware(mux)
}

// Start serves the API until ctx is cancelled.
func (s *Server) Start(ctx context.Context) {
	addr := fmt.Sprintf(":%d", s.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "", "stream", s.Hub != nil)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("HTTP server shutdown", "error", err)
		}
	}()
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS to a comma-separated list of extra allowed origins.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			http.Error(w, "player actions disabled (no admin key set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

type statusResponse struct {
	economy.Status
	Tick    uint64 `json:"tick"`
	Running bool   `json:"running"`
}

func (s *Server) status() statusResponse {
	resp := statusResponse{Status: s.Economy.Status()}
	if s.Engine != nil {
		resp.Tick = s.Engine.Ticks()
		resp.Running = s.Engine.Running()
	}
	return resp
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) handleStore(w http.ResponseWriter, r *http.Request) {
	type storeItem struct {
		economy.Unit
		Rate      float64 `json:"rate"`
		TotalRate float64 `json:"total_rate"`
	}
	units := s.Economy.Units()
	items := make([]storeItem, 0, len(units))
	for _, u := range units {
		items = append(items, storeItem{Unit: u, Rate: u.CurrentRate(), TotalRate: u.TotalRate()})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items":  items,
		"status": s.Economy.Status(),
	})
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	s.Economy.Click()
	writeJSON(w, http.StatusOK, s.Economy.Status())
}

func (s *Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Item   string `json:"item"`
		Amount int    `json:"amount"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Amount == 0 {
		req.Amount = 1
	}
	p, err := s.Economy.BuyUnit(req.Item, req.Amount)
	if err != nil {
		writeEconomyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handlePerk(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Item string `json:"item"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	up, err := s.Economy.BuyPerk(req.Item)
	if err != nil {
		writeEconomyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, up)
}

func (s *Server) handleClickPerk(w http.ResponseWriter, r *http.Request) {
	up, err := s.Economy.BuyClickPower()
	if err != nil {
		writeEconomyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, up)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		http.Error(w, "saving is not configured", http.StatusServiceUnavailable)
		return
	}
	info, err := s.Store.Save(r.Context(), s.Economy.Snapshot())
	if err != nil {
		slog.Error("API save failed", "error", err)
		http.Error(w, "save failed", http.StatusInternalServerError)
		return
	}
	slog.Info("game saved via API", "save_id", info.ID)
	writeJSON(w, http.StatusOK, info)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	if err := dec.Decode(v); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}

// writeEconomyError maps a failed transaction to a status code.
func writeEconomyError(w http.ResponseWriter, err error) {
	var ife *economy.InsufficientFundsError
	switch {
	case errors.As(err, &ife):
		writeJSON(w, http.StatusPaymentRequired, map[string]any{
			"error":     "insufficient funds",
			"needed":    ife.Needed,
			"available": ife.Available,
		})
	case errors.Is(err, economy.ErrItemNotFound):
		writeJSON(w, http.StatusNotFound, map[string]any{"error": err.Error()})
	case errors.Is(err, economy.ErrInvalidAmount):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
	default:
		slog.Error("unexpected economy error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}

package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	qrcode "github.com/skip2/go-qrcode"
)

const (
	qrSize        = 256
	metricsWindow = 24 * time.Hour
	recentEvents  = 20
	maxBodySize   = 1024
)

// AdminAPI serves the operator endpoints
type AdminAPI struct {
	hub       *Hub
	auth      *Auth
	analytics *Analytics
	publicURL string
}

// NewAdminAPI wires the admin endpoints. analytics may be nil.
func NewAdminAPI(hub *Hub, auth *Auth, analytics *Analytics, publicURL string) *AdminAPI {
	return &AdminAPI{hub: hub, auth: auth, analytics: analytics, publicURL: publicURL}
}

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type metricsResponse struct {
	Clients int            `json:"clients"`
	Rooms   int            `json:"rooms"`
	Players int            `json:"players"`
	Events  map[string]int `json:"events"`
	Recent  []EventRow     `json:"recent"`
}

// Register mounts the endpoints on mux
func (a *AdminAPI) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/login", a.handleLogin)
	mux.Handle("GET /api/rooms", a.requireAuth(http.HandlerFunc(a.handleRooms)))
	mux.Handle("GET /api/metrics", a.requireAuth(http.HandlerFunc(a.handleMetrics)))
	mux.HandleFunc("GET /qr.png", a.handleQR)
}

func (a *AdminAPI) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	token, err := a.auth.Login(req.Password, extractIP(r))
	switch {
	case errors.Is(err, ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "too many login attempts")
		return
	case errors.Is(err, ErrUnauthorized):
		Log.Infow("admin login refused", "addr", extractIP(r))
		writeError(w, http.StatusUnauthorized, "invalid password")
		return
	case err != nil:
		Log.Errorw("admin login", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}

func (a *AdminAPI) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "missing token")
			return
		}
		if err := a.auth.ValidateToken(token); err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *AdminAPI) handleRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.hub.rooms.Rooms())
}

func (a *AdminAPI) handleMetrics(w http.ResponseWriter, r *http.Request) {
	events, err := a.analytics.EventCounts(time.Now().Add(-metricsWindow))
	if err != nil {
		Log.Errorw("event counts", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	recent, err := a.analytics.Recent(recentEvents)
	if err != nil {
		Log.Errorw("recent events", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if recent == nil {
		recent = []EventRow{}
	}
	writeJSON(w, http.StatusOK, metricsResponse{
		Clients: a.hub.ClientCount(),
		Rooms:   len(a.hub.rooms.Rooms()),
		Players: a.hub.rooms.PlayerCount(),
		Events:  events,
		Recent:  recent,
	})
}

// handleQR renders the public join URL so players can scan in from a phone
func (a *AdminAPI) handleQR(w http.ResponseWriter, r *http.Request) {
	if a.publicURL == "" {
		http.NotFound(w, r)
		return
	}
	png, err := qrcode.Encode(a.publicURL, qrcode.Medium, qrSize)
	if err != nil {
		Log.Errorw("qr encode", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(png)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		Log.Debugw("write response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

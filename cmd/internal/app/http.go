package app

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Wenura17125/Tech-Care-official-sub001/cmd/identity"
	"github.com/Wenura17125/Tech-Care-official-sub001/cmd/internal/notify"
)

// stateResponse is the UI-facing snapshot served by /v1/state.
type stateResponse struct {
	State      string `json:"state"`
	Loading    bool   `json:"loading"`
	Connection string `json:"connection"`

	Identity *identityResponse         `json:"identity,omitempty"`
	Profile  *identity.Profile         `json:"profile,omitempty"`
	Extended *identity.ExtendedProfile `json:"extended,omitempty"`

	UnreadCount int `json:"unread_count"`
}

type identityResponse struct {
	ID    string `json:"id"`
	Role  string `json:"role"`
	Email string `json:"email,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func registerHTTP(mux *http.ServeMux, a *App) {
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if a.dbEnabled && a.dbPool != nil {
			if err := PingDB(r.Context(), a.dbPool, 2*time.Second); err != nil {
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				a.log.Info("readyz.db.not_ready", "err", err)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready\n"))
	})

	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /v1/state", a.handleState)
	mux.HandleFunc("POST /v1/login", a.handleLogin)
	mux.HandleFunc("POST /v1/logout", a.handleLogout)
	mux.HandleFunc("POST /v1/refresh", a.handleRefresh)

	mux.HandleFunc("GET /v1/notifications", a.handleNotifications)
	mux.HandleFunc("POST /v1/notifications/fetch", a.handleNotificationsFetch)
	mux.HandleFunc("POST /v1/notifications/read_all", a.handleNotificationsReadAll)
	mux.HandleFunc("POST /v1/notifications/{id}/read", a.handleNotificationRead)
	mux.HandleFunc("DELETE /v1/notifications/{id}", a.handleNotificationDelete)
}

func (a *App) stateResponse() stateResponse {
	snap := a.manager.Snapshot()

	out := stateResponse{
		State:       string(snap.State),
		Loading:     snap.Loading,
		Connection:  a.channel.State().String(),
		UnreadCount: a.center.UnreadCount(),
	}
	if !snap.Identity.IsZero() {
		out.Identity = &identityResponse{
			ID:    snap.Identity.ID,
			Role:  string(snap.Identity.Role()),
			Email: snap.Identity.Email(),
		}
		p := snap.Profile
		out.Profile = &p
		out.Extended = snap.Extended
	}
	return out
}

func (a *App) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.stateResponse())
}

func (a *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !a.loginLimiter.Allow() {
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "too_many_attempts"})
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request"})
		return
	}

	res := a.manager.Login(r.Context(), identity.Credentials{Email: req.Email, Password: req.Password})
	if !res.OK {
		if errors.Is(res.Err, identity.ErrInvalidCredentials) {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid_credentials"})
			return
		}
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "provider_unavailable"})
		return
	}

	writeJSON(w, http.StatusOK, a.stateResponse())
}

func (a *App) handleLogout(w http.ResponseWriter, r *http.Request) {
	a.manager.Logout(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) handleRefresh(w http.ResponseWriter, r *http.Request) {
	a.manager.RefreshUser(r.Context())
	writeJSON(w, http.StatusOK, a.stateResponse())
}

type notificationsResponse struct {
	Notifications []notify.Notification `json:"notifications"`
	UnreadCount   int                   `json:"unread_count"`
}

func (a *App) handleNotifications(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, notificationsResponse{
		Notifications: a.center.Notifications(),
		UnreadCount:   a.center.UnreadCount(),
	})
}

func (a *App) handleNotificationsFetch(w http.ResponseWriter, r *http.Request) {
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))
	a.center.Fetch(r.Context(), force)
	writeJSON(w, http.StatusOK, notificationsResponse{
		Notifications: a.center.Notifications(),
		UnreadCount:   a.center.UnreadCount(),
	})
}

func (a *App) handleNotificationsReadAll(w http.ResponseWriter, r *http.Request) {
	a.center.MarkAllAsRead(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) handleNotificationRead(w http.ResponseWriter, r *http.Request) {
	a.center.MarkAsRead(r.Context(), r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) handleNotificationDelete(w http.ResponseWriter, r *http.Request) {
	a.center.Delete(r.Context(), r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

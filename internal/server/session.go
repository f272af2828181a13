package server

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type loginRequest struct {
	Password string `json:"password"`
}

type sessionStatus struct {
	Authenticated bool `json:"authenticated"`
	AuthRequired  bool `json:"authRequired"`
}

// requireSession rejects requests without a valid session while the login
// gate is enabled.
func (h *handler) requireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.auth.authenticated(r) {
			h.respondErrorWithOp(w, http.StatusUnauthorized, "Authentication required", "server.requireSession")
			return
		}
		next(w, r)
	}
}

func (h *handler) handleSessionStatus(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, sessionStatus{
		Authenticated: h.auth.authenticated(r),
		AuthRequired:  h.auth.enabled(),
	})
}

func (h *handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleLogin"

	if !h.auth.enabled() {
		h.writeJSON(w, http.StatusOK, map[string]bool{"success": true, "authRequired": false})
		return
	}

	body, ok := h.readBody(w, r, op)
	if !ok {
		return
	}
	var req loginRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, "failed to decode login request", op)
		return
	}

	if !h.auth.checkPassword(req.Password) {
		h.respondErrorWithOp(w, http.StatusUnauthorized, "Invalid password", op)
		return
	}

	token, expires, err := h.auth.issue()
	if err != nil {
		h.logger.Error("failed to issue session", zap.String("op", op), zap.Error(err))
		h.respondErrorWithOp(w, http.StatusInternalServerError, "Failed to start session", op)
		return
	}

	http.SetCookie(w, sessionCookie(token, expires, r.TLS != nil))
	h.logger.Info("session started", zap.String("op", op), zap.Time("expires", expires))
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"token":     token,
		"expiresAt": expires.UTC().Format(time.RFC3339),
	})
}

func (h *handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, clearedSessionCookie(r.TLS != nil))
	h.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

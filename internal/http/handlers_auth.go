package http

import (
	"fmt"
	"net/http"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

type exchangeRequest struct {
	SessionID string `json:"session_id"`
}

func (s *Server) handleExchangeSession(w http.ResponseWriter, r *http.Request) {
	if s.exchanger == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Detail: "session exchange not configured"})
		return
	}

	var req exchangeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.SessionID == "" {
		writeError(w, r, fmt.Errorf("%w: session_id required", core.ErrInvalidInput))
		return
	}

	user, session, err := s.exchanger.Exchange(r.Context(), req.SessionID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "session_token",
		Value:    session.Token,
		Path:     "/",
		MaxAge:   int(auth.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})

	applog.FromContext(r.Context()).InfoContext(r.Context(), "session established",
		applog.FieldUserID, user.ID,
	)
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, user core.User) {
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if s.exchanger != nil {
		if err := s.exchanger.Logout(r.Context(), sessionToken(r)); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "logout failed",
				applog.FieldError, err.Error(),
			)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "session_token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})

	writeJSON(w, http.StatusOK, messageResponse{Message: "Logged out successfully"})
}

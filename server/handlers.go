package server

import (
	"encoding/json"
	"net/http"

	"github.com/omnichat/telegram-adapter/authflow"
	apperrors "github.com/omnichat/telegram-adapter/internal/errors"
	"github.com/omnichat/telegram-adapter/internal/utils"
)

type connectRequest struct {
	SessionID string `json:"sessionId"`
}

type connectResponse struct {
	Status string `json:"status"`
}

type qrResponse struct {
	Status string  `json:"status"`
	QR     *string `json:"qr"`
}

type notFoundResponse struct {
	Status string `json:"status"`
}

type statusResponse struct {
	ActiveSessions int `json:"active_sessions"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// ConnectHandler initiates a login for an account (request from Core)
func (s *Server) ConnectHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req connectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
			return
		}

		result, err := s.flow.StartLogin(r.Context(), req.SessionID)
		switch {
		case apperrors.Is(err, apperrors.ErrInvalidSessionID):
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "sessionId required"})
		case err != nil:
			s.log.Error().Err(err).Str("session_id", req.SessionID).Msg("StartLogin failed")
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		default:
			writeJSON(w, http.StatusOK, connectResponse{Status: string(result.Status)})
		}
	}
}

// QRHandler reports the current challenge (polled by the frontend)
func (s *Server) QRHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.PathValue("sessionId")

		result, err := s.flow.PollChallenge(sessionID)
		switch {
		case apperrors.Is(err, apperrors.ErrSessionNotFound), apperrors.Is(err, apperrors.ErrInvalidSessionID):
			writeJSON(w, http.StatusNotFound, notFoundResponse{Status: "not_found"})
		case err != nil:
			s.log.Error().Err(err).Str("session_id", sessionID).Msg("PollChallenge failed")
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		case result.Status == authflow.StatusWaitingScan:
			writeJSON(w, http.StatusOK, qrResponse{Status: string(result.Status), QR: utils.Ptr(result.QR)})
		default:
			writeJSON(w, http.StatusOK, qrResponse{Status: string(result.Status)})
		}
	}
}

// StatusHandler reports the number of registered sessions
func (s *Server) StatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, statusResponse{ActiveSessions: s.flow.ActiveSessionCount()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

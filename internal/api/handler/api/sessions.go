package api

import (
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/newthinker/stockscan/internal/api/response"
	"github.com/newthinker/stockscan/internal/core"
	"github.com/newthinker/stockscan/internal/storage/session"
)

const maxSessions = 100

// SessionsHandler serves stored advice sessions.
type SessionsHandler struct {
	store  session.Store
	logger *zap.Logger
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(store session.Store, logger *zap.Logger) *SessionsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionsHandler{store: store, logger: logger}
}

// List handles GET /api/sessions?limit=N.
func (h *SessionsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := maxSessions
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			response.Error(w, http.StatusBadRequest, core.ErrBadRequest)
			return
		}
		limit = min(n, maxSessions)
	}

	headers, err := h.store.List(r.Context(), limit)
	if err != nil {
		h.logger.Error("listing sessions", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{
		"sessions": headers,
		"count":    len(headers),
	})
}

// Get handles GET /api/sessions/{id}.
func (h *SessionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			h.logger.Error("loading session", zap.Error(err))
		}
		response.Error(w, response.StatusFor(err), err)
		return
	}
	response.JSON(w, http.StatusOK, s)
}

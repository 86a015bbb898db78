package api

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/newthinker/stockscan/internal/api/response"
	"github.com/newthinker/stockscan/internal/core"
	"github.com/newthinker/stockscan/internal/pipeline"
)

// AdviceRunner runs the advice pipeline.
type AdviceRunner interface {
	Run(ctx context.Context, identifier string, emit pipeline.EmitFunc) pipeline.Outcome
}

// AdviceHandler streams advice runs as Server-Sent Events.
type AdviceHandler struct {
	runner AdviceRunner
	logger *zap.Logger
}

// NewAdviceHandler creates a new advice handler.
func NewAdviceHandler(runner AdviceRunner, logger *zap.Logger) *AdviceHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdviceHandler{runner: runner, logger: logger}
}

// Stream handles POST /api/stocks/{id}/advice.
//
// The run is detached from the request context: once started it finishes and
// stores its session even if the client disconnects.
func (h *AdviceHandler) Stream(w http.ResponseWriter, r *http.Request) {
	identifier := strings.TrimSpace(r.PathValue("id"))
	if identifier == "" {
		response.Error(w, http.StatusBadRequest, core.ErrBadRequest)
		return
	}

	sse, ok := newSSEWriter(w)
	if !ok {
		response.Error(w, http.StatusInternalServerError, core.ErrStageFailed)
		return
	}

	ctx := context.WithoutCancel(r.Context())
	out := h.runner.Run(ctx, identifier, func(e pipeline.Event) {
		if err := sse.Send(string(e.Type), e.Data); err != nil && sse.err == nil {
			h.logger.Error("encoding event", zap.String("event", string(e.Type)), zap.Error(err))
		}
	})

	if sse.err != nil {
		h.logger.Info("client left before the run finished",
			zap.String("identifier", identifier),
			zap.Bool("success", out.Success))
	}
}

package api

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/newthinker/stockscan/internal/api/job"
	"github.com/newthinker/stockscan/internal/api/response"
	"github.com/newthinker/stockscan/internal/warmup"
)

const jobTypeWarmup = "warmup"

// Warmer runs a cache warm-up.
type Warmer interface {
	Run(ctx context.Context, progress warmup.ProgressFunc) (warmup.Report, error)
	Identifiers() []string
}

// WarmupHandler starts warm-ups in the background and reports on them.
type WarmupHandler struct {
	warmer Warmer
	jobs   *job.Store
	logger *zap.Logger
}

// NewWarmupHandler creates a new warm-up handler.
func NewWarmupHandler(warmer Warmer, jobs *job.Store, logger *zap.Logger) *WarmupHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WarmupHandler{warmer: warmer, jobs: jobs, logger: logger}
}

// Trigger handles POST /api/warmup.
func (h *WarmupHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	j := h.jobs.Create(jobTypeWarmup)
	ctx := context.WithoutCancel(r.Context())

	go h.run(ctx, j.ID)

	response.JSON(w, http.StatusAccepted, map[string]any{
		"job":         j,
		"identifiers": len(h.warmer.Identifiers()),
	})
}

func (h *WarmupHandler) run(ctx context.Context, id string) {
	h.jobs.Update(id, func(j *job.Job) { j.Status = job.StatusRunning })

	report, err := h.warmer.Run(ctx, func(done, total int) {
		if total == 0 {
			return
		}
		h.jobs.Update(id, func(j *job.Job) { j.Progress = 100 * done / total })
	})

	h.jobs.Update(id, func(j *job.Job) {
		if err != nil {
			h.logger.Warn("warm-up job failed", zap.String("job", id), zap.Error(err))
			j.Status = job.StatusFailed
			j.Error = "warm-up already running"
			return
		}
		j.Status = job.StatusComplete
		j.Progress = 100
		j.Result = report
	})
}

// List handles GET /api/jobs.
func (h *WarmupHandler) List(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]any{"jobs": h.jobs.List()})
}

// Get handles GET /api/jobs/{id}.
func (h *WarmupHandler) Get(w http.ResponseWriter, r *http.Request) {
	j, err := h.jobs.Get(r.PathValue("id"))
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}
	response.JSON(w, http.StatusOK, j)
}

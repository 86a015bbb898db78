package llm

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/newthinker/stockscan/internal/core"
)

// Fallback tries a primary provider and, when it fails, a secondary one.
type Fallback struct {
	primary   Provider
	secondary Provider
	logger    *zap.Logger
}

var _ Provider = (*Fallback)(nil)

// NewFallback chains two providers. A nil secondary returns primary as is.
func NewFallback(primary, secondary Provider, logger *zap.Logger) Provider {
	if secondary == nil {
		return primary
	}
	if primary == nil {
		return secondary
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fallback{primary: primary, secondary: secondary, logger: logger}
}

func (f *Fallback) Name() string {
	return f.primary.Name() + "+" + f.secondary.Name()
}

func (f *Fallback) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	resp, err := f.primary.Chat(ctx, req)
	if err == nil {
		return resp, nil
	}
	f.logger.Debug("primary LLM failed, trying fallback",
		zap.String("primary", f.primary.Name()),
		zap.String("fallback", f.secondary.Name()),
		zap.Error(err))
	resp, err2 := f.secondary.Chat(ctx, req)
	if err2 != nil {
		return nil, core.WrapError(core.ErrLLMFailed, errors.Join(err, err2))
	}
	return resp, nil
}

// Stream switches to the secondary provider only if the primary failed
// before producing any text.
func (f *Fallback) Stream(ctx context.Context, req ChatRequest, fn ChunkFunc) error {
	started := false
	err := f.primary.Stream(ctx, req, func(chunk string) error {
		started = true
		return fn(chunk)
	})
	if err == nil || started || ctx.Err() != nil {
		return err
	}
	f.logger.Debug("primary LLM stream failed, trying fallback",
		zap.String("primary", f.primary.Name()),
		zap.String("fallback", f.secondary.Name()),
		zap.Error(err))
	if err2 := f.secondary.Stream(ctx, req, fn); err2 != nil {
		return core.WrapError(core.ErrLLMFailed, errors.Join(err, err2))
	}
	return nil
}

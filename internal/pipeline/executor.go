// Package pipeline runs one advice request end to end: resolve, fetch,
// forecast, summarize, synthesize and store.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/newthinker/stockscan/internal/agent"
	"github.com/newthinker/stockscan/internal/core"
	"github.com/newthinker/stockscan/internal/forecast"
	"github.com/newthinker/stockscan/internal/indicator"
	"github.com/newthinker/stockscan/internal/llm"
	"github.com/newthinker/stockscan/internal/metrics"
	"github.com/newthinker/stockscan/internal/storage/session"
)

// Step names, in pipeline order.
const (
	StepResolve      = "Resolving symbol"
	StepForecast     = "Forecasting"
	StepPrice        = "Price sub-agent"
	StepFundamentals = "Fundamentals sub-agent"
	StepNews         = "News sub-agent"
	StepAnalysis     = "Math/analysis sub-agent"
	StepSynthesis    = "Main synthesis"
	StepSave         = "Saving session"
)

// TotalSteps counts resolve, the four fetch stages, forecast, four summaries
// and synthesis.
const TotalSteps = 11

// DefaultSampleSize is about one year of trading days.
const DefaultSampleSize = 252

// SymbolResolver maps an identifier to a trading symbol.
type SymbolResolver interface {
	Resolve(ctx context.Context, identifier string) (string, bool)
}

// Fetcher aggregates market data for a symbol.
type Fetcher interface {
	Scan(ctx context.Context, symbol string, steps *core.Steps) *core.ScanContext
}

// Summarizer writes the per-topic summaries and the final advice.
type Summarizer interface {
	Summarize(ctx context.Context, topic agent.Topic, data any) (string, error)
	Synthesize(ctx context.Context, symbol string, summaries []agent.Summary, fn llm.ChunkFunc) error
}

// SessionSaver stores a finished run and returns its ID.
type SessionSaver interface {
	Save(ctx context.Context, s *session.Session) (string, error)
}

// Executor runs the advice pipeline.
type Executor struct {
	resolver   SymbolResolver
	fetcher    Fetcher
	summarizer Summarizer
	sessions   SessionSaver
	logger     *zap.Logger
	metrics    *metrics.Registry
	sampleSize int
	now        func() time.Time
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics records run outcomes and stage failures.
func WithMetrics(m *metrics.Registry) Option {
	return func(e *Executor) { e.metrics = m }
}

// WithSampleSize bounds the daily points used for analysis and forecast.
func WithSampleSize(n int) Option {
	return func(e *Executor) {
		if n >= 2 {
			e.sampleSize = n
		}
	}
}

// New creates an executor.
func New(resolver SymbolResolver, fetcher Fetcher, summarizer Summarizer, sessions SessionSaver, opts ...Option) *Executor {
	e := &Executor{
		resolver:   resolver,
		fetcher:    fetcher,
		summarizer: summarizer,
		sessions:   sessions,
		logger:     zap.NewNop(),
		sampleSize: DefaultSampleSize,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Sample returns the most recent n points of series.
func Sample(series []core.OHLCV, n int) []core.OHLCV {
	if n <= 0 || len(series) <= n {
		return series
	}
	return series[len(series)-n:]
}

type run struct {
	*Executor
	id         string
	identifier string
	emit       EmitFunc
	steps      *core.Steps
	log        *zap.Logger
}

// Run executes the pipeline for identifier, sending every event to emit.
// The returned Outcome is the payload of the final done event.
func (e *Executor) Run(ctx context.Context, identifier string, emit EmitFunc) Outcome {
	if emit == nil {
		emit = func(Event) {}
	}
	r := &run{
		Executor:   e,
		id:         ulid.Make().String(),
		identifier: identifier,
		emit:       emit,
	}
	r.log = e.logger.With(zap.String("run", r.id), zap.String("identifier", identifier))
	r.steps = core.NewSteps(TotalSteps, r.progress)

	start := e.now()
	r.log.Info("advice run started")

	out := r.execute(ctx)

	result := "success"
	if !out.Success {
		result = out.Reason
	}
	e.metrics.RecordPipelineRun(result, e.now().Sub(start).Seconds())
	r.log.Info("advice run finished",
		zap.Bool("success", out.Success),
		zap.String("reason", out.Reason),
		zap.String("session", out.SessionID),
		zap.Duration("took", e.now().Sub(start)))

	emit(Event{Type: EventDone, Data: out})
	return out
}

func (r *run) execute(ctx context.Context) Outcome {
	r.steps.Begin(StepResolve)
	symbol, ok := r.resolver.Resolve(ctx, r.identifier)
	if !ok {
		r.steps.End(StepResolve, core.ErrSymbolNotResolved)
		r.fail(StepResolve, "Could not resolve identifier")
		return Outcome{Reason: ReasonNotResolved}
	}
	r.steps.End(StepResolve, nil)
	r.log = r.log.With(zap.String("symbol", symbol))

	sc := r.fetcher.Scan(ctx, symbol, r.steps)
	if sc == nil {
		sc = &core.ScanContext{Symbol: symbol}
	}

	r.steps.Begin(StepForecast)
	sample := Sample(sc.Daily, r.sampleSize)
	fc := forecast.Compute(sample)
	r.steps.End(StepForecast, nil)
	if fc.IsEmpty() {
		r.log.Debug("forecast skipped", zap.Int("points", len(sample)))
	}

	summaries := make(map[string]*string)
	var ordered []agent.Summary
	summarize := func(step string, topic agent.Topic, present bool, data any) {
		if !present {
			r.steps.Skip()
			return
		}
		r.steps.Begin(step)
		text, err := r.guard(ctx, topic, data)
		if err != nil {
			r.log.Warn("summary failed", zap.String("topic", string(topic)), zap.Error(err))
			summaries[string(topic)] = nil
			r.fail(step, "Summary failed")
			return
		}
		summaries[string(topic)] = &text
		ordered = append(ordered, agent.Summary{Topic: topic, Text: text})
	}

	summarize(StepPrice, agent.TopicPrice, sc.Quote != nil, sc.Quote)
	summarize(StepFundamentals, agent.TopicFundamentals, len(sc.Fundamentals) > 0, sc.Fundamentals)
	summarize(StepNews, agent.TopicNews, len(sc.News) > 0, sc.News)

	input := agent.AnalysisInput{
		Quote:        sc.Quote,
		DailySample:  sample,
		Fundamentals: sc.Fundamentals,
		Indicators:   indicator.Compute(sample),
	}
	if !fc.IsEmpty() {
		input.Forecast = &fc
	}
	summarize(StepAnalysis, agent.TopicAnalysis, true, input)

	if note := fc.Summary(); note != "" {
		summaries[string(agent.TopicForecast)] = &note
		ordered = append(ordered, agent.Summary{Topic: agent.TopicForecast, Text: note})
	}

	r.steps.Begin(StepSynthesis)
	var advice strings.Builder
	err := r.summarizer.Synthesize(ctx, symbol, ordered, func(chunk string) error {
		if chunk == "" {
			return nil
		}
		advice.WriteString(chunk)
		r.emit(Event{Type: EventChunk, Data: Chunk{Text: chunk}})
		return nil
	})
	if err != nil {
		r.log.Error("synthesis failed", zap.Error(err))
		r.steps.End(StepSynthesis, err)
		r.fail(StepSynthesis, "LLM synthesis failed")
		return Outcome{Reason: ReasonAgentError}
	}
	text := advice.String()
	if strings.TrimSpace(text) == "" {
		r.log.Warn("synthesis returned no text")
		r.steps.End(StepSynthesis, core.ErrSynthesisEmpty)
		return Outcome{Reason: ReasonAgentEmpty}
	}
	r.steps.End(StepSynthesis, nil)

	sess := &session.Session{
		Identifier: r.identifier,
		Symbol:     symbol,
		Context:    sc,
		Summaries:  summaries,
		Advice:     text,
		Messages:   []session.Message{{Role: session.RoleAssistant, Content: text}},
	}
	if !fc.IsEmpty() {
		sess.Forecast = &fc
	}
	id, err := r.sessions.Save(ctx, sess)
	if err != nil {
		r.log.Error("saving session failed", zap.Error(err))
		r.fail(StepSave, "Could not store session")
		return Outcome{Reason: ReasonSessionStore}
	}
	r.emit(Event{Type: EventChunk, Data: Chunk{}})
	return Outcome{Success: true, SessionID: id}
}

// guard runs one summary and turns a panic into an error.
func (r *run) guard(ctx context.Context, topic agent.Topic, data any) (text string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = core.WrapError(core.ErrStageFailed, fmt.Errorf("panic: %v", p))
		}
	}()
	text, err = r.summarizer.Summarize(ctx, topic, data)
	if err == nil && strings.TrimSpace(text) == "" {
		err = core.WrapError(core.ErrStageFailed, errors.New("empty summary"))
	}
	return text, err
}

func (r *run) progress(step string, index, total int, err error) {
	ev := ProgressEvent{
		Step:       step,
		StepIndex:  index,
		TotalSteps: total,
		Percent:    percent(index, total),
		Status:     StatusOK,
	}
	if err != nil {
		ev.Status = StatusFailed
		ev.Message = publicMessage(err)
		r.metrics.RecordStageFailure(step)
	}
	r.emit(Event{Type: EventProgress, Data: ev})
}

func (r *run) fail(step, message string) {
	r.emit(Event{Type: EventStepFailed, Data: StepFailed{Step: step, Message: message}})
}

// publicMessage reduces an error to its generic message so no provider or
// LLM detail leaves the pipeline.
func publicMessage(err error) string {
	var ce *core.Error
	if errors.As(err, &ce) {
		return ce.Message
	}
	return core.ErrStageFailed.Message
}

// Package agent turns fetched market data into short LLM summaries and a
// streamed piece of advice built from them.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/stockscan/internal/core"
	"github.com/newthinker/stockscan/internal/forecast"
	"github.com/newthinker/stockscan/internal/indicator"
	"github.com/newthinker/stockscan/internal/llm"
)

// Topic names one summary. Topics are also the labels the synthesis sees.
type Topic string

const (
	TopicPrice        Topic = "Price"
	TopicFundamentals Topic = "Fundamentals"
	TopicNews         Topic = "News"
	TopicAnalysis     Topic = "Math/Analysis"
	TopicForecast     Topic = "Forecast"
)

// FallbackMessage stands in for LLM output when no provider is configured.
const FallbackMessage = "AI analysis is unavailable at the moment. The market data above is still current."

const devAdvice = "Mock financial advice for Dev mode. No real LLM calls."

// maxDataChars caps the JSON data embedded in one prompt.
const maxDataChars = 16000

// Summary is one labelled summary handed to the synthesis.
type Summary struct {
	Topic Topic  `json:"topic"`
	Text  string `json:"text"`
}

// AnalysisInput is the data behind the math/analysis summary. The sample
// goes last so prompt truncation cuts bars before the derived figures.
type AnalysisInput struct {
	Quote        *core.Quote         `json:"quote,omitempty"`
	Indicators   *indicator.Snapshot `json:"indicators,omitempty"`
	Fundamentals core.Fundamentals   `json:"fundamentals,omitempty"`
	Forecast     *forecast.Result    `json:"forecast,omitempty"`
	DailySample  []core.OHLCV        `json:"daily_sample,omitempty"`
}

// Agent produces summaries and advice through an LLM provider.
type Agent struct {
	llm         llm.Provider
	logger      *zap.Logger
	devMode     bool
	timeout     time.Duration
	temperature float64
}

// Option configures an Agent.
type Option func(*Agent)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Agent) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithDevMode returns canned text instead of calling the LLM.
func WithDevMode(dev bool) Option {
	return func(a *Agent) { a.devMode = dev }
}

// WithTimeout bounds each summary call.
func WithTimeout(d time.Duration) Option {
	return func(a *Agent) { a.timeout = d }
}

// New creates an agent. A nil provider makes every call return FallbackMessage.
func New(provider llm.Provider, opts ...Option) *Agent {
	a := &Agent{
		llm:         provider,
		logger:      zap.NewNop(),
		timeout:     2 * time.Minute,
		temperature: 0.3,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Summarize writes a short summary of data for the given topic.
func (a *Agent) Summarize(ctx context.Context, topic Topic, data any) (string, error) {
	if a.devMode {
		return fmt.Sprintf("Mock summary for %s (Dev mode).", strings.ToLower(string(topic))), nil
	}
	if a.llm == nil {
		return FallbackMessage, nil
	}

	prompt, err := summaryPrompt(topic, data)
	if err != nil {
		return "", err
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	req := llm.UserPrompt(summarySystemPrompt, prompt)
	req.MaxTokens = 400
	req.Temperature = a.temperature

	resp, err := a.llm.Chat(ctx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", core.WrapError(core.ErrLLMTimeout, err)
		}
		return "", core.WrapError(core.ErrLLMFailed, err)
	}
	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return "", core.WrapError(core.ErrLLMFailed, errors.New("empty reply"))
	}
	a.logger.Debug("summary done",
		zap.String("topic", string(topic)),
		zap.String("llm", a.llm.Name()),
		zap.Int("output_tokens", resp.Usage.OutputTokens))
	return text, nil
}

// Synthesize streams advice for symbol built from the summaries.
func (a *Agent) Synthesize(ctx context.Context, symbol string, summaries []Summary, fn llm.ChunkFunc) error {
	if a.devMode {
		for _, word := range strings.SplitAfter(devAdvice, " ") {
			if err := fn(word); err != nil {
				return err
			}
		}
		return nil
	}
	if a.llm == nil {
		return fn(FallbackMessage)
	}

	req := llm.UserPrompt(synthesisSystemPrompt, synthesisPrompt(symbol, summaries))
	req.MaxTokens = 1500
	req.Temperature = a.temperature

	if err := a.llm.Stream(ctx, req, fn); err != nil {
		return core.WrapError(core.ErrSynthesisFailed, err)
	}
	return nil
}

func summaryPrompt(topic Topic, data any) (string, error) {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding %s data: %w", topic, err)
	}
	body := string(raw)
	if len(body) > maxDataChars {
		body = body[:maxDataChars] + "\n..."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Topic: %s\n\n", topic))
	sb.WriteString("## Focus:\n")
	sb.WriteString(topicFocus[topic])
	sb.WriteString("\n\n")

	if in, ok := data.(AnalysisInput); ok && in.Forecast != nil {
		if note := in.Forecast.Summary(); note != "" {
			sb.WriteString("## Near-term projection:\n")
			sb.WriteString(note)
			sb.WriteString("\n\n")
		}
	}

	sb.WriteString("## Data:\n")
	sb.WriteString(body)
	sb.WriteString("\n")
	return sb.String(), nil
}

var topicFocus = map[Topic]string{
	TopicPrice:        "Current price, volume and change. How is the stock behaving and what do the numbers suggest?",
	TopicFundamentals: "Key ratios such as P/E and EPS and overall financial health. What does the profile suggest?",
	TopicNews:         "Overall sentiment, recurring themes and recent events.",
	TopicAnalysis:     "Trend, volatility and key levels in the series and metrics. Pure analysis, no advice.",
}

func synthesisPrompt(symbol string, summaries []Summary) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Symbol: %s\n\n", symbol))
	sb.WriteString("## Sub-analyses:\n")
	for _, s := range summaries {
		sb.WriteString(fmt.Sprintf("- **%s:** %s\n", s.Topic, s.Text))
	}
	sb.WriteString("\n## Task:\n")
	sb.WriteString("Combine the sub-analyses into one piece of advice for this stock.\n")
	sb.WriteString("Describe how the stock behaves, how the analysis looks, whether buying, holding or shorting is worth considering, and the most likely near-term outlook.\n")
	return sb.String()
}

const summarySystemPrompt = `You are a financial analysis sub-agent. Summarize the data you are given in 2-4 short sentences.
Do not give a buy or sell recommendation; a later step does that.`

const synthesisSystemPrompt = `You are a financial advisor. You receive short sub-analyses of one stock and write the final advice.

When a Forecast entry is present, use it for the near-term outlook.
Write clear, concise paragraphs formatted in Markdown: **bold** for emphasis, ## for section headers, and - or 1. for lists.`

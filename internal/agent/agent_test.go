package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/stockscan/internal/core"
	"github.com/newthinker/stockscan/internal/forecast"
	"github.com/newthinker/stockscan/internal/indicator"
	"github.com/newthinker/stockscan/internal/llm"
)

type mockLLMProvider struct {
	reply    string
	err      error
	chunks   []string
	lastReq  llm.ChatRequest
	deadline bool
}

func (m *mockLLMProvider) Name() string { return "mock" }

func (m *mockLLMProvider) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	m.lastReq = req
	_, m.deadline = ctx.Deadline()
	if m.err != nil {
		return nil, m.err
	}
	return &llm.ChatResponse{Content: m.reply}, nil
}

func (m *mockLLMProvider) Stream(_ context.Context, req llm.ChatRequest, fn llm.ChunkFunc) error {
	m.lastReq = req
	for _, c := range m.chunks {
		if err := fn(c); err != nil {
			return err
		}
	}
	return m.err
}

func collect(t *testing.T, a *Agent, summaries []Summary) (string, error) {
	t.Helper()
	var sb strings.Builder
	err := a.Synthesize(context.Background(), "AAPL", summaries, func(c string) error {
		sb.WriteString(c)
		return nil
	})
	return sb.String(), err
}

func TestSummarize_DevMode(t *testing.T) {
	a := New(nil, WithDevMode(true))
	s, err := a.Summarize(context.Background(), TopicPrice, nil)
	require.NoError(t, err)
	assert.Equal(t, "Mock summary for price (Dev mode).", s)

	s, _ = a.Summarize(context.Background(), TopicAnalysis, nil)
	assert.Equal(t, "Mock summary for math/analysis (Dev mode).", s)
}

func TestSummarize_NoProvider(t *testing.T) {
	s, err := New(nil).Summarize(context.Background(), TopicNews, []core.NewsItem{{Title: "x"}})
	require.NoError(t, err)
	assert.Equal(t, FallbackMessage, s)
}

func TestSummarize_PromptCarriesData(t *testing.T) {
	m := &mockLLMProvider{reply: "  Price is up 2%.  "}
	a := New(m, WithTimeout(time.Minute))

	s, err := a.Summarize(context.Background(), TopicPrice, &core.Quote{Symbol: "AAPL", Price: 190.25})
	require.NoError(t, err)
	assert.Equal(t, "Price is up 2%.", s)
	assert.True(t, m.deadline)
	require.Len(t, m.lastReq.Messages, 1)
	assert.Contains(t, m.lastReq.Messages[0].Content, "190.25")
	assert.Contains(t, m.lastReq.Messages[0].Content, "## Topic: Price")
}

func TestSummarize_AnalysisIncludesProjection(t *testing.T) {
	m := &mockLLMProvider{reply: "Uptrend."}
	series := []core.OHLCV{
		{Date: core.NewDate(2024, 1, 3), Close: core.Float(100)},
		{Date: core.NewDate(2024, 1, 4), Close: core.Float(102)},
		{Date: core.NewDate(2024, 1, 5), Close: core.Float(104)},
	}
	fc := forecast.Compute(series)

	_, err := New(m).Summarize(context.Background(), TopicAnalysis, AnalysisInput{DailySample: series, Forecast: &fc})
	require.NoError(t, err)
	assert.Contains(t, m.lastReq.Messages[0].Content, "2024-01-08=106.00")
}

func TestSummarize_Errors(t *testing.T) {
	_, err := New(&mockLLMProvider{err: errors.New("503")}).Summarize(context.Background(), TopicPrice, nil)
	assert.ErrorIs(t, err, core.ErrLLMFailed)

	_, err = New(&mockLLMProvider{err: context.DeadlineExceeded}).Summarize(context.Background(), TopicPrice, nil)
	assert.ErrorIs(t, err, core.ErrLLMTimeout)

	_, err = New(&mockLLMProvider{reply: "   "}).Summarize(context.Background(), TopicPrice, nil)
	assert.ErrorIs(t, err, core.ErrLLMFailed)
}

func TestSynthesize_DevMode(t *testing.T) {
	text, err := collect(t, New(nil, WithDevMode(true)), nil)
	require.NoError(t, err)
	assert.Equal(t, devAdvice, text)
}

func TestSynthesize_NoProvider(t *testing.T) {
	text, err := collect(t, New(nil), nil)
	require.NoError(t, err)
	assert.Equal(t, FallbackMessage, text)
}

func TestSynthesize_Streams(t *testing.T) {
	m := &mockLLMProvider{chunks: []string{"## Outlook\n", "Hold."}}
	text, err := collect(t, New(m), []Summary{
		{Topic: TopicPrice, Text: "Up 2%."},
		{Topic: TopicForecast, Text: "Next 3 trading days ..."},
	})
	require.NoError(t, err)
	assert.Equal(t, "## Outlook\nHold.", text)
	assert.Contains(t, m.lastReq.Messages[0].Content, "- **Price:** Up 2%.")
	assert.Contains(t, m.lastReq.Messages[0].Content, "- **Forecast:**")
}

func TestSynthesize_Failure(t *testing.T) {
	_, err := collect(t, New(&mockLLMProvider{err: errors.New("reset")}), nil)
	assert.ErrorIs(t, err, core.ErrSynthesisFailed)
}

func TestSummaryPrompt_IndicatorsSurviveTruncation(t *testing.T) {
	series := make([]core.OHLCV, 600)
	start := core.NewDate(2022, 1, 3)
	for i := range series {
		series[i] = core.OHLCV{Date: start.AddDays(i), Close: core.Float(100 + float64(i)/10)}
	}
	in := AnalysisInput{DailySample: series, Indicators: indicator.Compute(series)}
	require.NotNil(t, in.Indicators)

	prompt, err := summaryPrompt(TopicAnalysis, in)
	require.NoError(t, err)
	assert.Contains(t, prompt, `"rsi_14"`)
	assert.Contains(t, prompt, `"sma_200"`)
	assert.Less(t, len(prompt), maxDataChars+1000)
}

func TestSummaryPrompt_Truncates(t *testing.T) {
	big := strings.Repeat("a", maxDataChars*2)
	prompt, err := summaryPrompt(TopicNews, []core.NewsItem{{Summary: big}})
	require.NoError(t, err)
	assert.Less(t, len(prompt), maxDataChars+1000)
}

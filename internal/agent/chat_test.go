package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/stockscan/internal/core"
)

func reply(t *testing.T, a *Agent, in ChatInput) (string, error) {
	t.Helper()
	var sb strings.Builder
	err := a.Reply(context.Background(), in, func(c string) error {
		sb.WriteString(c)
		return nil
	})
	return sb.String(), err
}

func TestReply_DevMode(t *testing.T) {
	var chunks []string
	err := New(nil, WithDevMode(true)).Reply(context.Background(), ChatInput{Question: "why?"}, func(c string) error {
		chunks = append(chunks, c)
		return nil
	})
	require.NoError(t, err)
	assert.Greater(t, len(chunks), 1)
	assert.Equal(t, devReply, strings.Join(chunks, ""))
}

func TestReply_NoProvider(t *testing.T) {
	text, err := reply(t, New(nil), ChatInput{Question: "why?"})
	require.NoError(t, err)
	assert.Equal(t, FallbackMessage, text)
}

func TestReply_Streams(t *testing.T) {
	m := &mockLLMProvider{chunks: []string{"Momentum ", "is flat."}}
	summary := "Price is rising."
	text, err := reply(t, New(m), ChatInput{
		Symbol:    "AAPL",
		Summaries: map[string]*string{"Price": &summary, "News": nil},
		History:   []Turn{{Role: "assistant", Content: "Hold."}},
		Question:  "Why hold?",
	})
	require.NoError(t, err)
	assert.Equal(t, "Momentum is flat.", text)

	assert.Equal(t, chatSystemPrompt, m.lastReq.SystemPrompt)
	assert.Equal(t, 1500, m.lastReq.MaxTokens)
	prompt := m.lastReq.Messages[0].Content
	assert.Contains(t, prompt, "## Symbol: AAPL")
	assert.Contains(t, prompt, "Price is rising.")
	assert.Contains(t, prompt, "assistant: Hold.")
	assert.True(t, strings.HasSuffix(prompt, "## Question:\nWhy hold?\n"))
}

func TestReply_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"timeout", fmt.Errorf("stream: %w", context.DeadlineExceeded), core.ErrLLMTimeout},
		{"failure", errors.New("boom"), core.ErrLLMFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reply(t, New(&mockLLMProvider{err: tt.err}), ChatInput{Question: "why?"})
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestChatPrompt_KeepsRecentTurns(t *testing.T) {
	var history []Turn
	for i := 0; i < 14; i++ {
		history = append(history, Turn{Role: "user", Content: fmt.Sprintf("turn-%02d", i)})
	}
	prompt := chatPrompt(ChatInput{History: history, Question: "next"})

	assert.NotContains(t, prompt, "turn-03")
	assert.Contains(t, prompt, "turn-04")
	assert.Contains(t, prompt, "turn-13")
	assert.NotContains(t, prompt, "## Earlier analysis")
}

func TestChatPrompt_ClipsLongTextOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("é", maxTurnChars)
	big := strings.Repeat("x", 2*maxChatSummaryChars)
	prompt := chatPrompt(ChatInput{
		Summaries: map[string]*string{"News": &big},
		History:   []Turn{{Role: "user", Content: long}},
		Question:  "next",
	})

	assert.True(t, utf8.ValidString(prompt))
	assert.NotContains(t, prompt, long)
	assert.NotContains(t, prompt, big)
	assert.Contains(t, prompt, strings.Repeat("é", maxTurnChars/2)+"...")
}

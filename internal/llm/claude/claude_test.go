// internal/llm/claude/claude_test.go
package claude

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/stockscan/internal/llm"
)

func TestProvider_ImplementsInterface(t *testing.T) {
	var _ llm.Provider = (*Provider)(nil)
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New("", "model")
	assert.Error(t, err)
}

func TestNew_DefaultModel(t *testing.T) {
	p, err := New("test-key", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, p.model)
}

func TestChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"msg_1","type":"message","role":"assistant","model":"m",
			"content":[{"type":"text","text":"Steady uptrend."}],
			"stop_reason":"end_turn","usage":{"input_tokens":12,"output_tokens":3}}`)
	}))
	defer server.Close()

	p, err := New("test-key", "m", option.WithBaseURL(server.URL), option.WithMaxRetries(0))
	require.NoError(t, err)

	resp, err := p.Chat(context.Background(), llm.UserPrompt("system", "summarize"))
	require.NoError(t, err)
	assert.Equal(t, "Steady uptrend.", resp.Content)
	assert.Equal(t, 12, resp.Usage.InputTokens)
}

func TestStream(t *testing.T) {
	events := []string{
		`event: message_start` + "\n" + `data: {"type":"message_start","message":{"id":"msg_1","type":"message","role":"assistant","model":"m","content":[],"usage":{"input_tokens":5,"output_tokens":0}}}`,
		`event: content_block_start` + "\n" + `data: {"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`,
		`event: content_block_delta` + "\n" + `data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hold "}}`,
		`event: content_block_delta` + "\n" + `data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"for now."}}`,
		`event: content_block_stop` + "\n" + `data: {"type":"content_block_stop","index":0}`,
		`event: message_stop` + "\n" + `data: {"type":"message_stop"}`,
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, e := range events {
			fmt.Fprint(w, e+"\n\n")
		}
	}))
	defer server.Close()

	p, err := New("test-key", "m", option.WithBaseURL(server.URL), option.WithMaxRetries(0))
	require.NoError(t, err)

	var sb strings.Builder
	err = p.Stream(context.Background(), llm.UserPrompt("", "advise"), func(c string) error {
		sb.WriteString(c)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Hold for now.", sb.String())
}

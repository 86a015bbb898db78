// internal/llm/openai/openai_test.go
package openai

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/stockscan/internal/llm"
)

func TestProvider_ImplementsInterface(t *testing.T) {
	var _ llm.Provider = (*Provider)(nil)
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New("", "model", "")
	assert.Error(t, err)
}

func TestNew_DefaultModel(t *testing.T) {
	p, err := New("test-key", "", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, p.model)
}

func TestChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","model":"gpt-4o",
			"choices":[{"index":0,"message":{"role":"assistant","content":"Volatile."},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":9,"completion_tokens":2,"total_tokens":11}}`)
	}))
	defer server.Close()

	p, err := New("test-key", "", server.URL)
	require.NoError(t, err)

	resp, err := p.Chat(context.Background(), llm.UserPrompt("sys", "summarize"))
	require.NoError(t, err)
	assert.Equal(t, "Volatile.", resp.Content)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, 2, resp.Usage.OutputTokens)
}

func TestStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, c := range []string{"Con", "sider ", "holding."} {
			fmt.Fprintf(w, "data: {\"id\":\"c1\",\"object\":\"chat.completion.chunk\",\"model\":\"gpt-4o\",\"choices\":[{\"index\":0,\"delta\":{\"content\":%q}}]}\n\n", c)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	p, err := New("test-key", "", server.URL)
	require.NoError(t, err)

	var sb strings.Builder
	err = p.Stream(context.Background(), llm.UserPrompt("", "advise"), func(c string) error {
		sb.WriteString(c)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Consider holding.", sb.String())
}

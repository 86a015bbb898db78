// internal/llm/ollama/ollama_test.go
package ollama

import (
	"context"
	"encoding/json"
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

func TestNew_Defaults(t *testing.T) {
	p, err := New("", "")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:11434", p.endpoint)
	assert.Equal(t, "qwen2.5:32b", p.model)
}

func TestNew_CustomValues(t *testing.T) {
	p, err := New("http://custom:8080", "llama3")
	require.NoError(t, err)
	assert.Equal(t, "http://custom:8080", p.endpoint)
	assert.Equal(t, "llama3", p.model)
}

func TestChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.False(t, req.Stream)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)

		fmt.Fprint(w, `{"model":"llama3","message":{"role":"assistant","content":"Flat."},"done":true,"done_reason":"stop","prompt_eval_count":4,"eval_count":1}`)
	}))
	defer server.Close()

	p, _ := New(server.URL, "llama3")
	resp, err := p.Chat(context.Background(), llm.UserPrompt("be brief", "summarize"))
	require.NoError(t, err)
	assert.Equal(t, "Flat.", resp.Content)
	assert.Equal(t, "stop", resp.FinishReason)
}

func TestChat_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	p, _ := New(server.URL, "llama3")
	_, err := p.Chat(context.Background(), llm.UserPrompt("", "x"))
	assert.Error(t, err)
}

func TestStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, c := range []string{"Trend ", "is ", "up."} {
			fmt.Fprintf(w, "{\"message\":{\"role\":\"assistant\",\"content\":%q},\"done\":false}\n", c)
		}
		fmt.Fprint(w, `{"message":{"role":"assistant","content":""},"done":true}`+"\n")
	}))
	defer server.Close()

	p, _ := New(server.URL, "llama3")
	var sb strings.Builder
	err := p.Stream(context.Background(), llm.UserPrompt("", "x"), func(c string) error {
		sb.WriteString(c)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Trend is up.", sb.String())
}

func TestStream_ErrorLine(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error":"model not found"}`+"\n")
	}))
	defer server.Close()

	p, _ := New(server.URL, "missing")
	err := p.Stream(context.Background(), llm.UserPrompt("", "x"), func(string) error { return nil })
	assert.ErrorContains(t, err, "model not found")
}

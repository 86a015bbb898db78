package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/stockscan/internal/core"
)

type stubProvider struct {
	name   string
	reply  string
	err    error
	chunks []string
	calls  int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Chat(context.Context, ChatRequest) (*ChatResponse, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &ChatResponse{Content: s.reply}, nil
}

func (s *stubProvider) Stream(_ context.Context, _ ChatRequest, fn ChunkFunc) error {
	s.calls++
	for _, c := range s.chunks {
		if err := fn(c); err != nil {
			return err
		}
	}
	return s.err
}

func TestNewFallback_NilSecondary(t *testing.T) {
	p := &stubProvider{name: "claude"}
	assert.Same(t, p, NewFallback(p, nil, nil))
}

func TestFallback_Chat(t *testing.T) {
	primary := &stubProvider{name: "claude", err: errors.New("overloaded")}
	secondary := &stubProvider{name: "openai", reply: "fine"}
	f := NewFallback(primary, secondary, nil)

	assert.Equal(t, "claude+openai", f.Name())
	resp, err := f.Chat(context.Background(), UserPrompt("", "hi"))
	require.NoError(t, err)
	assert.Equal(t, "fine", resp.Content)
	assert.Equal(t, 1, secondary.calls)
}

func TestFallback_ChatBothFail(t *testing.T) {
	f := NewFallback(
		&stubProvider{name: "a", err: errors.New("x")},
		&stubProvider{name: "b", err: errors.New("y")}, nil)
	_, err := f.Chat(context.Background(), UserPrompt("", "hi"))
	assert.ErrorIs(t, err, core.ErrLLMFailed)
}

func TestFallback_StreamBeforeFirstChunk(t *testing.T) {
	primary := &stubProvider{name: "a", err: errors.New("refused")}
	secondary := &stubProvider{name: "b", chunks: []string{"Buy ", "low."}}
	f := NewFallback(primary, secondary, nil)

	var sb strings.Builder
	err := f.Stream(context.Background(), UserPrompt("", "hi"), func(c string) error {
		sb.WriteString(c)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Buy low.", sb.String())
}

func TestFallback_StreamAfterFirstChunkDoesNotRestart(t *testing.T) {
	primary := &stubProvider{name: "a", chunks: []string{"partial"}, err: errors.New("reset")}
	secondary := &stubProvider{name: "b", chunks: []string{"other"}}
	f := NewFallback(primary, secondary, nil)

	var got []string
	err := f.Stream(context.Background(), UserPrompt("", "hi"), func(c string) error {
		got = append(got, c)
		return nil
	})
	assert.Error(t, err)
	assert.Equal(t, []string{"partial"}, got)
	assert.Equal(t, 0, secondary.calls)
}

func TestChatRequest_MaxTokensOrDefault(t *testing.T) {
	assert.Equal(t, DefaultMaxTokens, ChatRequest{}.MaxTokensOrDefault())
	assert.Equal(t, 200, ChatRequest{MaxTokens: 200}.MaxTokensOrDefault())
}

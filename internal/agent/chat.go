package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/newthinker/stockscan/internal/core"
	"github.com/newthinker/stockscan/internal/llm"
)

const devReply = "Mock reply in Dev mode."

// Follow-up prompt limits.
const (
	maxChatTurns        = 10
	maxTurnChars        = 500
	maxChatSummaryChars = 2500
)

// Turn is one earlier message of a conversation.
type Turn struct {
	Role    string
	Content string
}

// ChatInput is a follow-up question about a stored session.
type ChatInput struct {
	Symbol    string
	Summaries map[string]*string
	History   []Turn
	Question  string
}

// Reply streams an answer to a follow-up question, grounded on the
// session's summaries and the most recent turns.
func (a *Agent) Reply(ctx context.Context, in ChatInput, fn llm.ChunkFunc) error {
	if a.devMode {
		for _, word := range strings.SplitAfter(devReply, " ") {
			if err := fn(word); err != nil {
				return err
			}
		}
		return nil
	}
	if a.llm == nil {
		return fn(FallbackMessage)
	}

	req := llm.UserPrompt(chatSystemPrompt, chatPrompt(in))
	req.MaxTokens = 1500
	req.Temperature = a.temperature

	if err := a.llm.Stream(ctx, req, fn); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return core.WrapError(core.ErrLLMTimeout, err)
		}
		return core.WrapError(core.ErrLLMFailed, err)
	}
	return nil
}

func chatPrompt(in ChatInput) string {
	var sb strings.Builder
	if in.Symbol != "" {
		sb.WriteString(fmt.Sprintf("## Symbol: %s\n\n", in.Symbol))
	}

	if len(in.Summaries) > 0 {
		// a map of strings always encodes
		raw, _ := json.MarshalIndent(in.Summaries, "", "  ")
		sb.WriteString("## Earlier analysis:\n")
		sb.WriteString(clip(string(raw), maxChatSummaryChars))
		sb.WriteString("\n\n")
	}

	history := in.History
	if len(history) > maxChatTurns {
		history = history[len(history)-maxChatTurns:]
	}
	if len(history) > 0 {
		sb.WriteString("## Conversation so far:\n")
		for _, t := range history {
			sb.WriteString(fmt.Sprintf("%s: %s\n", t.Role, clip(t.Content, maxTurnChars)))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Question:\n")
	sb.WriteString(in.Question)
	sb.WriteString("\n")
	return sb.String()
}

// clip cuts s to at most n bytes without splitting a rune.
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

const chatSystemPrompt = `You are a financial advisor answering follow-up questions about a stock you already analysed.
Base your answer on the earlier analysis and the conversation. Say so when they do not cover the question.
Answer concisely in Markdown.`

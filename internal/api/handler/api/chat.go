package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/newthinker/stockscan/internal/agent"
	"github.com/newthinker/stockscan/internal/api/response"
	"github.com/newthinker/stockscan/internal/core"
	"github.com/newthinker/stockscan/internal/llm"
	"github.com/newthinker/stockscan/internal/storage/session"
)

const maxChatBody = 64 << 10

// Replier answers follow-up questions about a session.
type Replier interface {
	Reply(ctx context.Context, in agent.ChatInput, fn llm.ChunkFunc) error
}

// ChatHandler streams follow-up answers as Server-Sent Events.
type ChatHandler struct {
	replier Replier
	store   session.Store
	logger  *zap.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(replier Replier, store session.Store, logger *zap.Logger) *ChatHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatHandler{replier: replier, store: store, logger: logger}
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

type textEvent struct {
	Text string `json:"text"`
}

type errorEvent struct {
	Message string `json:"message"`
}

// Stream handles POST /api/chat.
//
// The question and the reply are appended to the session once the reply is
// complete. Like advice runs, the reply is detached from the request context.
func (h *ChatHandler) Stream(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBody)).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, core.ErrBadRequest)
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	req.SessionID = strings.TrimSpace(req.SessionID)
	if req.Message == "" || req.SessionID == "" {
		response.Error(w, http.StatusBadRequest, core.ErrBadRequest)
		return
	}

	sse, ok := newSSEWriter(w)
	if !ok {
		response.Error(w, http.StatusInternalServerError, core.ErrStageFailed)
		return
	}
	log := h.logger.With(zap.String("session_id", req.SessionID))

	ctx := context.WithoutCancel(r.Context())
	sess, err := h.store.Get(ctx, req.SessionID)
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			log.Error("loading session", zap.Error(err))
		}
		sse.Send("error", errorEvent{Message: "Session not found"})
		return
	}

	var answer strings.Builder
	err = h.replier.Reply(ctx, chatInput(sess, req.Message), func(chunk string) error {
		if chunk == "" {
			return nil
		}
		answer.WriteString(chunk)
		sse.Send("message", textEvent{Text: chunk})
		return nil
	})
	if err != nil {
		log.Error("chat reply failed", zap.Error(err))
		sse.Send("error", errorEvent{Message: "Could not generate a reply"})
		return
	}
	text := answer.String()
	if strings.TrimSpace(text) == "" {
		log.Warn("chat reply was empty")
		sse.Send("error", errorEvent{Message: "Could not generate a reply"})
		return
	}

	err = h.store.AppendMessages(ctx, sess.ID,
		session.Message{Role: session.RoleUser, Content: req.Message},
		session.Message{Role: session.RoleAssistant, Content: text},
	)
	if err != nil {
		log.Error("saving chat messages", zap.Error(err))
		sse.Send("error", errorEvent{Message: "Could not store the conversation"})
		return
	}

	sse.Send("message", textEvent{})
	sse.Send("done", map[string]bool{"success": true})
	if sse.err != nil {
		log.Info("client left before the reply finished")
	}
}

// chatInput builds the prompt input from a session. Sessions stored before
// messages were kept fall back to the advice as the only earlier turn.
func chatInput(sess *session.Session, question string) agent.ChatInput {
	in := agent.ChatInput{
		Symbol:    sess.Symbol,
		Summaries: sess.Summaries,
		Question:  question,
	}
	for _, m := range sess.Messages {
		in.History = append(in.History, agent.Turn{Role: m.Role, Content: m.Content})
	}
	if len(in.History) == 0 && sess.Advice != "" {
		in.History = []agent.Turn{{Role: session.RoleAssistant, Content: sess.Advice}}
	}
	return in
}

package pipeline

// EventType names an entry of the pipeline event stream.
type EventType string

const (
	EventProgress   EventType = "progress"
	EventStepFailed EventType = "step_failed"
	EventChunk      EventType = "advice_chunk"
	EventDone       EventType = "done"
)

// Progress statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Done reasons.
const (
	ReasonNotResolved  = "symbol_not_resolved"
	ReasonAgentError   = "main_agent_error"
	ReasonAgentEmpty   = "main_agent_empty"
	ReasonSessionStore = "session_store_error"
)

// Event is one entry of the stream. Data is a ProgressEvent, StepFailed,
// Chunk or Outcome depending on Type.
type Event struct {
	Type EventType
	Data any
}

// EmitFunc receives events in order. Done is always the last one.
type EmitFunc func(Event)

// ProgressEvent reports a stage boundary.
type ProgressEvent struct {
	Step       string `json:"step"`
	StepIndex  int    `json:"stepIndex"`
	TotalSteps int    `json:"totalSteps"`
	Percent    int    `json:"percent"`
	Status     string `json:"status"`
	Message    string `json:"message,omitempty"`
}

// StepFailed reports a stage that was given up on.
type StepFailed struct {
	Step    string `json:"step"`
	Message string `json:"message"`
}

// Chunk is a piece of streamed advice.
type Chunk struct {
	Text string `json:"text"`
}

// Outcome is the payload of the done event.
type Outcome struct {
	Success   bool   `json:"success"`
	SessionID string `json:"sessionId,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

func percent(index, total int) int {
	if total <= 0 {
		return 0
	}
	return 100 * index / total
}

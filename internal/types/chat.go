package types

// MessageType tags who produced a conversation turn.
type MessageType string

const (
	MessageTypeUser   MessageType = "user"
	MessageTypeBot    MessageType = "bot"
	MessageTypeSystem MessageType = "system"
	MessageTypeError  MessageType = "error"
)

// ChatMessage is one turn of a conversation. Turns are appended, never
// edited or removed, for the lifetime of the process.
type ChatMessage struct {
	Message     string           `json:"message"`
	MessageType MessageType      `json:"message_type"`
	Timestamp   string           `json:"timestamp"`
	SQLQuery    string           `json:"sql_query,omitempty"`
	Data        []map[string]any `json:"data,omitempty"`
}

// QueryRequest is the transport-facing request for one question.
// Override tells the pipeline to skip the clarification gate; SQLQuery
// optionally carries a previously generated statement so generation is
// skipped entirely.
type QueryRequest struct {
	Question       string `json:"question" binding:"required"`
	ConversationID string `json:"conversation_id"`
	Override       bool   `json:"override"`
	SQLQuery       string `json:"sql_query"`
}

// Outcome is the terminal state of one pipeline run.
type Outcome string

const (
	OutcomeNeedsClarification Outcome = "NEEDS_CLARIFICATION"
	OutcomeInvalidSQL         Outcome = "INVALID_SQL"
	OutcomeSuccess            Outcome = "SUCCESS"
	OutcomeExecutionError     Outcome = "EXECUTION_ERROR"
)

// QueryResponse is the transport-facing result of one pipeline run.
type QueryResponse struct {
	Response            string           `json:"response"`
	SQLQuery            string           `json:"sql_query,omitempty"`
	Data                []map[string]any `json:"data,omitempty"`
	ClarificationNeeded bool             `json:"clarification_needed"`
	ConversationID      string           `json:"conversation_id"`
	MessageType         MessageType      `json:"message_type"`
	Outcome             Outcome          `json:"outcome"`
}

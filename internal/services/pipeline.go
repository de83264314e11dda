package services

import (
	"context"
	"fmt"
	"time"

	"github.com/bssshyamsundhar/float-chat/internal/pkg/logger"
	"github.com/bssshyamsundhar/float-chat/internal/schema"
	"github.com/bssshyamsundhar/float-chat/internal/types"
)

// Pipeline sequences clarification, generation, sanitization and
// execution for one incoming question. Every invocation reaches
// exactly one terminal state and each terminal state appends exactly
// one non-user conversation turn and one attempt-log entry. Nothing
// escapes to the transport layer: panics and propagated errors are
// converted into an error-typed response at this boundary.
type Pipeline struct {
	log       *logger.Logger
	store     *ConversationStore
	clarifier *Clarifier
	generator *Generator
	executor  QueryExecutor
	attempts  *AttemptLog
	notifier  *ChatNotifier
	catalog   *schema.Catalog
	rowLimit  int

	now func() time.Time
}

func NewPipeline(
	log *logger.Logger,
	store *ConversationStore,
	clarifier *Clarifier,
	generator *Generator,
	executor QueryExecutor,
	attempts *AttemptLog,
	notifier *ChatNotifier,
	catalog *schema.Catalog,
	rowLimit int,
) *Pipeline {
	if rowLimit <= 0 {
		rowLimit = 500
	}
	return &Pipeline{
		log:       log.With("service", "Pipeline"),
		store:     store,
		clarifier: clarifier,
		generator: generator,
		executor:  executor,
		attempts:  attempts,
		notifier:  notifier,
		catalog:   catalog,
		rowLimit:  rowLimit,
		now:       time.Now,
	}
}

// Process runs one question through the state machine:
// START -> CLARIFY_CHECK -> {NEEDS_CLARIFICATION | GENERATE} ->
// {INVALID_SQL | EXECUTE} -> {SUCCESS | EXECUTION_ERROR}.
// NEEDS_CLARIFICATION is not looped past automatically; the caller
// resubmits with Override set, optionally carrying a previously
// generated statement.
func (p *Pipeline) Process(ctx context.Context, req types.QueryRequest) (resp types.QueryResponse) {
	conversationID := p.store.Ensure(req.ConversationID)

	defer func() {
		if r := recover(); r != nil {
			p.log.Error("Pipeline panic recovered", "panic", r, "question", req.Question)
			resp = p.systemError(ctx, conversationID, req.Question, nil, fmt.Errorf("panic: %v", r))
		}
	}()

	p.appendTurn(ctx, conversationID, types.ChatMessage{
		Message:     req.Question,
		MessageType: types.MessageTypeUser,
		Timestamp:   p.timestamp(),
	})

	clarification := ClarifyClear
	if !req.Override {
		clarification = p.clarifier.Clarify(ctx, req.Question)
	}

	if clarification != ClarifyClear {
		// Generate a preview statement so the caller can run as-is
		// without a second generation round-trip.
		sqlQuery, err := p.generator.Generate(ctx, req.Question)
		if err != nil {
			return p.systemError(ctx, conversationID, req.Question, nil, err)
		}
		message := fmt.Sprintf("🤔 Your query might need clarification:\n\n%s\n\n👉 You can refine OR run as-is.", clarification)
		p.appendTurn(ctx, conversationID, types.ChatMessage{
			Message:     message,
			MessageType: types.MessageTypeSystem,
			Timestamp:   p.timestamp(),
			SQLQuery:    sqlQuery,
		})
		p.attempts.Record(req.Question, strPtr(sqlQuery), false, strPtr("Clarification needed"), nil, nil)
		return types.QueryResponse{
			Response:            message,
			SQLQuery:            sqlQuery,
			ClarificationNeeded: true,
			ConversationID:      conversationID,
			MessageType:         types.MessageTypeSystem,
			Outcome:             types.OutcomeNeedsClarification,
		}
	}

	var sqlQuery string
	if req.Override && req.SQLQuery != "" {
		sqlQuery = Sanitize(req.SQLQuery, p.catalog.Tables, p.rowLimit)
	} else {
		var err error
		sqlQuery, err = p.generator.Generate(ctx, req.Question)
		if err != nil {
			return p.systemError(ctx, conversationID, req.Question, nil, err)
		}
	}

	if sqlQuery == NoValidSQL {
		message := "❌ I couldn't generate a valid SQL query."
		p.appendTurn(ctx, conversationID, types.ChatMessage{
			Message:     message,
			MessageType: types.MessageTypeError,
			Timestamp:   p.timestamp(),
		})
		p.attempts.Record(req.Question, nil, false, strPtr(NoValidSQL), nil, nil)
		return types.QueryResponse{
			Response:       message,
			ConversationID: conversationID,
			MessageType:    types.MessageTypeError,
			Outcome:        types.OutcomeInvalidSQL,
		}
	}

	data, err := p.executor.Execute(ctx, sqlQuery)
	if err != nil {
		return p.systemError(ctx, conversationID, req.Question, strPtr(sqlQuery), err)
	}

	rows := len(data)
	message := fmt.Sprintf("✅ **Query executed successfully!**\n```sql\n%s\n```\nFound %d records", sqlQuery, rows)
	p.appendTurn(ctx, conversationID, types.ChatMessage{
		Message:     message,
		MessageType: types.MessageTypeBot,
		Timestamp:   p.timestamp(),
		SQLQuery:    sqlQuery,
		Data:        data,
	})
	p.attempts.Record(req.Question, strPtr(sqlQuery), true, nil, &rows, data)
	return types.QueryResponse{
		Response:       message,
		SQLQuery:       sqlQuery,
		Data:           data,
		ConversationID: conversationID,
		MessageType:    types.MessageTypeBot,
		Outcome:        types.OutcomeSuccess,
	}
}

func (p *Pipeline) systemError(ctx context.Context, conversationID, question string, sqlQuery *string, err error) types.QueryResponse {
	p.log.Error("Query processing error", "question", question, "error", err)
	message := fmt.Sprintf("❌ System Error: %v", err)
	p.appendTurn(ctx, conversationID, types.ChatMessage{
		Message:     message,
		MessageType: types.MessageTypeError,
		Timestamp:   p.timestamp(),
	})
	errMsg := err.Error()
	p.attempts.Record(question, sqlQuery, false, &errMsg, nil, nil)
	return types.QueryResponse{
		Response:       message,
		ConversationID: conversationID,
		MessageType:    types.MessageTypeError,
		Outcome:        types.OutcomeExecutionError,
	}
}

func (p *Pipeline) appendTurn(ctx context.Context, conversationID string, turn types.ChatMessage) {
	p.store.Append(conversationID, turn)
	p.notifier.NotifyTurn(ctx, conversationID, turn)
}

func (p *Pipeline) timestamp() string {
	return fmt.Sprintf("%d", p.now().Unix())
}

func strPtr(s string) *string {
	return &s
}

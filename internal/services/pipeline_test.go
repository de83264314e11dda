package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/bssshyamsundhar/float-chat/internal/pkg/logger"
	"github.com/bssshyamsundhar/float-chat/internal/schema"
	"github.com/bssshyamsundhar/float-chat/internal/sse"
	"github.com/bssshyamsundhar/float-chat/internal/types"
)

type fakeExecutor struct {
	calls int
	rows  []map[string]any
	err   error
	panic bool
}

func (f *fakeExecutor) Execute(ctx context.Context, sql string) ([]map[string]any, error) {
	f.calls++
	if f.panic {
		panic("executor exploded")
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

type pipelineFixture struct {
	pipeline   *Pipeline
	store      *ConversationStore
	clarifyGen *scriptedGen
	sqlGen     *scriptedGen
	executor   *fakeExecutor
	logPath    string
}

func newPipelineFixture(t *testing.T, clarifyGen, sqlGen *scriptedGen, executor *fakeExecutor) *pipelineFixture {
	t.Helper()
	log := logger.NewNop()
	catalog := schema.Default()
	retriever := inertRetriever(t)

	clarifier := NewClarifier(log, retriever, clarifyGen, false)
	generator := NewGenerator(log, retriever, sqlGen, catalog, GeneratorConfig{RowLimit: 500, Retries: 3})
	generator.sleep = func(time.Duration) {}

	store := NewConversationStore()
	logPath := filepath.Join(t.TempDir(), "attempts.jsonl")
	attempts := NewAttemptLog(log, logPath)
	notifier := NewChatNotifier(log, sse.NewHub(log), nil)

	return &pipelineFixture{
		pipeline:   NewPipeline(log, store, clarifier, generator, executor, attempts, notifier, catalog, 500),
		store:      store,
		clarifyGen: clarifyGen,
		sqlGen:     sqlGen,
		executor:   executor,
		logPath:    logPath,
	}
}

// nonUserTurns returns the appended turns that are not the caller's
// own message. Every terminal state must produce exactly one.
func (f *pipelineFixture) nonUserTurns(t *testing.T, conversationID string) []types.ChatMessage {
	t.Helper()
	msgs, err := f.store.Get(conversationID)
	if err != nil {
		t.Fatalf("Get conversation: %v", err)
	}
	var out []types.ChatMessage
	for _, m := range msgs {
		if m.MessageType != types.MessageTypeUser {
			out = append(out, m)
		}
	}
	return out
}

func (f *pipelineFixture) assertExactlyOneTerminal(t *testing.T, conversationID string) {
	t.Helper()
	if turns := f.nonUserTurns(t, conversationID); len(turns) != 1 {
		t.Fatalf("got %d non-user turns, want exactly 1: %+v", len(turns), turns)
	}
	if entries := readEntries(t, f.logPath); len(entries) != 1 {
		t.Fatalf("got %d attempt log entries, want exactly 1", len(entries))
	}
}

const expandedProfilesSQL = "SELECT profile_id, file_name, platform_number, cycle_number, data_mode, profile_time, latitude, longitude FROM public.profiles WHERE platform_number = '1234' LIMIT 500;"

func TestProcessEndToEndSuccess(t *testing.T) {
	rows := []map[string]any{{"profile_id": 1.0}, {"profile_id": 2.0}}
	f := newPipelineFixture(t,
		&scriptedGen{outputs: []string{"CLEAR"}},
		&scriptedGen{outputs: []string{"SELECT * FROM public.profiles WHERE platform_number = '1234'"}},
		&fakeExecutor{rows: rows},
	)

	resp := f.pipeline.Process(context.Background(), types.QueryRequest{
		Question: "show me profiles from platform 1234",
	})

	if resp.Outcome != types.OutcomeSuccess {
		t.Fatalf("outcome = %s, want SUCCESS", resp.Outcome)
	}
	if resp.SQLQuery != expandedProfilesSQL {
		t.Fatalf("sql = %q, want %q", resp.SQLQuery, expandedProfilesSQL)
	}
	if len(resp.Data) != 2 {
		t.Fatalf("rows = %d, want 2", len(resp.Data))
	}
	if resp.ClarificationNeeded {
		t.Fatal("clarification_needed should be false")
	}
	if resp.MessageType != types.MessageTypeBot {
		t.Fatalf("message_type = %s, want bot", resp.MessageType)
	}
	if f.clarifyGen.calls != 1 {
		t.Fatalf("clarification invoked %d times, want exactly once", f.clarifyGen.calls)
	}
	f.assertExactlyOneTerminal(t, resp.ConversationID)

	entries := readEntries(t, f.logPath)
	if !entries[0].Success || entries[0].RowsReturned == nil || *entries[0].RowsReturned != 2 {
		t.Fatalf("success log entry wrong: %+v", entries[0])
	}
}

func TestProcessNoValidSQLShortCircuits(t *testing.T) {
	f := newPipelineFixture(t,
		&scriptedGen{outputs: []string{"CLEAR"}},
		&scriptedGen{outputs: []string{NoValidSQL}},
		&fakeExecutor{},
	)

	resp := f.pipeline.Process(context.Background(), types.QueryRequest{Question: "what is the meaning of life"})

	if resp.Outcome != types.OutcomeInvalidSQL {
		t.Fatalf("outcome = %s, want INVALID_SQL", resp.Outcome)
	}
	if f.executor.calls != 0 {
		t.Fatalf("executor invoked %d times, want 0", f.executor.calls)
	}
	if resp.MessageType != types.MessageTypeError {
		t.Fatalf("message_type = %s, want error", resp.MessageType)
	}
	f.assertExactlyOneTerminal(t, resp.ConversationID)

	entries := readEntries(t, f.logPath)
	if entries[0].Success {
		t.Fatal("invalid SQL log entry must have success=false")
	}
	if entries[0].Error == nil || *entries[0].Error != NoValidSQL {
		t.Fatalf("invalid SQL log entry error = %v, want NO_VALID_SQL", entries[0].Error)
	}
}

func TestProcessNeedsClarification(t *testing.T) {
	f := newPipelineFixture(t,
		&scriptedGen{outputs: []string{"Which platform number?"}},
		&scriptedGen{outputs: []string{"SELECT * FROM public.profiles"}},
		&fakeExecutor{},
	)

	resp := f.pipeline.Process(context.Background(), types.QueryRequest{Question: "show me profiles"})

	if resp.Outcome != types.OutcomeNeedsClarification {
		t.Fatalf("outcome = %s, want NEEDS_CLARIFICATION", resp.Outcome)
	}
	if !resp.ClarificationNeeded {
		t.Fatal("clarification_needed should be true")
	}
	if resp.MessageType != types.MessageTypeSystem {
		t.Fatalf("message_type = %s, want system", resp.MessageType)
	}
	// The preview statement rides along so the caller can run as-is.
	if resp.SQLQuery == "" {
		t.Fatal("clarification response should carry a preview statement")
	}
	if f.executor.calls != 0 {
		t.Fatal("executor must not run on the clarification path")
	}
	f.assertExactlyOneTerminal(t, resp.ConversationID)
}

func TestProcessOverrideSkipsClarification(t *testing.T) {
	f := newPipelineFixture(t,
		&scriptedGen{outputs: []string{"Which platform?"}},
		&scriptedGen{outputs: []string{"SELECT temp FROM public.measurements LIMIT 5"}},
		&fakeExecutor{rows: []map[string]any{}},
	)

	resp := f.pipeline.Process(context.Background(), types.QueryRequest{
		Question: "show temperatures",
		Override: true,
	})

	if f.clarifyGen.calls != 0 {
		t.Fatalf("clarification invoked %d times with override, want 0", f.clarifyGen.calls)
	}
	if resp.Outcome != types.OutcomeSuccess {
		t.Fatalf("outcome = %s, want SUCCESS", resp.Outcome)
	}
}

func TestProcessOverrideWithPrecomputedSQLSkipsGeneration(t *testing.T) {
	f := newPipelineFixture(t,
		&scriptedGen{},
		&scriptedGen{},
		&fakeExecutor{rows: []map[string]any{{"n": 1.0}}},
	)

	resp := f.pipeline.Process(context.Background(), types.QueryRequest{
		Question: "show me profiles from platform 1234",
		Override: true,
		SQLQuery: "SELECT * FROM public.profiles WHERE platform_number = '1234'",
	})

	if f.sqlGen.calls != 0 {
		t.Fatalf("generation backend invoked %d times, want 0", f.sqlGen.calls)
	}
	// Precomputed statements still go through the sanitizer.
	if resp.SQLQuery != expandedProfilesSQL {
		t.Fatalf("sql = %q, want sanitized %q", resp.SQLQuery, expandedProfilesSQL)
	}
	if resp.Outcome != types.OutcomeSuccess {
		t.Fatalf("outcome = %s, want SUCCESS", resp.Outcome)
	}
}

func TestProcessExecutionError(t *testing.T) {
	f := newPipelineFixture(t,
		&scriptedGen{outputs: []string{"CLEAR"}},
		&scriptedGen{outputs: []string{"SELECT nope FROM public.profiles"}},
		&fakeExecutor{err: &ExecutionError{SQL: "x", Err: errors.New(`column "nope" does not exist`)}},
	)

	resp := f.pipeline.Process(context.Background(), types.QueryRequest{Question: "broken"})

	if resp.Outcome != types.OutcomeExecutionError {
		t.Fatalf("outcome = %s, want EXECUTION_ERROR", resp.Outcome)
	}
	if resp.MessageType != types.MessageTypeError {
		t.Fatalf("message_type = %s, want error", resp.MessageType)
	}
	f.assertExactlyOneTerminal(t, resp.ConversationID)

	entries := readEntries(t, f.logPath)
	if entries[0].Success || entries[0].Error == nil {
		t.Fatalf("execution error log entry wrong: %+v", entries[0])
	}
	if entries[0].SQLQuery == nil {
		t.Fatal("execution error log entry should carry the failed statement")
	}
}

func TestProcessGenerationFailurePropagatesToErrorResponse(t *testing.T) {
	f := newPipelineFixture(t,
		&scriptedGen{outputs: []string{"CLEAR"}},
		&scriptedGen{errs: []error{errors.New("gemini http 400: malformed prompt")}},
		&fakeExecutor{},
	)

	resp := f.pipeline.Process(context.Background(), types.QueryRequest{Question: "q"})

	if resp.MessageType != types.MessageTypeError {
		t.Fatalf("message_type = %s, want error", resp.MessageType)
	}
	if f.executor.calls != 0 {
		t.Fatal("executor must not run after a generation failure")
	}
	f.assertExactlyOneTerminal(t, resp.ConversationID)
}

func TestProcessRecoversPanic(t *testing.T) {
	f := newPipelineFixture(t,
		&scriptedGen{outputs: []string{"CLEAR"}},
		&scriptedGen{outputs: []string{"SELECT 1 LIMIT 1"}},
		&fakeExecutor{panic: true},
	)

	resp := f.pipeline.Process(context.Background(), types.QueryRequest{Question: "q"})

	if resp.MessageType != types.MessageTypeError {
		t.Fatalf("message_type = %s, want error", resp.MessageType)
	}
	if resp.ConversationID == "" {
		t.Fatal("panic recovery must still return a conversation id")
	}
}

func TestProcessReusesConversationID(t *testing.T) {
	f := newPipelineFixture(t,
		&scriptedGen{outputs: []string{"CLEAR", "CLEAR"}},
		&scriptedGen{outputs: []string{"SELECT 1 LIMIT 1", "SELECT 2 LIMIT 1"}},
		&fakeExecutor{rows: []map[string]any{}},
	)

	first := f.pipeline.Process(context.Background(), types.QueryRequest{Question: "one"})
	second := f.pipeline.Process(context.Background(), types.QueryRequest{
		Question:       "two",
		ConversationID: first.ConversationID,
	})

	if second.ConversationID != first.ConversationID {
		t.Fatalf("conversation id changed: %q vs %q", first.ConversationID, second.ConversationID)
	}
	msgs, err := f.store.Get(first.ConversationID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	// user, bot, user, bot
	if len(msgs) != 4 {
		t.Fatalf("got %d turns, want 4", len(msgs))
	}
	if msgs[0].MessageType != types.MessageTypeUser || msgs[1].MessageType != types.MessageTypeBot {
		t.Fatalf("turn order wrong: %+v", msgs)
	}
}

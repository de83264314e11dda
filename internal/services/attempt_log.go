package services

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/bssshyamsundhar/float-chat/internal/pkg/logger"
	"github.com/bssshyamsundhar/float-chat/internal/types"
)

// AttemptLog appends one JSON object per line to a file, one entry per
// terminal pipeline outcome. The file is opened in append mode per
// write, never truncated, and never read back by the pipeline.
type AttemptLog struct {
	log  *logger.Logger
	path string
	mu   sync.Mutex

	now func() time.Time
}

func NewAttemptLog(log *logger.Logger, path string) *AttemptLog {
	if path == "" {
		path = "nl_sql_log.jsonl"
	}
	return &AttemptLog{
		log:  log.With("service", "AttemptLog"),
		path: path,
		now:  time.Now,
	}
}

// Record writes one attempt entry. Logging failures are reported to
// the process log and swallowed; the attempt log is an audit trail,
// not a dependency of the pipeline.
func (l *AttemptLog) Record(nlQuery string, sqlQuery *string, success bool, errMsg *string, rowsReturned *int, result []map[string]any) {
	entry := types.AttemptLogEntry{
		Timestamp:    l.now().UTC().Format(time.RFC3339Nano),
		NLQuery:      nlQuery,
		SQLQuery:     sqlQuery,
		Success:      success,
		Error:        errMsg,
		RowsReturned: rowsReturned,
		Result:       result,
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		l.log.Error("Attempt log marshal failed", "error", err)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		l.log.Error("Attempt log open failed", "path", l.path, "error", err)
		return
	}
	defer f.Close()
	if _, err := f.Write(append(raw, '\n')); err != nil {
		l.log.Error("Attempt log write failed", "path", l.path, "error", err)
	}
}

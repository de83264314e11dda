package types

// AttemptLogEntry is one terminal outcome of a pipeline run, written
// as a single JSON line to the append-only attempt log. Write-once,
// never mutated, never read back by the pipeline.
type AttemptLogEntry struct {
	Timestamp    string           `json:"timestamp"`
	NLQuery      string           `json:"nl_query"`
	SQLQuery     *string          `json:"sql_query"`
	Success      bool             `json:"success"`
	Error        *string          `json:"error"`
	RowsReturned *int             `json:"rows_returned"`
	Result       []map[string]any `json:"result"`
}

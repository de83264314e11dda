package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bssshyamsundhar/float-chat/internal/schema"
)

// NoValidSQL is the literal token the generation backend emits when a
// question cannot be answered against the schema.
const NoValidSQL = "NO_VALID_SQL"

// Precedence: fence-strip, keyword-scan, wildcard-rewrite, limit-inject.
var (
	fenceRe      = regexp.MustCompile("(?im)^```(?:sql)?|```$")
	statementRe  = regexp.MustCompile(`(?is)(SELECT|WITH|INSERT|UPDATE|DELETE|CREATE)\b.*`)
	selectStarRe = regexp.MustCompile(`(?i)SELECT\s+\*\s+FROM\s+([^\s;]+)`)
	limitRe      = regexp.MustCompile(`(?i)LIMIT\s+\d+`)
	aggregateRe  = regexp.MustCompile(`(?i)GROUP BY|AVG|SUM|MAX|MIN`)
)

// Sanitize extracts the SQL statement from raw model output, expands a
// wildcard projection against the known column map, and caps unbounded
// non-aggregating queries at limit rows. Pure text transformation: it
// never fails and is idempotent; malformed input passes through
// trimmed. The sentinel NoValidSQL is returned unchanged.
func Sanitize(raw string, columns schema.Columns, limit int) string {
	text := fenceRe.ReplaceAllString(strings.TrimSpace(raw), "")

	sql := strings.TrimSpace(text)
	if m := statementRe.FindString(text); m != "" {
		sql = strings.TrimSpace(m)
	}
	if sql == NoValidSQL {
		return sql
	}

	if m := selectStarRe.FindStringSubmatch(sql); m != nil {
		table := m[1]
		if cols, ok := columns[table]; ok {
			rewrite := regexp.MustCompile(`(?i)SELECT\s+\*\s+FROM\s+` + regexp.QuoteMeta(table))
			sql = rewrite.ReplaceAllString(sql, fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), table))
		}
	}

	if !limitRe.MatchString(sql) && !aggregateRe.MatchString(sql) {
		sql = strings.TrimRight(sql, ";") + fmt.Sprintf(" LIMIT %d;", limit)
	}
	return sql
}

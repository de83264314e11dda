package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/bssshyamsundhar/float-chat/internal/pkg/logger"
)

// TextGenerator is the generation backend surface the pipeline needs.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// ClarifyClear is the literal token the backend must emit when a
// question is unambiguous and fully answerable against the schema.
const ClarifyClear = "CLEAR"

const clarifyTopK = 2

// Clarifier decides whether a question needs user disambiguation
// before SQL generation. Stateless: every call is independent, with no
// memory of prior clarifications.
type Clarifier struct {
	log       *logger.Logger
	retriever *Retriever
	gen       TextGenerator

	// failClosed surfaces backend errors as clarification text instead
	// of the default fail-open CLEAR. Fail-open trades correctness for
	// availability; deployments choose.
	failClosed bool
}

func NewClarifier(log *logger.Logger, retriever *Retriever, gen TextGenerator, failClosed bool) *Clarifier {
	return &Clarifier{
		log:        log.With("service", "Clarifier"),
		retriever:  retriever,
		gen:        gen,
		failClosed: failClosed,
	}
}

// Clarify returns ClarifyClear or 1-2 short clarifying questions. One
// generation call, no retry at this stage. The result is trimmed and
// compared to ClarifyClear by exact string elsewhere.
func (s *Clarifier) Clarify(ctx context.Context, question string) string {
	context_ := s.retriever.Retrieve(ctx, question, clarifyTopK)
	prompt := fmt.Sprintf(`You are a database assistant.

Schema info:
%s

User query: "%s"

If the query is incomplete or ambiguous, suggest clarifying questions (1-2 max).
Otherwise, return "CLEAR".
`, context_, question)

	out, err := s.gen.GenerateText(ctx, prompt)
	if err != nil {
		s.log.Error("Clarification error", "error", err)
		if s.failClosed {
			return fmt.Sprintf("Clarification unavailable: %v", err)
		}
		return ClarifyClear
	}
	return strings.TrimSpace(out)
}

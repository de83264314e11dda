package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bssshyamsundhar/float-chat/internal/pkg/httpx"
	"github.com/bssshyamsundhar/float-chat/internal/pkg/logger"
	"github.com/bssshyamsundhar/float-chat/internal/schema"
)

const generateTopK = 3

// GeneratorConfig tunes the NL-to-SQL generation stage.
type GeneratorConfig struct {
	// RowLimit caps unbounded non-aggregating result sets.
	RowLimit int
	// Retries is the total attempt budget against transient overload.
	Retries int
	// StageTimeout bounds a single generation call. Zero disables it.
	StageTimeout time.Duration
}

// Generator builds the grounded prompt and asks the generation backend
// for a SQL statement, retrying transient overload with exponential
// backoff plus jitter. Raw output always passes through Sanitize.
type Generator struct {
	log       *logger.Logger
	retriever *Retriever
	gen       TextGenerator
	catalog   *schema.Catalog
	cfg       GeneratorConfig

	// sleep is swapped out by tests; backoff waits otherwise block the
	// calling goroutine only.
	sleep func(time.Duration)
}

func NewGenerator(log *logger.Logger, retriever *Retriever, gen TextGenerator, catalog *schema.Catalog, cfg GeneratorConfig) *Generator {
	if cfg.RowLimit <= 0 {
		cfg.RowLimit = 500
	}
	if cfg.Retries <= 0 {
		cfg.Retries = 3
	}
	return &Generator{
		log:       log.With("service", "Generator"),
		retriever: retriever,
		gen:       gen,
		catalog:   catalog,
		cfg:       cfg,
		sleep:     time.Sleep,
	}
}

func (s *Generator) buildPrompt(context_ string, question string) string {
	var sb strings.Builder
	sb.WriteString("Convert NL to SQL.\n\n")
	sb.WriteString("Schema & Examples:\n")
	sb.WriteString(context_)
	sb.WriteString("\n\nGuidelines:\n")
	for _, g := range s.catalog.Guidelines {
		fmt.Fprintf(&sb, "- %s\n", g)
	}
	fmt.Fprintf(&sb, "- Add LIMIT %d unless aggregation is used.\n", s.cfg.RowLimit)
	fmt.Fprintf(&sb, "- If query cannot be answered, return %q.\n", NoValidSQL)
	fmt.Fprintf(&sb, "\nQ: %s\nSQL:\n", question)
	return sb.String()
}

// Generate resolves a question to a sanitized SQL statement. Only
// transient overload (the 503 marker) and per-attempt timeouts are
// retried; any other backend error propagates immediately. Exhausting
// the attempt budget resolves to the NoValidSQL sentinel rather than
// the last error, matching the invalid-query path the orchestrator
// already handles.
func (s *Generator) Generate(ctx context.Context, question string) (string, error) {
	context_ := s.retriever.Retrieve(ctx, question, generateTopK)
	prompt := s.buildPrompt(context_, question)

	for attempt := 0; attempt < s.cfg.Retries; attempt++ {
		raw, err := s.generateOnce(ctx, prompt)
		if err == nil {
			return Sanitize(raw, s.catalog.Tables, s.cfg.RowLimit), nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if !isTransient(err) {
			return "", err
		}
		if attempt < s.cfg.Retries-1 {
			wait := httpx.ExpBackoff(attempt)
			s.log.Warn("Generation backend overloaded, retrying",
				"attempt", attempt+1,
				"retries", s.cfg.Retries,
				"wait", wait.String(),
				"error", err.Error(),
			)
			s.sleep(wait)
		}
	}
	s.log.Warn("Generation retries exhausted", "retries", s.cfg.Retries)
	return NoValidSQL, nil
}

func (s *Generator) generateOnce(ctx context.Context, prompt string) (string, error) {
	if s.cfg.StageTimeout > 0 {
		actx, cancel := context.WithTimeout(ctx, s.cfg.StageTimeout)
		defer cancel()
		raw, err := s.gen.GenerateText(actx, prompt)
		if err != nil && actx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return "", &GenerationTimeout{Err: err}
		}
		return raw, err
	}
	return s.gen.GenerateText(ctx, prompt)
}

func isTransient(err error) bool {
	var gt *GenerationTimeout
	if errors.As(err, &gt) {
		return true
	}
	return httpx.IsTransientOverload(err)
}

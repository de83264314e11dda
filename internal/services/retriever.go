package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/bssshyamsundhar/float-chat/internal/clients/qdrant"
	"github.com/bssshyamsundhar/float-chat/internal/pkg/logger"
)

const (
	SchemaCollection  = "schema_collection"
	ExampleCollection = "example_collection"

	retrievalUnavailableContext = "Schema retrieval unavailable - using basic context"
)

// Retriever assembles the retrieval-augmented context for a question:
// top-k schema documentation snippets followed by top-k worked
// NL -> SQL example pairs, each in its index's similarity order.
type Retriever struct {
	log    *logger.Logger
	embed  *EmbeddingCache
	search qdrant.Client
}

func NewRetriever(log *logger.Logger, embed *EmbeddingCache, search qdrant.Client) *Retriever {
	return &Retriever{
		log:    log.With("service", "Retriever"),
		embed:  embed,
		search: search,
	}
}

// Retrieve never fails: a missing embedding or a search error degrades
// to a textual marker inside the returned context. The pipeline treats
// degraded context as valid but low-quality, not as an error.
func (r *Retriever) Retrieve(ctx context.Context, question string, topK int) string {
	if r.search == nil || r.embed == nil {
		return retrievalUnavailableContext
	}
	vec := r.embed.Embed(ctx, question)
	if vec == nil {
		return retrievalUnavailableContext
	}

	var lines []string

	schemaHits, err := r.search.Search(ctx, SchemaCollection, vec, topK)
	if err != nil {
		r.log.Error("Context retrieval error", "collection", SchemaCollection, "error", err)
		return fmt.Sprintf("Context retrieval error: %v", err)
	}
	for _, hit := range schemaHits {
		if text, ok := hit.Payload["text"].(string); ok {
			lines = append(lines, text)
		}
	}

	exampleHits, err := r.search.Search(ctx, ExampleCollection, vec, topK)
	if err != nil {
		r.log.Error("Context retrieval error", "collection", ExampleCollection, "error", err)
		return fmt.Sprintf("Context retrieval error: %v", err)
	}
	for _, hit := range exampleHits {
		nl, _ := hit.Payload["nl"].(string)
		sql, _ := hit.Payload["sql"].(string)
		lines = append(lines, fmt.Sprintf("NL: %s -> SQL: %s", nl, sql))
	}

	return strings.Join(lines, "\n")
}

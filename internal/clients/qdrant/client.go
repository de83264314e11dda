package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/bssshyamsundhar/float-chat/internal/pkg/logger"
)

// Client is the Qdrant similarity-search client. Only the data-plane
// search call is wired; collection management happens in the ingestion
// scripts, outside this service.
type Client interface {
	Search(ctx context.Context, collection string, vector []float32, limit int) ([]ScoredPoint, error)
}

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type client struct {
	log  *logger.Logger
	cfg  Config
	http *http.Client
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("missing Qdrant base URL")
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &client{
		log:  log.With("client", "QdrantClient"),
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// NewFromEnv builds a client from QDRANT_URL / QDRANT_API_KEY.
func NewFromEnv(log *logger.Logger) (Client, error) {
	return New(log, Config{
		BaseURL: strings.TrimSpace(os.Getenv("QDRANT_URL")),
		APIKey:  strings.TrimSpace(os.Getenv("QDRANT_API_KEY")),
	})
}

type searchRequest struct {
	Vector      []float32 `json:"vector"`
	Limit       int       `json:"limit"`
	WithPayload bool      `json:"with_payload"`
}

// ScoredPoint is one search hit, ordered by descending similarity.
type ScoredPoint struct {
	ID      any            `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

type searchResponse struct {
	Result []ScoredPoint `json:"result"`
	Status string        `json:"status"`
}

func (c *client) Search(ctx context.Context, collection string, vector []float32, limit int) ([]ScoredPoint, error) {
	collection = strings.TrimSpace(collection)
	if collection == "" {
		return nil, fmt.Errorf("collection required")
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("query vector required")
	}
	if limit <= 0 {
		limit = 10
	}

	body := searchRequest{Vector: vector, Limit: limit, WithPayload: true}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/collections/%s/points/search", c.cfg.BaseURL, collection)
	req, err := http.NewRequestWithContext(ctx, "POST", u, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Api-Key", c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("qdrant search http %d: %s", resp.StatusCode, string(raw))
	}

	var out searchResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("qdrant search decode: %w", err)
	}
	return out.Result, nil
}

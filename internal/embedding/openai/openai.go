package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"pdfqa/internal/domain"
	"pdfqa/internal/embedding"
	"pdfqa/internal/remote"
)

var _ embedding.Embedder = (*Client)(nil)

// Defaults for the OpenAI embeddings endpoint.
const (
	DefaultBaseURL   = "https://api.openai.com/v1"
	DefaultModel     = "text-embedding-ada-002"
	DefaultBatchSize = 100
	DefaultTimeout   = 30 * time.Second
)

var modelDimensions = map[string]int{
	"text-embedding-ada-002": 1536,
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
}

// Client is an OpenAI-compatible embeddings client. Requests are split
// into batches; failures are returned immediately without retry.
type Client struct {
	baseURL   string
	apiKey    string
	model     string
	batchSize int
	dimension int
	client    *http.Client
	log       *slog.Logger
}

// Config configures the OpenAI-compatible embeddings client.
type Config struct {
	BaseURL   string
	APIKey    string
	APIKeyEnv string
	Model     string
	BatchSize int
	Dimension int
	Timeout   time.Duration
	Logger    *slog.Logger
}

// NewClient creates a new embeddings client. The API key is taken from
// cfg.APIKey, or else from the environment variable cfg.APIKeyEnv.
func NewClient(cfg Config) (*Client, error) {
	key := cfg.APIKey
	if key == "" && cfg.APIKeyEnv != "" {
		key = os.Getenv(cfg.APIKeyEnv)
	}
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Dimension <= 0 {
		cfg.Dimension = modelDimensions[cfg.Model]
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Client{
		baseURL:   cfg.BaseURL,
		apiKey:    key,
		model:     cfg.Model,
		batchSize: cfg.BatchSize,
		dimension: cfg.Dimension,
		client:    &http.Client{Timeout: cfg.Timeout},
		log:       cfg.Logger,
	}, nil
}

// Name returns the identifier of this embedder implementation.
func (c *Client) Name() string { return "openai" }

// Dimension returns the expected vector size, or 0 when unknown.
func (c *Client) Dimension() int { return c.dimension }

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// Embed returns one vector per text, preserving input order.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += c.batchSize {
		end := i + c.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := c.embedBatch(ctx, texts[i:end])
		if err != nil {
			c.log.Error("error creating embeddings", "batch_start", i, "error", err)
			return nil, err
		}
		out = append(out, batch...)
	}
	c.log.Info("created embeddings", "texts", len(texts))
	return out, nil
}

func (c *Client) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	data, err := json.Marshal(embeddingRequest{Model: c.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, remote.Transport("openai embeddings", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, remote.Transport("openai embeddings", err)
	}
	if err := remote.CheckStatus("openai embeddings", resp.StatusCode, payload); err != nil {
		return nil, err
	}

	var out embeddingResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, remote.Transport("openai embeddings", fmt.Errorf("decode response: %w", err))
	}
	if len(out.Data) != len(texts) {
		return nil, fmt.Errorf("openai embeddings: %w: got %d embeddings for %d inputs",
			domain.ErrRemoteProcessing, len(out.Data), len(texts))
	}
	vectors := make([][]float32, len(texts))
	for _, d := range out.Data {
		if d.Index < 0 || d.Index >= len(texts) || vectors[d.Index] != nil {
			return nil, fmt.Errorf("openai embeddings: %w: bad index %d", domain.ErrRemoteProcessing, d.Index)
		}
		if c.dimension > 0 && len(d.Embedding) != c.dimension {
			return nil, fmt.Errorf("openai embeddings: %w: dimension %d, want %d",
				domain.ErrRemoteProcessing, len(d.Embedding), c.dimension)
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}

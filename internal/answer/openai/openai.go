// Package openai synthesizes answers with an OpenAI-compatible chat
// completions endpoint.
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
	"strings"
	"time"

	"pdfqa/internal/answer"
	"pdfqa/internal/domain"
	"pdfqa/internal/remote"
)

var _ answer.Answerer = (*Answerer)(nil)

// Default configuration values.
const (
	DefaultBaseURL     = "https://api.openai.com/v1"
	DefaultModel       = "gpt-3.5-turbo"
	DefaultTemperature = 0.1
	DefaultMaxTokens   = 1000
	DefaultTimeout     = 60 * time.Second
)

const systemPrompt = `You are a helpful assistant that answers questions based on PDF documents.
Use only the provided context to answer questions. If the answer cannot be found in the context,
say so clearly. Always reference page numbers when providing answers.`

const userPromptFormat = `Context from PDF:
%s

Question: %s

Please provide a comprehensive answer based on the context above. Include relevant page numbers in your response.`

// Config holds configuration for the chat answerer.
type Config struct {
	BaseURL   string
	APIKey    string
	APIKeyEnv string
	Model     string
	// Temperature is sent as is; zero is a valid setting.
	Temperature      float64
	MaxTokens        int
	MaxContextLength int
	Timeout          time.Duration
	Logger           *slog.Logger
}

// Answerer calls /chat/completions with the retrieved context.
type Answerer struct {
	client      *http.Client
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	maxContext  int
	log         *slog.Logger
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	TopP        float64       `json:"top_p"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// New creates a chat answerer. The API key is taken from cfg.APIKey, or
// else from the environment variable cfg.APIKeyEnv.
func New(cfg Config) (*Answerer, error) {
	key := cfg.APIKey
	if key == "" && cfg.APIKeyEnv != "" {
		key = os.Getenv(cfg.APIKeyEnv)
	}
	if key == "" {
		return nil, fmt.Errorf("openai: missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.MaxContextLength <= 0 {
		cfg.MaxContextLength = answer.DefaultMaxContextLength
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Answerer{
		client:      &http.Client{Timeout: cfg.Timeout},
		baseURL:     cfg.BaseURL,
		apiKey:      key,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		maxContext:  cfg.MaxContextLength,
		log:         cfg.Logger,
	}, nil
}

// Answer asks the model to answer question using only the results as
// context. No request is made when results is empty.
func (a *Answerer) Answer(ctx context.Context, question string, results []domain.SearchResult) (string, error) {
	if len(results) == 0 {
		return answer.NoResultsMessage, nil
	}
	contextText := answer.BuildContext(results, a.maxContext)
	body, err := json.Marshal(chatRequest{
		Model: a.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf(userPromptFormat, contextText, question)},
		},
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
		TopP:        1.0,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		a.log.Error("error generating answer", "error", err)
		return "", remote.Transport("openai chat", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", remote.Transport("openai chat", err)
	}
	if err := remote.CheckStatus("openai chat", resp.StatusCode, payload); err != nil {
		a.log.Error("error generating answer", "status", resp.StatusCode, "error", err)
		return "", err
	}

	var out chatResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return "", remote.Transport("openai chat", fmt.Errorf("decode response: %w", err))
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("openai chat: %w: no choices returned", domain.ErrRemoteProcessing)
	}
	a.log.Info("generated answer", "question", truncate(question, 50))
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

func truncate(s string, n int) string {
	if r := []rune(s); len(r) > n {
		return string(r[:n]) + "..."
	}
	return s
}

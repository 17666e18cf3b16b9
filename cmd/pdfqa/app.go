package main

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"pdfqa/internal/answer"
	answeropenai "pdfqa/internal/answer/openai"
	"pdfqa/internal/catalog"
	"pdfqa/internal/chunker"
	"pdfqa/internal/embedding"
	"pdfqa/internal/embedding/hashing"
	embedopenai "pdfqa/internal/embedding/openai"
	"pdfqa/internal/extract"
	"pdfqa/internal/pipeline"
	"pdfqa/internal/service"
	"pdfqa/internal/summarizer"
	"pdfqa/internal/vectorstore"
)

var appLog *slog.Logger

// app holds the assembled components for one command invocation.
type app struct {
	store   *vectorstore.Store
	catalog *catalog.Catalog
	svc     *service.Service
	log     *slog.Logger
}

func newApp() (*app, error) {
	if err := newLogger(); err != nil {
		return nil, err
	}
	log := appLog

	emb, err := newEmbedder(log)
	if err != nil {
		return nil, err
	}
	ans, err := newAnswerer(log)
	if err != nil {
		return nil, err
	}

	store, err := vectorstore.New(vectorstore.Options{
		Embedder:       emb,
		MaxTotalChunks: cfg.Limits.MaxTotalChunks,
		DefaultK:       cfg.Limits.MaxResults,
		DocumentsPath:  cfg.DocumentsPath(),
		Logger:         log,
	})
	if err != nil {
		return nil, err
	}
	if err := store.Load(cfg.VectorDir()); err != nil {
		log.Error("failed to load vector store, starting empty; new uploads will not be saved", "dir", cfg.VectorDir(), "error", err)
	}

	proc := pipeline.New(
		extract.New(cfg.Limits.MaxPDFPages, extract.WithLogger(log)),
		chunker.NewSegmenter(cfg.Limits.MaxChunksPerDocument),
		pipeline.Config{
			ChunkSize:            cfg.Chunker.ChunkSize,
			ChunkOverlap:         cfg.Chunker.ChunkOverlap,
			MaxChunksPerDocument: cfg.Limits.MaxChunksPerDocument,
		},
		log,
	)

	a := &app{store: store, log: log}
	// a nil *catalog.Catalog must not be passed as a non-nil interface
	var cat service.Catalog
	if cfg.Catalog.Enabled {
		c, err := catalog.Open(cfg.Catalog.Path)
		if err != nil {
			return nil, err
		}
		a.catalog = c
		cat = c
	}

	svc, err := service.New(proc, store, ans, cat, service.Options{
		DataDir:           cfg.Storage.DataDir,
		VectorDir:         cfg.VectorDir(),
		MaxFileSize:       cfg.Limits.MaxFileSize,
		MaxQuestionLength: cfg.Limits.MaxQuestionLength,
		DefaultResults:    cfg.Limits.MaxResults,
		RateLimit:         cfg.RateLimit.Requests,
		Logger:            log,
	})
	if err != nil {
		a.close()
		return nil, err
	}
	a.svc = svc
	return a, nil
}

// save persists the store; used by long-running commands on shutdown.
func (a *app) save() error {
	return a.store.Save(cfg.VectorDir())
}

func (a *app) close() {
	if a.catalog != nil {
		if err := a.catalog.Close(); err != nil {
			a.log.Warn("failed to close catalog", "error", err)
		}
	}
}

func newEmbedder(log *slog.Logger) (embedding.Embedder, error) {
	switch cfg.Embedder.Type {
	case "hashing":
		return hashing.NewEmbedder(cfg.Embedder.Dimensions), nil
	case "openai":
		oc := cfg.Embedder.OpenAI
		if oc == nil {
			return nil, errors.New("openai embedder config missing")
		}
		client, err := embedopenai.NewClient(embedopenai.Config{
			BaseURL:   oc.BaseURL,
			APIKeyEnv: oc.APIKeyEnv,
			Model:     oc.Model,
			BatchSize: oc.BatchSize,
			Dimension: cfg.Embedder.Dimensions,
			Timeout:   time.Duration(oc.TimeoutSecs) * time.Second,
			Logger:    log,
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedder init failed: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Embedder.Type)
	}
}

func newAnswerer(log *slog.Logger) (answer.Answerer, error) {
	switch cfg.Answerer.Type {
	case "extractive":
		return summarizer.NewExtractiveAnswerer(cfg.Answerer.MaxSentences, cfg.Limits.MaxContextLength), nil
	case "openai":
		oc := cfg.Answerer.OpenAI
		if oc == nil {
			return nil, errors.New("openai answerer config missing")
		}
		a, err := answeropenai.New(answeropenai.Config{
			BaseURL:          oc.BaseURL,
			APIKeyEnv:        oc.APIKeyEnv,
			Model:            oc.Model,
			Temperature:      oc.Temperature,
			MaxTokens:        oc.MaxTokens,
			MaxContextLength: cfg.Limits.MaxContextLength,
			Timeout:          time.Duration(oc.TimeoutSecs) * time.Second,
			Logger:           log,
		})
		if err != nil {
			return nil, fmt.Errorf("openai answerer init failed: %w", err)
		}
		return a, nil
	default:
		return nil, fmt.Errorf("unknown answerer: %s", cfg.Answerer.Type)
	}
}

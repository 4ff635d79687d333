// Command api serves the multi-model chat endpoint and the document
// management endpoints.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagent"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/josinaldojr/multi-llm-rag/internal/config"
	"github.com/josinaldojr/multi-llm-rag/internal/db"
	"github.com/josinaldojr/multi-llm-rag/internal/docs"
	apphttp "github.com/josinaldojr/multi-llm-rag/internal/http"
	"github.com/josinaldojr/multi-llm-rag/internal/ingest"
	"github.com/josinaldojr/multi-llm-rag/internal/kb"
	"github.com/josinaldojr/multi-llm-rag/internal/llm"
	"github.com/josinaldojr/multi-llm-rag/internal/rag"
)

func main() {
	if err := run(); err != nil {
		slog.Error("api failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := config.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}

	var gemini *llm.GeminiClient
	if cfg.UsesPgvector() || llm.NeedsProvider(cfg.Models, config.ProviderGemini) {
		gemini, err = llm.NewGeminiClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			return err
		}
	}

	var repo *rag.PgRepository
	if cfg.UsesPgvector() {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		repo = rag.NewPgRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			return err
		}
	}

	models, err := buildModels(cfg, awsCfg, gemini)
	if err != nil {
		return err
	}

	var retriever rag.Retriever
	switch cfg.Retriever {
	case config.RetrieverPgvector:
		retriever = rag.NewPgRetriever(repo, gemini)
	default:
		retriever = kb.NewRetriever(bedrockagentruntime.NewFromConfig(awsCfg), cfg.KnowledgeBaseID)
	}

	chat := rag.NewService(retriever, models,
		rag.WithTopK(cfg.RetrievalResults),
		rag.WithModelTimeout(cfg.ModelTimeout),
		rag.WithLogger(logger),
	)

	var (
		documents apphttp.DocumentService
		local     *ingest.LocalIndexer
	)
	if cfg.BucketName != "" {
		store := docs.NewS3Store(s3.NewFromConfig(awsCfg), cfg.BucketName)

		var indexer docs.Indexer
		switch cfg.Indexer {
		case config.IndexerBedrock:
			indexer = kb.NewIngestionTrigger(bedrockagent.NewFromConfig(awsCfg), cfg.KnowledgeBaseID, cfg.DataSourceID)
		case config.IndexerLocal:
			local = ingest.NewLocalIndexer(store, gemini, repo, logger)
			indexer = local
		}
		documents = docs.NewService(store, indexer, logger)
	} else {
		logger.Warn("BUCKET_NAME not set, document endpoints disabled")
	}

	handler := apphttp.NewRouter(
		apphttp.NewHandler(chat, documents, logger),
		apphttp.RouterOptions{CORSOrigin: cfg.CORSOrigin, Logger: logger},
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.ModelTimeout + 30*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api listening",
			"addr", srv.Addr,
			"region", cfg.Region,
			"retriever", cfg.Retriever,
			"indexer", cfg.Indexer,
			"models", chat.Models(),
			"model_timeout", cfg.ModelTimeout,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		if local != nil {
			local.Wait()
		}
		return err
	case err := <-errCh:
		return err
	}
}

func buildModels(cfg *config.Config, awsCfg aws.Config, gemini *llm.GeminiClient) ([]rag.Model, error) {
	b := llm.Backends{Gemini: gemini}
	if llm.NeedsProvider(cfg.Models, config.ProviderBedrock) {
		b.Bedrock = bedrockruntime.NewFromConfig(awsCfg)
	}
	if llm.NeedsProvider(cfg.Models, config.ProviderOpenAI) {
		b.OpenAI = llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
	}
	return llm.BuildModels(cfg.Models, b)
}

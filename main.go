package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gorilla/mux"
	"github.com/lichun/polisearch/config"
	"github.com/lichun/polisearch/db"
	"github.com/lichun/polisearch/indexer"
	"github.com/lichun/polisearch/logging"
	"github.com/lichun/polisearch/retriever"
	"github.com/lichun/polisearch/server"
	"github.com/lichun/polisearch/services/embedding_service"
	"github.com/lichun/polisearch/services/llm_service"
	"github.com/lichun/polisearch/services/notify_service"
	"github.com/lichun/polisearch/services/ocr_service"
	"github.com/lichun/polisearch/summarizer"
	"github.com/lichun/polisearch/vectorstore"

	"github.com/urfave/negroni"
)

func main() {
	mode := flag.String("mode", "serve", "run mode: serve, index or summarize")
	flag.Parse()

	cfg := config.Load()

	// Initialize the logger
	logger, err := initLogger(cfg.ProcessLogDir)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	pool, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	store := vectorstore.New(pool, logger)
	embedder := embedding_service.New(&cfg, logger)

	switch *mode {
	case "index":
		runIndexer(&cfg, store, embedder, logger)
	case "summarize":
		runSummarizer(&cfg, store, embedder, logger)
	case "serve":
		serve(&cfg, store, embedder, logger)
	default:
		log.Fatalf("Unknown mode %q (want serve, index or summarize)", *mode)
	}
}

func serve(cfg *config.Config, store *vectorstore.Store, embedder *embedding_service.Service, logger *slog.Logger) {
	search := retriever.NewVectorSearch(embedder, store, cfg.CategoryMap, logger)
	rerank := retriever.NewRerank(embedder, logger)
	r := retriever.New(search, rerank, logger)

	router := server.SetupRoutes(cfg, r, logger)
	n := setupNegroni(router)

	if cfg.Environment == "production" {
		server.ServeProduction(cfg, n)
	} else {
		srv := &http.Server{
			Addr:         ":" + cfg.HTTPPort,
			Handler:      n,
			IdleTimeout:  time.Minute,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
		}
		server.ServeDevelopment(srv)
	}
}

func runIndexer(cfg *config.Config, store *vectorstore.Store, embedder *embedding_service.Service, logger *slog.Logger) {
	var ocrClient *ocr_service.Client
	if cfg.OCRServiceURL != "" {
		ocrClient = ocr_service.NewClient(cfg.OCRServiceURL, logger)
	} else {
		logger.Warn("OCR service not configured, falling back to digital text extraction")
	}

	processor := indexer.NewEmbeddingProcessor(embedder, store, logger)
	ix := indexer.New(cfg, store, processor, ocrClient, logger)
	notifier := notify_service.NewSMSNotifier(cfg, logger)

	err := ix.ProcessAllFolders(context.Background(), func(folder string, stats indexer.Stats) {
		if notifier != nil {
			notifier.NotifyRunReport(folder, stats.String())
		}
	})
	if err != nil {
		log.Fatalf("Indexing run failed: %v", err)
	}
}

func runSummarizer(cfg *config.Config, store *vectorstore.Store, embedder *embedding_service.Service, logger *slog.Logger) {
	processor := indexer.NewEmbeddingProcessor(embedder, store, logger)
	llm := llm_service.NewAnthropicService(cfg, logger)
	sm := summarizer.New(cfg, store, processor, llm, logger)
	notifier := notify_service.NewSMSNotifier(cfg, logger)

	err := sm.ProcessAllFolders(context.Background(), func(folder string, stats summarizer.Stats) {
		if notifier != nil {
			notifier.NotifyRunReport(folder, stats.String())
		}
	})
	if err != nil {
		log.Fatalf("Summarization run failed: %v", err)
	}
}

func setupNegroni(r *mux.Router) *negroni.Negroni {
	n := negroni.New()

	// Add middleware here
	n.Use(negroni.NewRecovery())
	n.Use(negroni.NewLogger())

	n.UseHandler(r)
	return n
}

func initLogger(logDir string) (*slog.Logger, error) {
	fileHandler, err := logging.NewDailyFileHandler(filepath.Join(logDir, "app"), &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create log handler: %w", err)
	}
	return slog.New(fileHandler), nil
}

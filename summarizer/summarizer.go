// Package summarizer runs the document-level pipeline: summarize each OCR
// JSON with the LLM, then embed and upsert the summary into the folder's
// summary collection. Like the indexer it resumes per file from its own
// audit log.
package summarizer

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/lichun/polisearch/config"
	"github.com/lichun/polisearch/indexer"
	"github.com/lichun/polisearch/pipeline"
	"github.com/lichun/polisearch/vectorstore"
)

// Stats aggregates per-stage outcomes for one folder run.
type Stats struct {
	SummarySuccess int
	SummaryFailed  int
	EmbedSuccess   int
	EmbedFailed    int
}

func (s Stats) String() string {
	return fmt.Sprintf("summary %d/%d, embed %d/%d (success/failed)",
		s.SummarySuccess, s.SummaryFailed, s.EmbedSuccess, s.EmbedFailed)
}

type Summarizer struct {
	cfg       *config.Config
	store     *vectorstore.Store
	processor *indexer.EmbeddingProcessor
	llm       LLM
	runner    *pipeline.Runner
	logger    *slog.Logger
}

func New(cfg *config.Config, store *vectorstore.Store, processor *indexer.EmbeddingProcessor, llm LLM, logger *slog.Logger) *Summarizer {
	return &Summarizer{
		cfg:       cfg,
		store:     store,
		processor: processor,
		llm:       llm,
		runner:    pipeline.NewRunner(logger),
		logger:    logger,
	}
}

// ProcessAllFolders runs ProcessFolder over every folder under the PDF base
// directory.
func (s *Summarizer) ProcessAllFolders(ctx context.Context, report func(folder string, stats Stats)) error {
	folders, err := pipeline.ListFolders(s.cfg.PDFBaseDirectory)
	if err != nil {
		return err
	}
	for _, folder := range folders {
		stats, err := s.ProcessFolder(ctx, folder)
		if err != nil {
			s.logger.Error("Folder summarization aborted",
				slog.String("folder", folder),
				slog.String("error", err.Error()))
			continue
		}
		if report != nil && stats != nil {
			report(folder, *stats)
		}
	}
	return nil
}

// ProcessFolder summarizes and embeds the unprocessed OCR JSON files in one
// folder. Returns nil stats when there was nothing to do.
func (s *Summarizer) ProcessFolder(ctx context.Context, folderName string) (*Stats, error) {
	if s.store == nil {
		return nil, fmt.Errorf("vector store is not available")
	}

	paths := pipeline.NewFolderPaths(s.cfg.PDFBaseDirectory, folderName)
	s.logger.Info("Summarizing folder", slog.String("json_dir", paths.JSONDirectory))

	if _, err := s.store.EnsureCollection(ctx, paths.SummaryCollection, s.cfg.EmbeddingDimension); err != nil {
		return nil, fmt.Errorf("failed to prepare collection %s: %w", paths.SummaryCollection, err)
	}

	files, err := pipeline.ListFilesWithExt(paths.JSONDirectory, ".json")
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		s.logger.Info("No OCR JSON files found", slog.String("json_dir", paths.JSONDirectory))
		return nil, nil
	}

	unprocessed, err := s.runner.Unprocessed(files, paths.SummaryLogPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read resume log: %w", err)
	}
	if len(unprocessed) == 0 {
		s.logger.Info("All documents already summarized",
			slog.String("folder", folderName),
			slog.Int("total", len(files)))
		return nil, nil
	}

	stages := []pipeline.Stage{
		{
			Name:        "summary",
			Description: "JSON 文件內容抽取摘要",
			LogPath:     paths.SummaryLogPath(),
			Run: func(ctx context.Context, source string) error {
				return SummarizeDocument(ctx, s.llm,
					filepath.Join(paths.JSONDirectory, source),
					filepath.Join(paths.SummaryJSONDirectory, "summary_"+source),
					s.logger)
			},
		},
		{
			Name:        "embed",
			Description: "摘要向量化與儲存",
			Run: func(ctx context.Context, source string) error {
				record, err := ReadSummaryJSON(filepath.Join(paths.SummaryJSONDirectory, "summary_"+source))
				if err != nil {
					return err
				}
				return s.processor.SummaryEmbeddingUpsert(ctx, record,
					paths.SummaryCollection, paths.SummaryEmbedLogPath())
			},
		},
	}

	counts := s.runner.ProcessFiles(ctx, unprocessed, stages)
	stats := &Stats{
		SummarySuccess: counts["summary"].Succeeded,
		SummaryFailed:  counts["summary"].Failed,
		EmbedSuccess:   counts["embed"].Succeeded,
		EmbedFailed:    counts["embed"].Failed,
	}
	s.logger.Info("Folder summarization summary",
		slog.String("folder", folderName),
		slog.String("stats", stats.String()))
	return stats, nil
}

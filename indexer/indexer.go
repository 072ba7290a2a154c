// Package indexer drives the document ingestion pipeline: OCR a folder of
// PDFs into per-page JSON, chunk the pages, embed the chunks and upsert them
// into the folder's chunk collection. Every stage is resumable per file via
// the stage audit logs.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/lichun/polisearch/config"
	"github.com/lichun/polisearch/document"
	"github.com/lichun/polisearch/extractor"
	"github.com/lichun/polisearch/pipeline"
	"github.com/lichun/polisearch/services/ocr_service"
	"github.com/lichun/polisearch/vectorstore"
)

// Stats aggregates per-stage outcomes for one folder run.
type Stats struct {
	OCRSuccess   int
	OCRFailed    int
	ChunkSuccess int
	ChunkFailed  int
	EmbedSuccess int
	EmbedFailed  int
}

func (s Stats) String() string {
	return fmt.Sprintf("OCR %d/%d, chunk %d/%d, embed %d/%d (success/failed)",
		s.OCRSuccess, s.OCRFailed, s.ChunkSuccess, s.ChunkFailed, s.EmbedSuccess, s.EmbedFailed)
}

type Indexer struct {
	cfg       *config.Config
	store     *vectorstore.Store
	processor *EmbeddingProcessor
	ocrClient *ocr_service.Client // nil when no OCR service is configured
	extractor *extractor.DocumentExtractor
	runner    *pipeline.Runner
	logger    *slog.Logger
}

func New(cfg *config.Config, store *vectorstore.Store, processor *EmbeddingProcessor, ocrClient *ocr_service.Client, logger *slog.Logger) *Indexer {
	return &Indexer{
		cfg:       cfg,
		store:     store,
		processor: processor,
		ocrClient: ocrClient,
		extractor: extractor.NewDocumentExtractor(logger),
		runner:    pipeline.NewRunner(logger),
		logger:    logger,
	}
}

// ProcessAllFolders runs ProcessFolder over every folder under the PDF base
// directory. One folder failing does not stop the others.
func (ix *Indexer) ProcessAllFolders(ctx context.Context, report func(folder string, stats Stats)) error {
	folders, err := pipeline.ListFolders(ix.cfg.PDFBaseDirectory)
	if err != nil {
		return err
	}
	if len(folders) == 0 {
		ix.logger.Warn("No document folders found",
			slog.String("base_dir", ix.cfg.PDFBaseDirectory))
		return nil
	}

	for _, folder := range folders {
		stats, err := ix.ProcessFolder(ctx, folder)
		if err != nil {
			ix.logger.Error("Folder processing aborted",
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

// ProcessFolder runs OCR -> chunking -> embedding over the unprocessed PDFs
// in one folder. The returned stats are nil when there was nothing to do.
// Store unavailability aborts the whole folder up front; per-file errors are
// only ever counted.
func (ix *Indexer) ProcessFolder(ctx context.Context, folderName string) (*Stats, error) {
	if ix.store == nil {
		return nil, fmt.Errorf("vector store is not available")
	}

	paths := pipeline.NewFolderPaths(ix.cfg.PDFBaseDirectory, folderName)
	ix.logger.Info("Processing folder", slog.String("pdf_dir", paths.PDFDirectory))

	if _, err := ix.store.EnsureCollection(ctx, paths.ChunkCollection, ix.cfg.EmbeddingDimension); err != nil {
		return nil, fmt.Errorf("failed to prepare collection %s: %w", paths.ChunkCollection, err)
	}

	files, err := pipeline.ListFilesWithExt(paths.PDFDirectory, ".pdf", ".doc", ".docx")
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		ix.logger.Info("No documents found", slog.String("pdf_dir", paths.PDFDirectory))
		return nil, nil
	}

	unprocessed, err := ix.runner.Unprocessed(files, paths.OCRLogPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read resume log: %w", err)
	}
	if len(unprocessed) == 0 {
		ix.logger.Info("All documents already processed",
			slog.String("folder", folderName),
			slog.Int("total", len(files)))
		return nil, nil
	}
	ix.logger.Info("Resuming folder",
		slog.String("folder", folderName),
		slog.Int("total", len(files)),
		slog.Int("remaining", len(unprocessed)))

	jsonName := func(source string) string {
		return strings.TrimSuffix(source, filepath.Ext(source)) + ".json"
	}

	stages := []pipeline.Stage{
		{
			Name:        "ocr",
			Description: "PDF 轉換為 OCR JSON",
			LogPath:     paths.OCRLogPath(),
			Run: func(ctx context.Context, source string) error {
				return ix.convertToJSON(ctx,
					filepath.Join(paths.PDFDirectory, source),
					filepath.Join(paths.JSONDirectory, jsonName(source)))
			},
		},
		{
			Name:        "chunk",
			Description: "JSON 轉換為 Chunked JSON",
			LogPath:     paths.ChunkLogPath(),
			LogKey:      jsonName,
			Run: func(ctx context.Context, source string) error {
				return ProcessJSONToChunks(
					filepath.Join(paths.JSONDirectory, jsonName(source)),
					filepath.Join(paths.ChunkedJSONDirectory, "chunked_"+jsonName(source)),
					ix.cfg.ChunkSize)
			},
		},
		{
			// Batch-level entries land in the embed log via the
			// processor; the runner only counts this stage.
			Name:        "embed",
			Description: "Chunked JSON 向量化與儲存",
			Run: func(ctx context.Context, source string) error {
				chunks, err := ReadChunks(filepath.Join(paths.ChunkedJSONDirectory, "chunked_"+jsonName(source)))
				if err != nil {
					return err
				}
				return ix.processor.ChunkEmbeddingUpsert(ctx, chunks, jsonName(source),
					paths.ChunkCollection, paths.EmbedLogPath(), ix.cfg.ChunkBatchSize)
			},
		},
	}

	counts := ix.runner.ProcessFiles(ctx, unprocessed, stages)
	stats := &Stats{
		OCRSuccess:   counts["ocr"].Succeeded,
		OCRFailed:    counts["ocr"].Failed,
		ChunkSuccess: counts["chunk"].Succeeded,
		ChunkFailed:  counts["chunk"].Failed,
		EmbedSuccess: counts["embed"].Succeeded,
		EmbedFailed:  counts["embed"].Failed,
	}
	ix.logger.Info("Folder processing summary",
		slog.String("folder", folderName),
		slog.String("stats", stats.String()))
	return stats, nil
}

// convertToJSON produces the per-page OCR JSON for one source document,
// using the table-aware OCR service when configured and the digital-text
// extractor otherwise.
func (ix *Indexer) convertToJSON(ctx context.Context, sourcePath, jsonPath string) error {
	filename := filepath.Base(sourcePath)
	ext := strings.ToLower(filepath.Ext(sourcePath))

	var pages []document.PageContent
	switch {
	case ext == ".pdf" && ix.ocrClient != nil:
		result, err := ix.ocrClient.ExtractPDF(ctx, sourcePath)
		if err != nil {
			return err
		}
		merged := MergeTablesByPosition(result.Tables, ix.logger)
		pages = AssemblePages(filename, result.Texts, merged, ix.logger)

	case ext == ".pdf":
		rawPages, err := ix.extractor.ExtractPDFPages(sourcePath)
		if err != nil {
			return err
		}
		pages = make([]document.PageContent, 0, len(rawPages))
		for i, text := range rawPages {
			if strings.TrimSpace(text) == "" {
				continue
			}
			pages = append(pages, document.PageContent{Filename: filename, Page: i + 1, Content: text})
		}

	case ext == ".doc" || ext == ".docx":
		text, err := ix.extractor.ExtractWordText(sourcePath)
		if err != nil {
			return err
		}
		pages = []document.PageContent{{Filename: filename, Page: 1, Content: text}}

	default:
		return fmt.Errorf("unsupported file type: %s", ext)
	}

	if len(pages) == 0 {
		// An empty document is a successful extraction of nothing,
		// not an OCR failure.
		ix.logger.Warn("Document produced no content",
			slog.String("filename", filename))
	}
	return WritePagesJSON(jsonPath, pages)
}

package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lichun/polisearch/document"
	"github.com/lichun/polisearch/proclog"
	"github.com/lichun/polisearch/vectorstore"
)

// Embedder is the opaque text-to-vector capability.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Upserter is the slice of the vector store the processor needs.
type Upserter interface {
	Upsert(ctx context.Context, collection string, points []vectorstore.Point) error
}

// EmbeddingProcessor embeds chunk and summary records and upserts them with
// content-derived point ids, so a re-run overwrites instead of duplicating.
type EmbeddingProcessor struct {
	embedder Embedder
	store    Upserter
	logger   *slog.Logger
}

func NewEmbeddingProcessor(embedder Embedder, store Upserter, logger *slog.Logger) *EmbeddingProcessor {
	return &EmbeddingProcessor{embedder: embedder, store: store, logger: logger}
}

// embedTexts runs one embedding call, recording success or failure with
// elapsed time in the stage audit log before handing the error back up.
func (p *EmbeddingProcessor) embedTexts(ctx context.Context, texts []string, filename, desc, logPath string) ([][]float32, error) {
	start := time.Now()
	vectors, err := p.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		p.appendLog(logPath, proclog.ErrorEntry(filename, fmt.Sprintf("ERROR: %s failed: %s", desc, err)))
		p.logger.Error("Embedding failed",
			slog.String("filename", filename),
			slog.String("operation", desc),
			slog.String("error", err.Error()))
		return nil, err
	}
	p.appendLog(logPath, proclog.Entry(filename, desc+"｜"+proclog.SuccessMarker, start))
	return vectors, nil
}

// upsertPoints mirrors embedTexts for the store write.
func (p *EmbeddingProcessor) upsertPoints(ctx context.Context, collection string, points []vectorstore.Point, filename, desc, logPath string) error {
	start := time.Now()
	if err := p.store.Upsert(ctx, collection, points); err != nil {
		p.appendLog(logPath, proclog.ErrorEntry(filename, fmt.Sprintf("ERROR: %s failed: %s", desc, err)))
		p.logger.Error("Upsert failed",
			slog.String("filename", filename),
			slog.String("operation", desc),
			slog.String("error", err.Error()))
		return err
	}
	p.appendLog(logPath, proclog.Entry(filename, desc+"｜"+proclog.SuccessMarker, start))
	return nil
}

func (p *EmbeddingProcessor) appendLog(logPath, entry string) {
	if err := proclog.Append(logPath, entry); err != nil {
		p.logger.Error("Failed to write embed log entry",
			slog.String("log_path", logPath),
			slog.String("error", err.Error()))
	}
}

// ChunkEmbeddingUpsert embeds a document's chunks in batches and upserts
// each batch independently: one batch failing is recorded and the loop moves
// on, so a transient error costs one batch, not the file. The returned error
// is non-nil when any batch failed, which the stage runner counts as a file
// failure; already-upserted batches are harmless to redo thanks to the
// deterministic point ids.
func (p *EmbeddingProcessor) ChunkEmbeddingUpsert(ctx context.Context, chunks []document.Chunk, filename, collection, logPath string, batchSize int) error {
	if batchSize <= 0 {
		batchSize = 20
	}
	totalBatches := (len(chunks) + batchSize - 1) / batchSize
	failedBatches := 0

	for i := 0; i < len(chunks); i += batchSize {
		batchNum := i/batchSize + 1
		end := i + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[i:end]

		texts := make([]string, len(batch))
		for j, c := range batch {
			texts[j] = c.Content
		}

		vectors, err := p.embedTexts(ctx, texts, filename,
			fmt.Sprintf("Chunk embedding batch %d/%d", batchNum, totalBatches), logPath)
		if err != nil {
			failedBatches++
			continue
		}

		points := make([]vectorstore.Point, len(batch))
		for j, c := range batch {
			points[j] = vectorstore.Point{
				ID:     vectorstore.PointID(filename, c.Page, i+j, "chunk"),
				Vector: vectors[j],
				Payload: map[string]interface{}{
					"filename": c.Filename,
					"page":     c.Page,
					"content":  c.Content,
				},
			}
		}

		err = p.upsertPoints(ctx, collection, points, filename,
			fmt.Sprintf("Chunk upsert batch %d/%d", batchNum, totalBatches), logPath)
		if err != nil {
			failedBatches++
			continue
		}
	}

	if failedBatches > 0 {
		return fmt.Errorf("%d/%d chunk batches failed for %s", failedBatches, totalBatches, filename)
	}
	return nil
}

// SummaryEmbeddingUpsert embeds one document summary (title + summary text)
// as a single point. Error-shaped summary records are rejected before any
// embedding happens.
func (p *EmbeddingProcessor) SummaryEmbeddingUpsert(ctx context.Context, summary document.SummaryRecord, collection, logPath string) error {
	if summary.Error != "" {
		return fmt.Errorf("summary for %s is an error record: %s", summary.Filename, summary.Error)
	}

	text := summary.Title + " " + summary.Summary
	vectors, err := p.embedTexts(ctx, []string{text}, summary.Filename, "Summary embedding", logPath)
	if err != nil {
		return err
	}

	metadata := summary.Metadata
	if metadata == nil {
		metadata = []string{}
	}
	point := vectorstore.Point{
		ID:     vectorstore.PointID(summary.Filename, 0, 0, "summary"),
		Vector: vectors[0],
		Payload: map[string]interface{}{
			"filename":  summary.Filename,
			"title":     summary.Title,
			"file_type": summary.FileType,
			"metadata":  metadata,
			"summary":   summary.Summary,
		},
	}

	return p.upsertPoints(ctx, collection, []vectorstore.Point{point}, summary.Filename, "Summary upsert", logPath)
}

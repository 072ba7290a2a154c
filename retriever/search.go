package retriever

import (
	"context"
	"log/slog"
	"time"

	"github.com/lichun/polisearch/vectorstore"
)

// QueryEmbedder is the slice of the embedding service the retrieval path
// uses.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// PointQuerier is the slice of the vector store the retrieval path uses.
type PointQuerier interface {
	Query(ctx context.Context, collection string, vector []float32, sources []string, limit int) ([]vectorstore.ScoredPoint, error)
}

// VectorSearch embeds a query and runs nearest-neighbor search against the
// collection for the requested search type. Failures come back as empty
// results, not errors: a broken query should degrade to "nothing found" for
// the caller.
type VectorSearch struct {
	embedder    QueryEmbedder
	store       PointQuerier
	categoryMap map[string][]string
	logger      *slog.Logger
}

func NewVectorSearch(embedder QueryEmbedder, store PointQuerier, categoryMap map[string][]string, logger *slog.Logger) *VectorSearch {
	return &VectorSearch{
		embedder:    embedder,
		store:       store,
		categoryMap: categoryMap,
		logger:      logger,
	}
}

// buildCategoryFilter maps requested categories to the source filenames that
// carry any of them. A nil return means "no filter"; an empty non-nil return
// means no source matches.
func (v *VectorSearch) buildCategoryFilter(categories []string) []string {
	if len(categories) == 0 {
		return nil
	}
	wanted := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		wanted[c] = struct{}{}
	}
	sources := make([]string, 0)
	for source, sourceCategories := range v.categoryMap {
		for _, c := range sourceCategories {
			if _, ok := wanted[c]; ok {
				sources = append(sources, source)
				break
			}
		}
	}
	return sources
}

// Search returns the query vector alongside the top_k nearest points in
// "{searchType}_{collection}". When categories match no known source the
// search is short-circuited to an empty result before touching the store.
func (v *VectorSearch) Search(ctx context.Context, query string, topK int, searchType, collection string, categories []string) ([]float32, []vectorstore.ScoredPoint) {
	sources := v.buildCategoryFilter(categories)
	if len(categories) > 0 && len(sources) == 0 {
		v.logger.Warn("No sources match requested categories",
			slog.Any("categories", categories))
		return nil, nil
	}

	embedStart := time.Now()
	queryVector, err := v.embedder.EmbedQuery(ctx, query)
	if err != nil {
		v.logger.Error("Failed to embed query",
			slog.String("query", query),
			slog.String("error", err.Error()))
		return nil, nil
	}
	v.logger.Debug("Query embedded",
		slog.Duration("elapsed", time.Since(embedStart)))

	searchStart := time.Now()
	target := vectorstore.SearchCollection(searchType, collection)
	points, err := v.store.Query(ctx, target, queryVector, sources, topK)
	if err != nil {
		v.logger.Error("Vector search failed",
			slog.String("collection", target),
			slog.String("error", err.Error()))
		return queryVector, nil
	}
	v.logger.Info("Vector search completed",
		slog.String("collection", target),
		slog.Int("top_k", topK),
		slog.Int("hits", len(points)),
		slog.Duration("elapsed", time.Since(searchStart)))

	return queryVector, points
}

package retriever

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"time"
)

// Rerank re-scores document-level results by the similarity between the
// query vector and each result's title embedding. It is only ever applied
// to summary search; chunk results keep their native score.
type Rerank struct {
	embedder QueryEmbedder
	logger   *slog.Logger
}

func NewRerank(embedder QueryEmbedder, logger *slog.Logger) *Rerank {
	return &Rerank{embedder: embedder, logger: logger}
}

// RerankByTitle attaches TitleSimilarity to every result and returns the
// results sorted descending by it. A title that fails to embed scores 0.0
// rather than dropping the result.
func (r *Rerank) RerankByTitle(ctx context.Context, queryVector []float32, results []Result) []Result {
	start := time.Now()

	reranked := make([]Result, len(results))
	copy(reranked, results)
	for i := range reranked {
		titleVector, err := r.embedder.EmbedQuery(ctx, reranked[i].Title)
		if err != nil {
			r.logger.Error("Failed to embed title, scoring 0",
				slog.String("title", reranked[i].Title),
				slog.String("error", err.Error()))
			reranked[i].TitleSimilarity = 0.0
			continue
		}
		reranked[i].TitleSimilarity = CosineSimilarity(queryVector, titleVector)
	}

	sort.SliceStable(reranked, func(i, j int) bool {
		return reranked[i].TitleSimilarity > reranked[j].TitleSimilarity
	})

	r.logger.Info("Title rerank completed",
		slog.Int("result_count", len(reranked)),
		slog.Duration("elapsed", time.Since(start)))
	return reranked
}

// CosineSimilarity returns the cosine of the angle between two vectors, or
// exactly 0.0 when either has zero norm (or the dimensions disagree).
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

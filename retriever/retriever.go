// Package retriever turns a text query into ranked document results. Chunk
// search returns passage-level hits filtered by similarity score; summary
// search returns document-level hits reranked by title similarity.
package retriever

import (
	"context"
	"log/slog"

	"github.com/lichun/polisearch/vectorstore"
)

const (
	SearchTypeChunk   = "chunk"
	SearchTypeSummary = "summary"

	previewRunes = 200
)

// Result is one retrieval hit. Chunk hits populate Page and the content
// fields; summary hits populate Title, FileType, Metadata, Summary and
// TitleSimilarity.
type Result struct {
	SimilarityScore float64  `json:"similarity_score"`
	Filename        string   `json:"filename"`
	Page            int      `json:"page,omitempty"`
	ContentPreview  string   `json:"content_preview,omitempty"`
	FullContent     string   `json:"full_content,omitempty"`
	Title           string   `json:"title,omitempty"`
	FileType        string   `json:"file_type,omitempty"`
	Metadata        []string `json:"metadata,omitempty"`
	Summary         string   `json:"summary,omitempty"`
	TitleSimilarity float64  `json:"title_similarity,omitempty"`
}

// Response is the retrieval API payload.
type Response struct {
	Results    []Result `json:"results"`
	TotalCount int      `json:"total_count"`
}

// Searcher runs the embed-and-search step.
type Searcher interface {
	Search(ctx context.Context, query string, topK int, searchType, collection string, categories []string) ([]float32, []vectorstore.ScoredPoint)
}

// Reranker re-scores summary results against the query vector.
type Reranker interface {
	RerankByTitle(ctx context.Context, queryVector []float32, results []Result) []Result
}

type Retriever struct {
	searcher Searcher
	reranker Reranker
	logger   *slog.Logger
}

func New(searcher Searcher, reranker Reranker, logger *slog.Logger) *Retriever {
	return &Retriever{searcher: searcher, reranker: reranker, logger: logger}
}

// Retrieve runs the full pipeline for one query. Summary results are
// reranked by title similarity and filtered on it; chunk results are
// filtered on their similarity score in store order. The threshold is
// inclusive.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int, threshold float64, collection, searchType string, categories []string) Response {
	queryVector, points := r.searcher.Search(ctx, query, topK, searchType, collection, categories)

	var results []Result
	if searchType == SearchTypeSummary {
		results = summaryResults(points)
		results = r.reranker.RerankByTitle(ctx, queryVector, results)
		results = filterResults(results, threshold, func(res Result) float64 {
			return res.TitleSimilarity
		})
	} else {
		results = chunkResults(points)
		results = filterResults(results, threshold, func(res Result) float64 {
			return res.SimilarityScore
		})
	}

	r.logger.Info("Retrieval completed",
		slog.String("search_type", searchType),
		slog.String("collection", collection),
		slog.Int("hits", len(points)),
		slog.Int("results", len(results)))

	return Response{Results: results, TotalCount: len(results)}
}

func chunkResults(points []vectorstore.ScoredPoint) []Result {
	results := make([]Result, 0, len(points))
	for _, p := range points {
		content := payloadString(p.Payload, "content")
		results = append(results, Result{
			SimilarityScore: p.Score,
			Filename:        payloadString(p.Payload, "filename"),
			Page:            payloadInt(p.Payload, "page"),
			ContentPreview:  truncateRunes(content, previewRunes),
			FullContent:     content,
		})
	}
	return results
}

func summaryResults(points []vectorstore.ScoredPoint) []Result {
	results := make([]Result, 0, len(points))
	for _, p := range points {
		results = append(results, Result{
			SimilarityScore: p.Score,
			Filename:        payloadString(p.Payload, "filename"),
			Title:           payloadString(p.Payload, "title"),
			FileType:        payloadString(p.Payload, "file_type"),
			Metadata:        payloadStringSlice(p.Payload, "metadata"),
			Summary:         payloadString(p.Payload, "summary"),
		})
	}
	return results
}

func filterResults(results []Result, threshold float64, score func(Result) float64) []Result {
	filtered := make([]Result, 0, len(results))
	for _, res := range results {
		if score(res) >= threshold {
			filtered = append(filtered, res)
		}
	}
	return filtered
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

func payloadString(payload map[string]interface{}, key string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}

// payloadInt reads a numeric payload value. JSONB numbers decode as
// float64.
func payloadInt(payload map[string]interface{}, key string) int {
	switch v := payload[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func payloadStringSlice(payload map[string]interface{}, key string) []string {
	raw, ok := payload[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

package retriever_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/lichun/polisearch/retriever"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeEmbedder maps known texts to fixed vectors and fails on anything else.
type fakeEmbedder struct {
	vectors map[string][]float32
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	v, ok := f.vectors[text]
	if !ok {
		return nil, fmt.Errorf("no embedding for %q", text)
	}
	return v, nil
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"Parallel", []float32{1, 0}, []float32{3, 0}, 1.0},
		{"Orthogonal", []float32{1, 0}, []float32{0, 2}, 0.0},
		{"Opposite", []float32{1, 0}, []float32{-1, 0}, -1.0},
		{"Zero vector", []float32{0, 0}, []float32{1, 1}, 0.0},
		{"Dimension mismatch", []float32{1, 0}, []float32{1, 0, 0}, 0.0},
		{"Both empty", nil, nil, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := retriever.CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRerankByTitle(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"正交標題": {0, 1},
		"對齊標題": {1, 0},
		"斜向標題": {1, 1},
	}}
	rerank := retriever.NewRerank(embedder, discardLogger())

	results := []retriever.Result{
		{Title: "正交標題"},
		{Title: "對齊標題"},
		{Title: "無法嵌入的標題"},
		{Title: "斜向標題"},
	}

	reranked := rerank.RerankByTitle(context.Background(), []float32{1, 0}, results)
	if len(reranked) != len(results) {
		t.Fatalf("got %d results, want %d", len(reranked), len(results))
	}

	wantOrder := []string{"對齊標題", "斜向標題", "正交標題", "無法嵌入的標題"}
	for i, want := range wantOrder {
		if reranked[i].Title != want {
			t.Errorf("position %d: got %q, want %q", i, reranked[i].Title, want)
		}
	}
	if reranked[0].TitleSimilarity < 0.999 {
		t.Errorf("aligned title scored %v, want ~1.0", reranked[0].TitleSimilarity)
	}
	if reranked[3].TitleSimilarity != 0.0 {
		t.Errorf("unembeddable title scored %v, want exactly 0.0", reranked[3].TitleSimilarity)
	}

	// Input slice must stay untouched.
	if results[0].TitleSimilarity != 0 || results[0].Title != "正交標題" {
		t.Error("rerank mutated its input")
	}
}

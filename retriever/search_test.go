package retriever_test

import (
	"context"
	"testing"

	"github.com/lichun/polisearch/retriever"
	"github.com/lichun/polisearch/vectorstore"
)

// fakeStore records the query it received and returns canned points.
type fakeStore struct {
	collection string
	sources    []string
	called     bool
	points     []vectorstore.ScoredPoint
}

func (f *fakeStore) Query(ctx context.Context, collection string, vector []float32, sources []string, limit int) ([]vectorstore.ScoredPoint, error) {
	f.called = true
	f.collection = collection
	f.sources = sources
	return f.points, nil
}

func TestVectorSearchCategoryFilter(t *testing.T) {
	categoryMap := map[string][]string{
		"claims_guide.pdf": {"理賠規範"},
		"marketing.pdf":    {"商品行銷"},
		"mixed.pdf":        {"理賠規範", "商品行銷"},
	}
	embedder := &fakeEmbedder{vectors: map[string][]float32{"理賠流程": {1, 0}}}

	t.Run("Matching categories filter sources", func(t *testing.T) {
		store := &fakeStore{points: []vectorstore.ScoredPoint{{Score: 0.9}}}
		search := retriever.NewVectorSearch(embedder, store, categoryMap, discardLogger())

		vector, points := search.Search(context.Background(), "理賠流程", 30,
			retriever.SearchTypeChunk, "policies", []string{"理賠規範"})

		if vector == nil || len(points) != 1 {
			t.Fatalf("got vector=%v points=%v", vector, points)
		}
		if store.collection != "chunk_policies" {
			t.Errorf("queried collection %q, want chunk_policies", store.collection)
		}
		if len(store.sources) != 2 {
			t.Errorf("got sources %v, want the two 理賠規範 files", store.sources)
		}
		for _, s := range store.sources {
			if s != "claims_guide.pdf" && s != "mixed.pdf" {
				t.Errorf("unexpected source %q in filter", s)
			}
		}
	})

	t.Run("Unknown category short-circuits", func(t *testing.T) {
		store := &fakeStore{points: []vectorstore.ScoredPoint{{Score: 0.9}}}
		search := retriever.NewVectorSearch(embedder, store, categoryMap, discardLogger())

		vector, points := search.Search(context.Background(), "理賠流程", 30,
			retriever.SearchTypeChunk, "policies", []string{"不存在的分類"})

		if vector != nil || points != nil {
			t.Errorf("got vector=%v points=%v, want empty result", vector, points)
		}
		if store.called {
			t.Error("store must not be queried when no source matches")
		}
	})

	t.Run("No categories means no filter", func(t *testing.T) {
		store := &fakeStore{}
		search := retriever.NewVectorSearch(embedder, store, categoryMap, discardLogger())

		search.Search(context.Background(), "理賠流程", 30,
			retriever.SearchTypeChunk, "policies", nil)

		if store.sources != nil {
			t.Errorf("got sources %v, want nil for unfiltered search", store.sources)
		}
	})

	t.Run("Embedding failure returns empty", func(t *testing.T) {
		store := &fakeStore{}
		search := retriever.NewVectorSearch(embedder, store, categoryMap, discardLogger())

		_, points := search.Search(context.Background(), "未知查詢", 30,
			retriever.SearchTypeChunk, "policies", nil)

		if points != nil {
			t.Errorf("got points %v, want nil on embedding failure", points)
		}
		if store.called {
			t.Error("store must not be queried when embedding fails")
		}
	})
}

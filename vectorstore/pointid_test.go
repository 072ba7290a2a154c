package vectorstore_test

import (
	"testing"

	"github.com/lichun/polisearch/vectorstore"
)

func TestPointIDDeterministic(t *testing.T) {
	a := vectorstore.PointID("policy.json", 3, 7, "chunk")
	b := vectorstore.PointID("policy.json", 3, 7, "chunk")
	if a != b {
		t.Errorf("same inputs produced different ids: %s vs %s", a, b)
	}
}

func TestPointIDDistinct(t *testing.T) {
	ids := map[string]string{
		"base":           vectorstore.PointID("policy.json", 1, 1, "chunk").String(),
		"other filename": vectorstore.PointID("terms.json", 1, 1, "chunk").String(),
		"other page":     vectorstore.PointID("policy.json", 2, 1, "chunk").String(),
		"other index":    vectorstore.PointID("policy.json", 1, 2, "chunk").String(),
		"other kind":     vectorstore.PointID("policy.json", 1, 1, "summary").String(),
	}

	seen := make(map[string]string, len(ids))
	for name, id := range ids {
		if prev, ok := seen[id]; ok {
			t.Errorf("%s collides with %s: %s", name, prev, id)
		}
		seen[id] = name
	}
}

func TestSearchCollection(t *testing.T) {
	tests := []struct {
		searchType string
		collection string
		want       string
	}{
		{"chunk", "policies", "chunk_policies"},
		{"Summary", "policies", "summary_policies"},
		{"CHUNK", "claims_2025", "chunk_claims_2025"},
	}
	for _, tt := range tests {
		if got := vectorstore.SearchCollection(tt.searchType, tt.collection); got != tt.want {
			t.Errorf("SearchCollection(%q, %q) = %q, want %q", tt.searchType, tt.collection, got, tt.want)
		}
	}
}

package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/davecgh/go-spew/spew"
	"github.com/lichun/polisearch/config"
	"github.com/lichun/polisearch/retriever"
)

// RetrieveRequest is the incoming retrieval request. TopK and
// ThresholdScore fall back to the configured defaults when omitted.
type RetrieveRequest struct {
	Query          string   `json:"query"`
	Collection     string   `json:"collection"`
	SearchType     string   `json:"search_type"`
	TopK           int      `json:"top_k"`
	ThresholdScore *float64 `json:"threshold_score"`
	Categories     []string `json:"categories"`
}

// RetrieveHandler serves document retrieval requests.
type RetrieveHandler struct {
	cfg       *config.Config
	retriever *retriever.Retriever
	logger    *slog.Logger
}

func NewRetrieveHandler(cfg *config.Config, r *retriever.Retriever, logger *slog.Logger) *RetrieveHandler {
	return &RetrieveHandler{
		cfg:       cfg,
		retriever: r,
		logger:    logger,
	}
}

func (h *RetrieveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RetrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to decode request body",
			slog.String("error", err.Error()))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.validateRequest(&req); err != nil {
		h.logger.Error("Invalid request parameters",
			slog.String("error", err.Error()))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	topK := req.TopK
	if topK <= 0 {
		topK = h.cfg.TopK
	}
	threshold := h.cfg.ThresholdScore
	if req.ThresholdScore != nil {
		threshold = *req.ThresholdScore
	}

	response := h.retriever.Retrieve(r.Context(), req.Query, topK, threshold,
		req.Collection, req.SearchType, req.Categories)

	if h.cfg.Environment != "production" {
		spew.Dump(response.Results)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Failed to encode response",
			slog.String("error", err.Error()))
	}
}

func (h *RetrieveHandler) validateRequest(req *RetrieveRequest) error {
	if req.Query == "" {
		return fmt.Errorf("query is required")
	}
	if req.Collection == "" {
		return fmt.Errorf("collection is required")
	}
	if req.SearchType == "" {
		req.SearchType = retriever.SearchTypeChunk
	}
	if req.SearchType != retriever.SearchTypeChunk && req.SearchType != retriever.SearchTypeSummary {
		return fmt.Errorf("search_type must be %q or %q",
			retriever.SearchTypeChunk, retriever.SearchTypeSummary)
	}
	return nil
}

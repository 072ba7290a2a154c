// Package ocr_service talks to the table-aware OCR service. The service
// takes a PDF upload and returns, per page, the free-text blocks with their
// bounding boxes plus every detected table region as an HTML fragment. Table
// coordinates are in the OCR raster space (200 dpi); text coordinates are in
// PDF points.
package ocr_service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/lichun/polisearch/document"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		// OCR over a long scanned document is slow
		httpClient: &http.Client{Timeout: 10 * time.Minute},
		logger:     logger,
	}
}

// Result groups a document's extraction output by zero-based page number.
type Result struct {
	Texts  map[int][]document.TextBlock
	Tables map[int][]document.TableFragment
}

type parseResponse struct {
	Pages []struct {
		Page   int `json:"page"`
		Blocks []struct {
			BBox []float64 `json:"bbox"`
			Text string    `json:"text"`
		} `json:"blocks"`
		Tables []struct {
			BBox  []float64 `json:"bbox"`
			Title string    `json:"title"`
			HTML  string    `json:"html"`
		} `json:"tables"`
	} `json:"pages"`
	Error string `json:"error,omitempty"`
}

// ExtractPDF uploads the file and returns the per-page text blocks and table
// fragments. Per-page partial failure is the service's concern; an empty
// page simply has no blocks.
func (c *Client) ExtractPDF(ctx context.Context, pdfPath string) (*Result, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(pdfPath))
	if err != nil {
		return nil, fmt.Errorf("failed to create multipart field: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/parse", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create OCR request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("OCR request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("OCR service returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed parseResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode OCR response: %w", err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("OCR service error: %s", parsed.Error)
	}

	result := &Result{
		Texts:  make(map[int][]document.TextBlock),
		Tables: make(map[int][]document.TableFragment),
	}
	for _, page := range parsed.Pages {
		for _, b := range page.Blocks {
			bbox, err := bboxFromSlice(b.BBox)
			if err != nil {
				c.logger.Warn("Skipping text block with bad bbox",
					slog.Int("page", page.Page),
					slog.String("error", err.Error()))
				continue
			}
			result.Texts[page.Page] = append(result.Texts[page.Page], document.TextBlock{
				BBox: bbox,
				Text: b.Text,
			})
		}
		for _, t := range page.Tables {
			bbox, err := bboxFromSlice(t.BBox)
			if err != nil {
				c.logger.Warn("Skipping table with bad bbox",
					slog.Int("page", page.Page),
					slog.String("error", err.Error()))
				continue
			}
			columns, rows, err := ParseTableHTML(t.HTML)
			if err != nil {
				c.logger.Warn("Skipping table with unparseable HTML",
					slog.Int("page", page.Page),
					slog.String("error", err.Error()))
				continue
			}
			result.Tables[page.Page] = append(result.Tables[page.Page], document.TableFragment{
				BBox:    bbox,
				Title:   t.Title,
				Columns: columns,
				Rows:    rows,
			})
		}
	}

	c.logger.Info("OCR extraction finished",
		slog.String("pdf", filepath.Base(pdfPath)),
		slog.Int("pages", len(parsed.Pages)))
	return result, nil
}

// IsHealthy probes the OCR service health endpoint.
func (c *Client) IsHealthy(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false, fmt.Errorf("failed to create health check request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("health check request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("OCR service unhealthy: status %d", resp.StatusCode)
	}
	return true, nil
}

func bboxFromSlice(coords []float64) (document.BBox, error) {
	if len(coords) != 4 {
		return document.BBox{}, fmt.Errorf("bbox has %d coordinates, want 4", len(coords))
	}
	return document.BBox{X1: coords[0], Y1: coords[1], X2: coords[2], Y2: coords[3]}, nil
}

package summarizer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lichun/polisearch/document"
	"github.com/lichun/polisearch/indexer"
)

// SummaryPrompt instructs the model to emit the structured summary record.
// The intent list is the fixed taxonomy the retrieval frontend filters on.
const SummaryPrompt = `你是一個中文文本摘要助手。將我提供的原始文檔生成一個中文的包含 metadata 與 內容摘要 的結構化結果。

    要求：
    1. 找出文檔的標題
    2. 明確標明檔案類型，例如：條款、須知、教學手冊、問卷、表格...
    3. 列出文檔包含的主要元素，例如：文字、條列、表格、表單欄位...
    4. 根據以下意圖列表判斷該文檔對應到哪些相關意圖（一個或以上）：["商品行銷", "公司資訊新聞刊物", "投保核保醫務", "理賠規範", "契約保單變更", "繳費收費管理", "增員組織發展", "申請書表單聲明書", "制度規範獎勵", "E化操作手冊"]
    5. 最後給出 150-200字 的文檔內容摘要，只需保留核心概念、重點信息，不需完整細節。
    6. 確保輸出為以下結構，不要加其他解釋：
    {
    "title": "文件標題",
    "file_type": "檔案類型",
    "metadata": [文檔主要元素列表],
    "intent": [相關意圖列表],
    "summary": "內容摘要"
    }

    請將以下文本進行摘要：
`

// LLM is the summarization capability.
type LLM interface {
	CallLLM(ctx context.Context, prompt string) (string, error)
}

// SummarizeDocument reads a document's OCR JSON, feeds the concatenated page
// contents to the model and writes the summary record to outputPath. When
// the model output does not parse as a JSON object the record is written in
// its error shape (filename, error, raw_output) and no error is returned:
// a malformed summary is data, not a pipeline failure. An unreadable input
// or an LLM failure is a real error.
func SummarizeDocument(ctx context.Context, llm LLM, inputPath, outputPath string, logger *slog.Logger) error {
	pages, err := indexer.ReadPagesJSON(inputPath)
	if err != nil {
		return err
	}

	filename := strings.TrimSuffix(filepath.Base(inputPath), ".json")
	if len(pages) > 0 && pages[0].Filename != "" {
		filename = pages[0].Filename
	}

	var contents []string
	for _, page := range pages {
		if c := strings.TrimSpace(page.Content); c != "" {
			contents = append(contents, c)
		}
	}
	// Double newlines mark page boundaries for the model.
	documentText := strings.Join(contents, "\n\n")
	if documentText == "" {
		return fmt.Errorf("document %s has no content to summarize", filename)
	}

	logger.Info("Summarizing document",
		slog.String("filename", filename),
		slog.Int("text_length", len(documentText)))

	raw, err := llm.CallLLM(ctx, SummaryPrompt+documentText)
	if err != nil {
		return fmt.Errorf("summarization failed for %s: %w", filename, err)
	}

	record := parseSummaryOutput(filename, raw, logger)
	return writeSummaryJSON(outputPath, record)
}

// parseSummaryOutput extracts the structured record from the model output,
// tolerating surrounding prose and code fences.
func parseSummaryOutput(filename, raw string, logger *slog.Logger) document.SummaryRecord {
	candidate := extractJSONObject(raw)

	var record document.SummaryRecord
	if candidate != "" && json.Unmarshal([]byte(candidate), &record) == nil &&
		(record.Title != "" || record.Summary != "") {
		record.Filename = filename
		record.Error = ""
		record.RawOutput = ""
		return record
	}

	logger.Warn("Summary output is not valid JSON, keeping raw text",
		slog.String("filename", filename))
	return document.SummaryRecord{
		Filename:  filename,
		Error:     "無法解析輸出，模型輸出不是有效的 JSON 格式",
		RawOutput: raw,
	}
}

// extractJSONObject returns the outermost {...} span of the text, or "".
func extractJSONObject(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}

func writeSummaryJSON(path string, record document.SummaryRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create summary output directory: %w", err)
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary record: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write summary JSON %s: %w", path, err)
	}
	return nil
}

// ReadSummaryJSON loads a persisted summary record.
func ReadSummaryJSON(path string) (document.SummaryRecord, error) {
	var record document.SummaryRecord
	data, err := os.ReadFile(path)
	if err != nil {
		return record, fmt.Errorf("failed to read summary JSON %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &record); err != nil {
		return record, fmt.Errorf("failed to parse summary JSON %s: %w", path, err)
	}
	return record, nil
}

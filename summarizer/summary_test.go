package summarizer_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lichun/polisearch/document"
	"github.com/lichun/polisearch/indexer"
	"github.com/lichun/polisearch/summarizer"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeLLM returns a fixed response and records the prompt it saw.
type fakeLLM struct {
	response string
	err      error
	prompt   string
}

func (f *fakeLLM) CallLLM(ctx context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.response, f.err
}

func writeInput(t *testing.T, dir string, pages []document.PageContent) string {
	t.Helper()
	path := filepath.Join(dir, "policy.json")
	if err := indexer.WritePagesJSON(path, pages); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSummarizeDocument(t *testing.T) {
	dir := t.TempDir()
	inputPath := writeInput(t, dir, []document.PageContent{
		{Filename: "policy.pdf", Page: 1, Content: "第一頁內容"},
		{Filename: "policy.pdf", Page: 2, Content: "第二頁內容"},
	})
	outputPath := filepath.Join(dir, "out", "summary_policy.json")

	llm := &fakeLLM{response: "```json\n" + `{
		"title": "保單條款",
		"file_type": "條款",
		"metadata": ["文字", "表格"],
		"intent": ["理賠規範"],
		"summary": "本文件說明理賠相關規範。"
	}` + "\n```"}

	if err := summarizer.SummarizeDocument(context.Background(), llm, inputPath, outputPath, discardLogger()); err != nil {
		t.Fatalf("SummarizeDocument: %v", err)
	}

	record, err := summarizer.ReadSummaryJSON(outputPath)
	if err != nil {
		t.Fatal(err)
	}
	if record.Title != "保單條款" || record.FileType != "條款" {
		t.Errorf("structured fields lost: %+v", record)
	}
	if record.Filename != "policy.pdf" {
		t.Errorf("got filename %q, want the source document name", record.Filename)
	}
	if record.Error != "" || record.RawOutput != "" {
		t.Errorf("parsed record must not carry error fields: %+v", record)
	}

	if !strings.Contains(llm.prompt, "第一頁內容\n\n第二頁內容") {
		t.Error("page contents not joined with blank lines in the prompt")
	}
	if !strings.HasPrefix(llm.prompt, summarizer.SummaryPrompt) {
		t.Error("prompt missing the summary instructions")
	}
}

func TestSummarizeDocumentUnparseableOutput(t *testing.T) {
	dir := t.TempDir()
	inputPath := writeInput(t, dir, []document.PageContent{
		{Filename: "policy.pdf", Page: 1, Content: "內容"},
	})
	outputPath := filepath.Join(dir, "summary_policy.json")

	llm := &fakeLLM{response: "抱歉，我無法處理這份文件。"}

	// A malformed model output is recorded, not treated as a failure.
	if err := summarizer.SummarizeDocument(context.Background(), llm, inputPath, outputPath, discardLogger()); err != nil {
		t.Fatalf("SummarizeDocument: %v", err)
	}

	record, err := summarizer.ReadSummaryJSON(outputPath)
	if err != nil {
		t.Fatal(err)
	}
	if record.Error == "" {
		t.Error("record must carry the parse error")
	}
	if record.RawOutput != llm.response {
		t.Errorf("raw output not preserved: %q", record.RawOutput)
	}
	if record.Filename != "policy.pdf" {
		t.Errorf("got filename %q", record.Filename)
	}
}

func TestSummarizeDocumentEmptyContent(t *testing.T) {
	dir := t.TempDir()
	inputPath := writeInput(t, dir, []document.PageContent{
		{Filename: "policy.pdf", Page: 1, Content: "   "},
	})

	llm := &fakeLLM{}
	err := summarizer.SummarizeDocument(context.Background(), llm, inputPath,
		filepath.Join(dir, "out.json"), discardLogger())
	if err == nil {
		t.Fatal("want an error for a document with no content")
	}
	if llm.prompt != "" {
		t.Error("the model must not be called for an empty document")
	}
}

func TestSummarizeDocumentLLMFailure(t *testing.T) {
	dir := t.TempDir()
	inputPath := writeInput(t, dir, []document.PageContent{
		{Filename: "policy.pdf", Page: 1, Content: "內容"},
	})

	llm := &fakeLLM{err: fmt.Errorf("api unavailable")}
	err := summarizer.SummarizeDocument(context.Background(), llm, inputPath,
		filepath.Join(dir, "out.json"), discardLogger())
	if err == nil {
		t.Fatal("want an error when the model call fails")
	}
}

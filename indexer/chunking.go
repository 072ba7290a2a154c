package indexer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/lichun/polisearch/document"
)

// Chunks shorter than this carry headers, page numbers and similar noise
// rather than retrievable content, and are dropped.
const minChunkRunes = 50

// CreateChunks splits a page's content into chunks of at most chunkSize
// runes. Pass one greedily packs whole paragraphs, counting the newline
// separators toward the size; pass two re-splits any oversized chunk at
// sentence boundaries (full-width 。 or half-width .). A single sentence
// longer than chunkSize is emitted as-is. The function is pure: the same
// input always produces the same chunk sequence, in source order.
func CreateChunks(text string, chunkSize int) []string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\n\n", "\n"))
	if text == "" {
		return nil
	}

	var chunks []string
	var current strings.Builder
	currentLen := 0
	for _, paragraph := range strings.Split(text, "\n") {
		paraLen := utf8.RuneCountInString(paragraph)
		if currentLen+paraLen < chunkSize {
			current.WriteString(paragraph)
			current.WriteString("\n")
			currentLen += paraLen + 1
			continue
		}
		if chunk := strings.TrimSpace(current.String()); chunk != "" {
			chunks = append(chunks, chunk)
		}
		current.Reset()
		current.WriteString(paragraph)
		current.WriteString("\n")
		currentLen = paraLen + 1
	}
	if chunk := strings.TrimSpace(current.String()); chunk != "" {
		chunks = append(chunks, chunk)
	}

	var finalChunks []string
	for _, chunk := range chunks {
		if utf8.RuneCountInString(chunk) <= chunkSize {
			finalChunks = append(finalChunks, chunk)
			continue
		}
		finalChunks = append(finalChunks, splitBySentence(chunk, chunkSize)...)
	}

	result := make([]string, 0, len(finalChunks))
	for _, chunk := range finalChunks {
		if utf8.RuneCountInString(strings.TrimSpace(chunk)) > minChunkRunes {
			result = append(result, chunk)
		}
	}
	return result
}

// splitBySentence greedily re-packs an oversized chunk sentence by sentence.
func splitBySentence(chunk string, chunkSize int) []string {
	sentences := splitSentences(chunk)

	var out []string
	var current strings.Builder
	currentLen := 0
	for _, sentence := range sentences {
		sentLen := utf8.RuneCountInString(sentence)
		if currentLen+sentLen < chunkSize {
			current.WriteString(sentence)
			currentLen += sentLen
			continue
		}
		if s := strings.TrimSpace(current.String()); s != "" {
			out = append(out, s)
		}
		current.Reset()
		current.WriteString(sentence)
		currentLen = sentLen
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		out = append(out, s)
	}
	return out
}

// splitSentences cuts after every sentence terminator, keeping the
// terminator attached to its sentence.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder
	for _, r := range text {
		current.WriteRune(r)
		if r == '。' || r == '.' {
			sentences = append(sentences, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		sentences = append(sentences, current.String())
	}
	return sentences
}

// ProcessJSONToChunks reads a document's OCR JSON, chunks every page and
// writes the chunk map (chunk_1, chunk_2, ...) to outputPath. The counter
// runs across the whole document, not per page.
func ProcessJSONToChunks(inputPath, outputPath string, chunkSize int) error {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read OCR JSON %s: %w", inputPath, err)
	}
	var pages []document.PageContent
	if err := json.Unmarshal(data, &pages); err != nil {
		return fmt.Errorf("failed to parse OCR JSON %s: %w", inputPath, err)
	}

	allChunks := make(map[string]document.Chunk)
	counter := 1
	for _, page := range pages {
		if strings.TrimSpace(page.Content) == "" {
			continue
		}
		for _, content := range CreateChunks(page.Content, chunkSize) {
			allChunks[fmt.Sprintf("chunk_%d", counter)] = document.Chunk{
				Filename: page.Filename,
				Page:     page.Page,
				Content:  content,
			}
			counter++
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create chunk output directory: %w", err)
	}
	out, err := json.MarshalIndent(allChunks, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal chunks: %w", err)
	}
	if err := os.WriteFile(outputPath, out, 0644); err != nil {
		return fmt.Errorf("failed to write chunk JSON %s: %w", outputPath, err)
	}
	return nil
}

// ReadChunks loads a chunked JSON file in stable chunk order (chunk_1,
// chunk_2, ...), which preserves the embedding index across re-runs.
func ReadChunks(path string) ([]document.Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read chunk JSON %s: %w", path, err)
	}
	var chunkMap map[string]document.Chunk
	if err := json.Unmarshal(data, &chunkMap); err != nil {
		return nil, fmt.Errorf("failed to parse chunk JSON %s: %w", path, err)
	}

	chunks := make([]document.Chunk, 0, len(chunkMap))
	for i := 1; ; i++ {
		chunk, ok := chunkMap[fmt.Sprintf("chunk_%d", i)]
		if !ok {
			break
		}
		chunks = append(chunks, chunk)
	}
	if len(chunks) != len(chunkMap) {
		return nil, fmt.Errorf("chunk JSON %s has non-contiguous chunk keys", path)
	}
	return chunks, nil
}

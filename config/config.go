package config

import (
	"encoding/json"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config carries every tunable the services need. It is built once in main
// and passed by reference into constructors; nothing reads the environment
// after Load returns.
type Config struct {
	Environment   string
	HTTPPort      string
	HTTPSPort     string
	Domains       []string
	CertCacheDir  string
	ProcessLogDir string

	DatabaseURL string

	PDFBaseDirectory string
	ChunkSize        int
	ChunkBatchSize   int

	EmbeddingAPIURL    string
	EmbeddingAPIKey    string
	EmbeddingModel     string
	EmbeddingDimension int

	OCRServiceURL string

	LLMAPIURL    string
	LLMAPIKey    string
	LLMModelName string
	LLMMaxTokens int

	TopK           int
	ThresholdScore float64

	// CategoryMap maps a source filename to the categories it belongs to.
	// Loaded from CATEGORY_MAP_PATH (a JSON object) when set.
	CategoryMap map[string][]string

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string
	AlertSMSTo       string
}

var isTest bool

func init() {
	isTest = os.Getenv("GO_ENVIRONMENT") == "test"
	if !isTest {
		err := godotenv.Load()
		if err != nil {
			log.Println("Warning: Error loading .env file:", err)
		}
	}
}

func Load() Config {
	return Config{
		Environment:   getEnv("ENVIRONMENT", "development"),
		HTTPPort:      getEnv("HTTP_PORT", "8087"),
		HTTPSPort:     getEnv("HTTPS_PORT", "443"),
		Domains:       []string{getEnv("DOMAIN", "example.com")},
		CertCacheDir:  getEnv("CERT_CACHE_DIR", "../polisearch_certs"),
		ProcessLogDir: getEnv("PROCESS_LOG_DIR", "logs"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		PDFBaseDirectory: getEnv("PDF_BASE_DIRECTORY", "../pdf_files"),
		ChunkSize:        getEnvAsInt("CHUNK_SIZE", 1000),
		ChunkBatchSize:   getEnvAsInt("CHUNK_BATCH_SIZE", 20),

		EmbeddingAPIURL:    getEnv("EMBEDDING_API_URL", "http://localhost:8088/v1/embeddings"),
		EmbeddingAPIKey:    getEnv("EMBEDDING_API_KEY", ""),
		EmbeddingModel:     getEnv("EMBEDDING_MODEL", "bge-m3"),
		EmbeddingDimension: getEnvAsInt("EMBEDDING_DIMENSION", 1024),

		OCRServiceURL: getEnv("OCR_SERVICE_URL", ""),

		LLMAPIURL:    getEnv("LLM_API_URL", "https://api.anthropic.com/v1/messages"),
		LLMAPIKey:    getEnv("LLM_API_KEY", ""),
		LLMModelName: getEnv("LLM_MODEL_NAME", "claude-3-7-sonnet-20250219"),
		LLMMaxTokens: getEnvAsInt("LLM_MAX_TOKENS", 512),

		TopK:           getEnvAsInt("TOP_K", 30),
		ThresholdScore: getEnvAsFloat("THRESHOLD_SCORE", 0.5),

		CategoryMap: loadCategoryMap(getEnv("CATEGORY_MAP_PATH", "")),

		TwilioAccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFromNumber: getEnv("TWILIO_FROM_NUMBER", ""),
		AlertSMSTo:       getEnv("ALERT_SMS_TO", ""),
	}
}

func loadCategoryMap(path string) map[string][]string {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Println("Warning: Error reading category map:", err)
		return nil
	}
	var m map[string][]string
	if err := json.Unmarshal(data, &m); err != nil {
		log.Println("Warning: Error parsing category map:", err)
		return nil
	}
	return m
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

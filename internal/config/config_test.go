package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "REGION", "AWS_REGION", "BUCKET_NAME", "RETRIEVER", "INDEXER",
		"RETRIEVAL_RESULTS", "MODEL_TIMEOUT", "MODELS_FILE", "GEMINI_API_KEY",
		"GOOGLE_API_KEY", "OPENAI_API_KEY", "OPENAI_BASE_URL", "CORS_ORIGIN",
	} {
		t.Setenv(k, "")
	}
	t.Setenv("KNOWLEDGE_BASE_ID", "KB123")
	t.Setenv("DATA_SOURCE_ID", "DS456")
}

func TestLoad_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("port = %q, want 8080", cfg.Port)
	}
	if cfg.Region != "us-east-1" {
		t.Errorf("region = %q, want us-east-1", cfg.Region)
	}
	if cfg.ModelTimeout != 50*time.Second {
		t.Errorf("model timeout = %v, want 50s", cfg.ModelTimeout)
	}
	if cfg.RetrievalResults != 5 {
		t.Errorf("retrieval results = %d, want 5", cfg.RetrievalResults)
	}
	if len(cfg.Models) != 3 {
		t.Fatalf("expected 3 default models, got %d", len(cfg.Models))
	}
	if cfg.CORSOrigin != "*" {
		t.Errorf("cors origin = %q, want *", cfg.CORSOrigin)
	}
	if cfg.UsesPgvector() {
		t.Error("default config should not need postgres")
	}
}

func TestLoad_RegionFallsBackToAWSRegion(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("AWS_REGION", "eu-west-1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Region != "eu-west-1" {
		t.Errorf("region = %q, want eu-west-1", cfg.Region)
	}
}

func TestLoad_ModelTimeout(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"45", 45 * time.Second},
		{"1m30s", 90 * time.Second},
		{"250ms", 250 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			setBaseEnv(t)
			t.Setenv("MODEL_TIMEOUT", tt.in)

			cfg, err := Load()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.ModelTimeout != tt.want {
				t.Errorf("got %v, want %v", cfg.ModelTimeout, tt.want)
			}
		})
	}
}

func TestLoad_InvalidModelTimeout(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("MODEL_TIMEOUT", "soon")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid MODEL_TIMEOUT")
	}
}

func TestLoad_ModelsFile(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("GEMINI_API_KEY", "test-key")

	path := filepath.Join(t.TempDir(), "models.yaml")
	content := `models:
  - name: Claude
    provider: bedrock
    model_id: anthropic.claude-3-haiku-20240307-v1:0
    schema: anthropic
    max_tokens: 512
  - name: Gemini Flash
    provider: gemini
    model_id: gemini-2.5-flash
  - name: Local Llama
    provider: openai
    model_id: llama3.2
    temperature: 0.2
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MODELS_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Models) != 3 {
		t.Fatalf("expected 3 models, got %d", len(cfg.Models))
	}
	if cfg.Models[0].MaxTokens != 512 {
		t.Errorf("max tokens = %d, want 512", cfg.Models[0].MaxTokens)
	}
	if cfg.Models[1].MaxTokens != 2000 {
		t.Errorf("default max tokens = %d, want 2000", cfg.Models[1].MaxTokens)
	}
	if cfg.Models[2].Temperature != 0.2 {
		t.Errorf("temperature = %v, want 0.2", cfg.Models[2].Temperature)
	}
	if cfg.Models[2].TopP != 0.9 {
		t.Errorf("default top_p = %v, want 0.9", cfg.Models[2].TopP)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Retriever:        RetrieverBedrock,
			Indexer:          IndexerBedrock,
			KnowledgeBaseID:  "KB",
			DataSourceID:     "DS",
			RetrievalResults: 5,
			ModelTimeout:     time.Second,
			Models:           DefaultModels(),
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"unknown retriever", func(c *Config) { c.Retriever = "elastic" }, "unknown RETRIEVER"},
		{"missing kb", func(c *Config) { c.KnowledgeBaseID = "" }, "KNOWLEDGE_BASE_ID"},
		{"pgvector without key", func(c *Config) { c.Retriever = RetrieverPgvector; c.Indexer = IndexerNone }, "GEMINI_API_KEY"},
		{"no models", func(c *Config) { c.Models = nil }, "at least one model"},
		{"duplicate model", func(c *Config) { c.Models = append(c.Models, c.Models[0]) }, "duplicate name"},
		{"bad schema", func(c *Config) { c.Models[0].Schema = "cohere" }, "unknown bedrock schema"},
		{"bad provider", func(c *Config) { c.Models[0].Provider = "azure" }, "unknown provider"},
		{"zero timeout", func(c *Config) { c.ModelTimeout = 0 }, "MODEL_TIMEOUT"},
		{"indexer none", func(c *Config) { c.Indexer = IndexerNone; c.DataSourceID = "" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

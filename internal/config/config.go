package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/Kumaryan12/mini-rag/internal/domain"
)

// CohereConfig configures the Cohere client shared by the embedder, reranker
// and generator.
type CohereConfig struct {
	BaseURL           string  `yaml:"base_url" toml:"base_url"`
	APIKeyEnv         string  `yaml:"api_key_env" toml:"api_key_env"`
	EmbedModel        string  `yaml:"embed_model" toml:"embed_model"`
	RerankModel       string  `yaml:"rerank_model" toml:"rerank_model"`
	ChatModel         string  `yaml:"chat_model" toml:"chat_model"`
	TimeoutSecs       int     `yaml:"timeout_secs" toml:"timeout_secs"`
	RequestsPerSecond float64 `yaml:"requests_per_second" toml:"requests_per_second"`
}

// APIKey reads the key from the configured environment variable.
func (c CohereConfig) APIKey() string { return os.Getenv(c.APIKeyEnv) }

// OpenAIConfig configures the OpenAI-compatible embedder and the chat generator.
type OpenAIConfig struct {
	BaseURL     string `yaml:"base_url" toml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env" toml:"api_key_env"`
	EmbedModel  string `yaml:"embed_model" toml:"embed_model"`
	ChatModel   string `yaml:"chat_model" toml:"chat_model"`
	TimeoutSecs int    `yaml:"timeout_secs" toml:"timeout_secs"`
}

// APIKey reads the key from the configured environment variable.
func (c OpenAIConfig) APIKey() string { return os.Getenv(c.APIKeyEnv) }

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type        string `yaml:"type" toml:"type"`
	BatchSize   int    `yaml:"batch_size" toml:"batch_size"`
	Concurrency int    `yaml:"concurrency" toml:"concurrency"`
	// Dimension sizes the vectors of the hashing embedder.
	Dimension int `yaml:"dimension,omitempty" toml:"dimension,omitempty"`
}

// ChunkerConfig configures how documents are split into chunks.
type ChunkerConfig struct {
	ChunkTokens     int `yaml:"chunk_tokens" toml:"chunk_tokens"`
	OverlapTokens   int `yaml:"overlap_tokens" toml:"overlap_tokens"`
	MaxIngestChunks int `yaml:"max_ingest_chunks" toml:"max_ingest_chunks"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type        string          `yaml:"type" toml:"type"`
	ClassName   string          `yaml:"class_name" toml:"class_name"`
	UpsertBatch int             `yaml:"upsert_batch" toml:"upsert_batch"`
	Concurrency int             `yaml:"concurrency" toml:"concurrency"`
	Weaviate    *WeaviateConfig `yaml:"weaviate,omitempty" toml:"weaviate,omitempty"`
	Qdrant      *QdrantConfig   `yaml:"qdrant,omitempty" toml:"qdrant,omitempty"`
	SQLite      *SQLiteConfig   `yaml:"sqlite,omitempty" toml:"sqlite,omitempty"`
}

// WeaviateConfig contains connection details for a Weaviate instance.
type WeaviateConfig struct {
	Host        string `yaml:"host" toml:"host"`
	Scheme      string `yaml:"scheme" toml:"scheme"`
	APIKeyEnv   string `yaml:"api_key_env" toml:"api_key_env"`
	TimeoutSecs int    `yaml:"timeout_secs" toml:"timeout_secs"`
}

// APIKey reads the key from the configured environment variable.
func (c WeaviateConfig) APIKey() string { return os.Getenv(c.APIKeyEnv) }

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url" toml:"url"`
	APIKey      string `yaml:"api_key" toml:"api_key"`
	Collection  string `yaml:"collection" toml:"collection"`
	Dimension   int    `yaml:"dimension" toml:"dimension"`
	TimeoutSecs int    `yaml:"timeout_secs" toml:"timeout_secs"`
}

// SQLiteConfig locates the database file of the sqlite store.
type SQLiteConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// RerankerConfig selects the reranker.
type RerankerConfig struct {
	Type string `yaml:"type" toml:"type"`
}

// GeneratorConfig selects and configures the answer generator.
type GeneratorConfig struct {
	Type        string  `yaml:"type" toml:"type"`
	Temperature float64 `yaml:"temperature" toml:"temperature"`
	// MaxSentences bounds the extractive generator's answers.
	MaxSentences int `yaml:"max_sentences,omitempty" toml:"max_sentences,omitempty"`
}

// RetrievalConfig holds the ask defaults.
type RetrievalConfig struct {
	TopK   int `yaml:"top_k" toml:"top_k"`
	FinalN int `yaml:"final_n" toml:"final_n"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr        string   `yaml:"addr" toml:"addr"`
	TimeoutSecs int      `yaml:"timeout_secs" toml:"timeout_secs"`
	CORSOrigins []string `yaml:"cors_origins" toml:"cors_origins"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Cohere      CohereConfig      `yaml:"cohere" toml:"cohere"`
	OpenAI      OpenAIConfig      `yaml:"openai" toml:"openai"`
	Embedder    EmbedderConfig    `yaml:"embedder" toml:"embedder"`
	Chunker     ChunkerConfig     `yaml:"chunker" toml:"chunker"`
	VectorStore VectorStoreConfig `yaml:"vector_store" toml:"vector_store"`
	Reranker    RerankerConfig    `yaml:"reranker" toml:"reranker"`
	Generator   GeneratorConfig   `yaml:"generator" toml:"generator"`
	Retrieval   RetrievalConfig   `yaml:"retrieval" toml:"retrieval"`
	Server      ServerConfig      `yaml:"server" toml:"server"`
	Log         LogConfig         `yaml:"log" toml:"log"`
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
// Files ending in .toml are parsed as TOML, everything else as YAML.
// Environment overrides are applied last.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			if err := ApplyEnv(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if isTOML(path) {
		err = toml.Unmarshal(data, &cfg)
	} else {
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, domain.ConfigError("config", "parse %s: %v", path, err)
	}
	applyConfigDefaults(&cfg)
	if err := ApplyEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDefault tries ./config.yaml and ./config.toml, then ~/.config/rag/config.yaml.
// If neither exists, it writes defaults to ~/.config/rag/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	for _, cwdPath := range []string{"config.yaml", "config.toml"} {
		if _, err := os.Stat(cwdPath); err == nil {
			cfg, err := Load(cwdPath)
			return cfg, cwdPath, err
		}
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := Default()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		data, err = toml.Marshal(cfg)
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "rag", "config.yaml"), nil
}

// Default returns the Cohere + Weaviate deployment defaults.
func Default() *AppConfig {
	cfg := &AppConfig{
		Embedder:    EmbedderConfig{Type: "cohere"},
		VectorStore: VectorStoreConfig{Type: "weaviate"},
		Reranker:    RerankerConfig{Type: "cohere"},
		Generator:   GeneratorConfig{Type: "cohere"},
	}
	applyConfigDefaults(cfg)
	return cfg
}

// Offline returns a configuration that needs no network services.
func Offline() *AppConfig {
	cfg := &AppConfig{
		Embedder:    EmbedderConfig{Type: "hashing"},
		VectorStore: VectorStoreConfig{Type: "memory"},
		Reranker:    RerankerConfig{Type: "lexical"},
		Generator:   GeneratorConfig{Type: "extractive"},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func setDefault[T comparable](field *T, value T) {
	var zero T
	if *field == zero {
		*field = value
	}
}

func applyConfigDefaults(cfg *AppConfig) {
	setDefault(&cfg.Cohere.BaseURL, "https://api.cohere.com")
	setDefault(&cfg.Cohere.APIKeyEnv, "COHERE_API_KEY")
	setDefault(&cfg.Cohere.EmbedModel, "embed-english-v3.0")
	setDefault(&cfg.Cohere.RerankModel, "rerank-english-v3.0")
	setDefault(&cfg.Cohere.ChatModel, "command-r-plus")
	setDefault(&cfg.Cohere.TimeoutSecs, 30)

	setDefault(&cfg.OpenAI.BaseURL, "https://api.openai.com/v1")
	setDefault(&cfg.OpenAI.APIKeyEnv, "OPENAI_API_KEY")
	setDefault(&cfg.OpenAI.EmbedModel, "text-embedding-3-small")
	setDefault(&cfg.OpenAI.ChatModel, "gpt-4o-mini")
	setDefault(&cfg.OpenAI.TimeoutSecs, 30)

	setDefault(&cfg.Embedder.Type, "cohere")
	setDefault(&cfg.Embedder.BatchSize, 96)
	setDefault(&cfg.Embedder.Concurrency, 1)

	setDefault(&cfg.Chunker.ChunkTokens, 1000)
	setDefault(&cfg.Chunker.OverlapTokens, 150)
	setDefault(&cfg.Chunker.MaxIngestChunks, 800)

	setDefault(&cfg.VectorStore.Type, "weaviate")
	setDefault(&cfg.VectorStore.ClassName, "DocChunk")
	setDefault(&cfg.VectorStore.UpsertBatch, 200)
	setDefault(&cfg.VectorStore.Concurrency, 1)
	switch cfg.VectorStore.Type {
	case "weaviate":
		if cfg.VectorStore.Weaviate == nil {
			cfg.VectorStore.Weaviate = &WeaviateConfig{}
		}
		setDefault(&cfg.VectorStore.Weaviate.Scheme, "https")
		setDefault(&cfg.VectorStore.Weaviate.APIKeyEnv, "WEAVIATE_API_KEY")
		setDefault(&cfg.VectorStore.Weaviate.TimeoutSecs, 30)
	case "qdrant":
		if cfg.VectorStore.Qdrant == nil {
			cfg.VectorStore.Qdrant = &QdrantConfig{}
		}
		setDefault(&cfg.VectorStore.Qdrant.URL, "http://localhost:6333")
		setDefault(&cfg.VectorStore.Qdrant.Collection, cfg.VectorStore.ClassName)
		setDefault(&cfg.VectorStore.Qdrant.TimeoutSecs, 15)
	case "sqlite":
		if cfg.VectorStore.SQLite == nil {
			cfg.VectorStore.SQLite = &SQLiteConfig{}
		}
		setDefault(&cfg.VectorStore.SQLite.Path, filepath.Join(".rag", "rag.db"))
	}

	setDefault(&cfg.Reranker.Type, "cohere")
	setDefault(&cfg.Generator.Type, "cohere")
	setDefault(&cfg.Generator.Temperature, 0.2)

	setDefault(&cfg.Retrieval.TopK, 12)
	setDefault(&cfg.Retrieval.FinalN, 6)

	setDefault(&cfg.Server.Addr, ":8080")
	setDefault(&cfg.Server.TimeoutSecs, 60)

	setDefault(&cfg.Log.Level, "info")
	setDefault(&cfg.Log.Format, "json")
}

// ApplyEnv applies the deployment environment overrides.
func ApplyEnv(cfg *AppConfig) error {
	if v := os.Getenv("EMBEDDING_MODEL"); v != "" {
		if cfg.Embedder.Type == "openai" {
			cfg.OpenAI.EmbedModel = v
		} else {
			cfg.Cohere.EmbedModel = v
		}
	}
	if v := os.Getenv("VECTOR_CLASS_NAME"); v != "" {
		cfg.VectorStore.ClassName = v
	}
	if v := os.Getenv("WEAVIATE_HOST"); v != "" {
		if cfg.VectorStore.Weaviate == nil {
			cfg.VectorStore.Weaviate = &WeaviateConfig{Scheme: "https", APIKeyEnv: "WEAVIATE_API_KEY"}
		}
		cfg.VectorStore.Weaviate.Host = v
	}
	ints := []struct {
		env   string
		field *int
	}{
		{"COHERE_EMBED_BATCH", &cfg.Embedder.BatchSize},
		{"WEAVIATE_UPSERT_BATCH", &cfg.VectorStore.UpsertBatch},
		{"MAX_INGEST_CHUNKS", &cfg.Chunker.MaxIngestChunks},
	}
	for _, o := range ints {
		v := os.Getenv(o.env)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return domain.ConfigError("config", "%s must be a positive integer, got %q", o.env, v)
		}
		*o.field = n
	}
	return nil
}

var (
	embedderTypes  = []string{"cohere", "openai", "hashing"}
	storeTypes     = []string{"weaviate", "qdrant", "memory", "sqlite"}
	rerankerTypes  = []string{"cohere", "lexical"}
	generatorTypes = []string{"cohere", "openai", "extractive"}
)

func oneOf(field, value string, allowed []string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return domain.ConfigError("config", "unknown %s %q (want one of %s)", field, value, strings.Join(allowed, ", "))
}

// Validate checks selector values and numeric bounds. Credentials are
// checked when the components are built.
func (c *AppConfig) Validate() error {
	checks := []error{
		oneOf("embedder", c.Embedder.Type, embedderTypes),
		oneOf("vector store", c.VectorStore.Type, storeTypes),
		oneOf("reranker", c.Reranker.Type, rerankerTypes),
		oneOf("generator", c.Generator.Type, generatorTypes),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	switch {
	case c.Chunker.ChunkTokens <= 0:
		return domain.ConfigError("config", "chunker.chunk_tokens must be positive")
	case c.Chunker.OverlapTokens < 0:
		return domain.ConfigError("config", "chunker.overlap_tokens must not be negative")
	case c.Embedder.BatchSize <= 0:
		return domain.ConfigError("config", "embedder.batch_size must be positive")
	case c.VectorStore.UpsertBatch <= 0:
		return domain.ConfigError("config", "vector_store.upsert_batch must be positive")
	case c.Retrieval.TopK <= 0 || c.Retrieval.FinalN <= 0:
		return domain.ConfigError("config", "retrieval.top_k and retrieval.final_n must be positive")
	}
	return nil
}

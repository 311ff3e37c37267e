package config

// Config represents the full application configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	LLM           LLMConfig           `yaml:"llm"`
	VectorStore   VectorStoreConfig   `yaml:"vectorStore"`
	Registry      RegistryConfig      `yaml:"registry"`
	Security      SecurityConfig      `yaml:"security"`
	Retrieval     RetrievalConfig     `yaml:"retrieval"`
	Ingestion     IngestionConfig     `yaml:"ingestion"`
	Quality       QualityConfig       `yaml:"quality"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// APIKeys is the set of accepted X-API-Key values. Empty disables
	// authentication, which is only sensible for local development.
	APIKeys []string `yaml:"apiKeys"`
}

// LLMConfig configures the generation provider.
type LLMConfig struct {
	// Provider selects the backend: "gemini" or "static".
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"apiKey"`
	Temperature float64 `yaml:"temperature"`

	Timeout        string `yaml:"timeout"`
	MaxRetries     int    `yaml:"maxRetries"`
	InitialBackoff string `yaml:"initialBackoff"`
	MaxBackoff     string `yaml:"maxBackoff"`
}

// VectorStoreConfig points at the similarity search service. An empty URL
// selects the in-memory store.
type VectorStoreConfig struct {
	URL        string `yaml:"url"`
	Collection string `yaml:"collection"`
}

// RegistryConfig configures the document registry database.
type RegistryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// SecurityConfig bounds and sanitizes inbound text.
type SecurityConfig struct {
	MaxRequestBytes      int    `yaml:"maxRequestBytes"`
	MaxContextBytes      int    `yaml:"maxContextBytes"`
	RedactionReplacement string `yaml:"redactionReplacement"`
}

// RetrievalConfig tunes knowledge-base search.
type RetrievalConfig struct {
	MinRelevanceScore float64 `yaml:"minRelevanceScore"`
}

// IngestionConfig tunes document chunking and seeding.
type IngestionConfig struct {
	ChunkSize    int    `yaml:"chunkSize"`
	ChunkOverlap int    `yaml:"chunkOverlap"`
	DocsRepoDir  string `yaml:"docsRepoDir"`
	DocsSubdir   string `yaml:"docsSubdir"`
}

// QualityConfig tunes the prompt quality gates.
type QualityConfig struct {
	MinSystemLength int     `yaml:"minSystemLength"`
	MinTotalLength  int     `yaml:"minTotalLength"`
	MinAgentLength  int     `yaml:"minAgentLength"`
	PassScore       float64 `yaml:"passScore"`
}

// ObservabilityConfig configures logging.
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig configures structured logging output.
type LoggingConfig struct {
	Level         string `yaml:"level"`         // debug, info, warn, error
	Development   bool   `yaml:"development"`   // human-readable console output
	RedactAPIKeys bool   `yaml:"redactAPIKeys"` // redact API keys in logs
}

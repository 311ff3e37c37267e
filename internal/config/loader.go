package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// LoaderOptions describes how configuration should be discovered.
type LoaderOptions struct {
	ConfigPaths []string
	FileName    string
	EnvPrefix   string
}

// Load returns the merged configuration from .env, config files, and
// environment variables. Environment variables win over file values.
func Load(opts LoaderOptions) (Config, error) {
	// .env is a local-development convenience; a missing file is fine.
	_ = godotenv.Load()

	v := viper.New()

	name := opts.FileName
	if name == "" {
		name = "pf"
	}

	configFile := locateConfigFile(name, opts.ConfigPaths)
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(name)
	}

	prefix := opts.EnvPrefix
	if prefix == "" {
		prefix = "PF"
	}
	v.SetEnvPrefix(prefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AllowEmptyEnv(true)

	setDefaults(v)

	if configFile != "" {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg = expandEnvVars(cfg)

	return cfg, nil
}

// expandEnvVars expands ${VAR} and $VAR syntax in configuration strings.
func expandEnvVars(cfg Config) Config {
	cfg.LLM.APIKey = expandEnvString(cfg.LLM.APIKey)
	cfg.LLM.Model = expandEnvString(cfg.LLM.Model)
	cfg.LLM.Timeout = expandEnvString(cfg.LLM.Timeout)
	cfg.LLM.InitialBackoff = expandEnvString(cfg.LLM.InitialBackoff)
	cfg.LLM.MaxBackoff = expandEnvString(cfg.LLM.MaxBackoff)

	cfg.VectorStore.URL = expandEnvString(cfg.VectorStore.URL)
	cfg.VectorStore.Collection = expandEnvString(cfg.VectorStore.Collection)

	cfg.Registry.Path = expandEnvString(cfg.Registry.Path)

	cfg.Ingestion.DocsRepoDir = expandEnvString(cfg.Ingestion.DocsRepoDir)
	cfg.Ingestion.DocsSubdir = expandEnvString(cfg.Ingestion.DocsSubdir)

	cfg.Server.APIKeys = expandEnvStringSlice(cfg.Server.APIKeys)

	return cfg
}

var (
	bracedVarRE = regexp.MustCompile(`\$\{([A-Z_][A-Z0-9_]*)\}`)
	bareVarRE   = regexp.MustCompile(`\$([A-Z_][A-Z0-9_]*)`)
)

// expandEnvString replaces ${VAR} or $VAR with environment variable values.
// Unset variables are left as-is.
func expandEnvString(s string) string {
	if s == "" {
		return s
	}

	s = bracedVarRE.ReplaceAllStringFunc(s, func(match string) string {
		if val := os.Getenv(match[2 : len(match)-1]); val != "" {
			return val
		}
		return match
	})

	s = bareVarRE.ReplaceAllStringFunc(s, func(match string) string {
		if val := os.Getenv(match[1:]); val != "" {
			return val
		}
		return match
	})

	return s
}

func expandEnvStringSlice(slice []string) []string {
	if len(slice) == 0 {
		return slice
	}
	result := make([]string, len(slice))
	for i, s := range slice {
		result[i] = expandEnvString(s)
	}
	return result
}

func locateConfigFile(name string, paths []string) string {
	searchPaths := append([]string{}, paths...)
	searchPaths = append(searchPaths, ".")
	for _, dir := range searchPaths {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, name+".yaml")
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.model", "gemini-2.0-flash")
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("llm.maxRetries", 3)
	v.SetDefault("llm.initialBackoff", "1s")
	v.SetDefault("llm.maxBackoff", "16s")

	v.SetDefault("vectorStore.collection", "knowledge_base")

	v.SetDefault("registry.enabled", true)
	v.SetDefault("registry.path", defaultRegistryPath())

	v.SetDefault("security.maxRequestBytes", 10240)
	v.SetDefault("security.maxContextBytes", 51200)
	v.SetDefault("security.redactionReplacement", "[REDACTED]")

	v.SetDefault("retrieval.minRelevanceScore", 0.5)

	v.SetDefault("ingestion.chunkSize", 1000)
	v.SetDefault("ingestion.chunkOverlap", 150)

	v.SetDefault("quality.minSystemLength", 100)
	v.SetDefault("quality.minTotalLength", 200)
	v.SetDefault("quality.minAgentLength", 1000)
	v.SetDefault("quality.passScore", 0.7)

	v.SetDefault("observability.logging.level", "info")
	v.SetDefault("observability.logging.development", false)
	v.SetDefault("observability.logging.redactAPIKeys", true)
}

func defaultRegistryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./documents.db"
	}
	return filepath.Join(home, ".config", "pf", "documents.db")
}

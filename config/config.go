// Package config loads fincrag settings from defaults, an optional YAML file,
// a .env file and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/smallnest/fincrag/log"
)

// EnvPrefix prefixes every environment override, e.g. FINCRAG_LLM_MODEL.
const EnvPrefix = "FINCRAG"

var (
	// ErrMissingLLMKey is returned when no generation credential is configured.
	ErrMissingLLMKey = errors.New("llm api key not set (OPENAI_API_KEY)")
	// ErrMissingNewsKey is returned when the newsapi provider has no credential.
	ErrMissingNewsKey = errors.New("news api key not set (NEWSAPI_API_KEY)")
	// ErrInvalid is wrapped by every other validation failure.
	ErrInvalid = errors.New("invalid configuration")
)

// Config is the complete application configuration.
type Config struct {
	LLM         LLMConfig         `mapstructure:"llm"         yaml:"llm"`
	Embedding   EmbeddingConfig   `mapstructure:"embedding"   yaml:"embedding"`
	VectorStore VectorStoreConfig `mapstructure:"vectorstore" yaml:"vectorstore"`
	News        NewsConfig        `mapstructure:"news"        yaml:"news"`
	WebSearch   WebSearchConfig   `mapstructure:"websearch"   yaml:"websearch"`
	Journal     JournalConfig     `mapstructure:"journal"     yaml:"journal"`
	Log         LogConfig         `mapstructure:"log"         yaml:"log"`
}

// LLMConfig selects the chat model used for assessment and generation.
type LLMConfig struct {
	Backend string `mapstructure:"backend"  yaml:"backend"` // "langchaingo" or "go-openai"
	Model   string `mapstructure:"model"    yaml:"model"`
	APIKey  string `mapstructure:"api_key"  yaml:"api_key"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// EmbeddingConfig selects the embedder used to index documents.
type EmbeddingConfig struct {
	Provider string `mapstructure:"provider" yaml:"provider"` // "openai" or "hash"
	Model    string `mapstructure:"model"    yaml:"model"`
}

// VectorStoreConfig selects where session documents are indexed.
type VectorStoreConfig struct {
	Provider  string `mapstructure:"provider"   yaml:"provider"` // "memory" or "chroma"
	ChromaURL string `mapstructure:"chroma_url" yaml:"chroma_url"`
}

// NewsConfig selects the news provider.
type NewsConfig struct {
	Provider string `mapstructure:"provider" yaml:"provider"` // "newsapi" or "rss"
	APIKey   string `mapstructure:"api_key"  yaml:"api_key"`
	Days     int    `mapstructure:"days"     yaml:"days"`
	RSSURL   string `mapstructure:"rss_url"  yaml:"rss_url"`
}

// WebSearchConfig selects the web search provider. An empty APIKey
// disables web search.
type WebSearchConfig struct {
	Provider string        `mapstructure:"provider" yaml:"provider"` // "tavily" or "brave"
	APIKey   string        `mapstructure:"api_key"  yaml:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"  yaml:"timeout"`
}

// JournalConfig selects the run journal backend.
type JournalConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver"` // none, memory, file, redis, sqlite, postgres
	DSN    string `mapstructure:"dsn"    yaml:"dsn"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

var (
	llmBackends        = []string{"langchaingo", "go-openai"}
	embeddingProviders = []string{"openai", "hash"}
	vectorProviders    = []string{"memory", "chroma"}
	newsProviders      = []string{"newsapi", "rss"}
	webProviders       = []string{"tavily", "brave"}
	journalDrivers     = []string{"none", "memory", "file", "redis", "sqlite", "postgres"}
)

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// Load reads the configuration. path may be empty, in which case only
// defaults and the environment are used.
//
// Environment variables override file values. Besides FINCRAG_<SECTION>_<KEY>
// the conventional provider variables are honored: OPENAI_API_KEY,
// OPENAI_BASE_URL, NEWSAPI_API_KEY, TAVILY_API_KEY and BRAVE_API_KEY.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.normalize()
	resolveWebSearchKey(&cfg)

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.backend", "langchaingo")
	v.SetDefault("llm.model", "gpt-4o-mini")

	v.SetDefault("embedding.provider", "openai")
	v.SetDefault("embedding.model", "text-embedding-3-small")

	v.SetDefault("vectorstore.provider", "memory")
	v.SetDefault("vectorstore.chroma_url", "http://localhost:8000")

	v.SetDefault("news.provider", "newsapi")
	v.SetDefault("news.days", 7)
	v.SetDefault("news.rss_url", "")

	v.SetDefault("websearch.provider", "tavily")
	v.SetDefault("websearch.api_key", "")
	v.SetDefault("websearch.timeout", "30s")

	v.SetDefault("journal.driver", "memory")
	v.SetDefault("journal.dsn", "")

	v.SetDefault("log.level", "info")
}

func bindEnv(v *viper.Viper) error {
	bindings := map[string][]string{
		"llm.api_key":  {EnvPrefix + "_LLM_API_KEY", "OPENAI_API_KEY"},
		"llm.base_url": {EnvPrefix + "_LLM_BASE_URL", "OPENAI_BASE_URL"},
		"news.api_key": {EnvPrefix + "_NEWS_API_KEY", "NEWSAPI_API_KEY"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}
	return nil
}

// resolveWebSearchKey falls back to the provider's own variable so that a
// Brave key is never sent to Tavily or the other way around.
func resolveWebSearchKey(cfg *Config) {
	if cfg.WebSearch.APIKey != "" {
		return
	}
	switch cfg.WebSearch.Provider {
	case "tavily":
		cfg.WebSearch.APIKey = os.Getenv("TAVILY_API_KEY")
	case "brave":
		cfg.WebSearch.APIKey = os.Getenv("BRAVE_API_KEY")
	}
}

func (c *Config) normalize() {
	c.LLM.Backend = strings.ToLower(strings.TrimSpace(c.LLM.Backend))
	c.Embedding.Provider = strings.ToLower(strings.TrimSpace(c.Embedding.Provider))
	c.VectorStore.Provider = strings.ToLower(strings.TrimSpace(c.VectorStore.Provider))
	c.News.Provider = strings.ToLower(strings.TrimSpace(c.News.Provider))
	c.WebSearch.Provider = strings.ToLower(strings.TrimSpace(c.WebSearch.Provider))
	c.Journal.Driver = strings.ToLower(strings.TrimSpace(c.Journal.Driver))
}

// Validate checks that required credentials are present and every provider
// name is known. A missing web search key is valid and disables web search.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return ErrMissingLLMKey
	}
	if err := oneOf("llm.backend", c.LLM.Backend, llmBackends); err != nil {
		return err
	}
	if err := oneOf("embedding.provider", c.Embedding.Provider, embeddingProviders); err != nil {
		return err
	}
	if err := oneOf("vectorstore.provider", c.VectorStore.Provider, vectorProviders); err != nil {
		return err
	}
	if c.VectorStore.Provider == "chroma" && c.VectorStore.ChromaURL == "" {
		return fmt.Errorf("%w: vectorstore.chroma_url is required for chroma", ErrInvalid)
	}
	if err := oneOf("news.provider", c.News.Provider, newsProviders); err != nil {
		return err
	}
	if c.News.Provider == "newsapi" && c.News.APIKey == "" {
		return ErrMissingNewsKey
	}
	if c.News.Days < 0 {
		return fmt.Errorf("%w: news.days must not be negative", ErrInvalid)
	}
	if err := oneOf("websearch.provider", c.WebSearch.Provider, webProviders); err != nil {
		return err
	}
	if c.WebSearch.Timeout < 0 {
		return fmt.Errorf("%w: websearch.timeout must not be negative", ErrInvalid)
	}
	if err := oneOf("journal.driver", c.Journal.Driver, journalDrivers); err != nil {
		return err
	}
	switch c.Journal.Driver {
	case "file", "redis", "sqlite", "postgres":
		if c.Journal.DSN == "" {
			return fmt.Errorf("%w: journal.dsn is required for %s", ErrInvalid, c.Journal.Driver)
		}
	}
	if _, ok := log.ParseLevel(c.Log.Level); !ok {
		return fmt.Errorf("%w: log.level %q", ErrInvalid, c.Log.Level)
	}
	return nil
}

// WebSearchEnabled reports whether a web search credential is configured.
func (c *Config) WebSearchEnabled() bool {
	return c.WebSearch.APIKey != ""
}

// Credential is the presence of one credential at startup.
type Credential struct {
	Name     string
	Set      bool
	Required bool
}

// Credentials lists the credentials the current configuration uses.
func (c *Config) Credentials() []Credential {
	creds := []Credential{
		{Name: "OPENAI_API_KEY", Set: c.LLM.APIKey != "", Required: true},
	}
	if c.News.Provider == "newsapi" {
		creds = append(creds, Credential{Name: "NEWSAPI_API_KEY", Set: c.News.APIKey != "", Required: true})
	}
	webKey := "TAVILY_API_KEY"
	if c.WebSearch.Provider == "brave" {
		webKey = "BRAVE_API_KEY"
	}
	creds = append(creds, Credential{Name: webKey, Set: c.WebSearch.APIKey != ""})
	return creds
}

func oneOf(key, value string, allowed []string) error {
	if slices.Contains(allowed, value) {
		return nil
	}
	return fmt.Errorf("%w: %s must be one of %s, got %q", ErrInvalid, key, strings.Join(allowed, ", "), value)
}

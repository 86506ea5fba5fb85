// Package config loads the application configuration of phrasematch from a
// YAML file, with secrets taken from the environment or a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/phrasematch/ai"
	"github.com/poiesic/phrasematch/core"
	"github.com/poiesic/phrasematch/search"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// SearchConfig holds query-time parameters.
type SearchConfig struct {
	TopK              int           `yaml:"top_k"`
	Threshold         float32       `yaml:"threshold"`
	ShortQueryBound   int           `yaml:"short_query_bound"`
	ShortQueryUnit    string        `yaml:"short_query_unit"`
	KeywordExtraction bool          `yaml:"keyword_extraction"`
	ExactScore        float32       `yaml:"exact_score"`
	MaxExact          int           `yaml:"max_exact"`
	EmbedTimeout      time.Duration `yaml:"embed_timeout"`
}

// EmbeddingConfig configures the OpenAI-compatible embedding service and
// the index build that uses it.
type EmbeddingConfig struct {
	Host       string        `yaml:"host"`
	Model      string        `yaml:"model"`
	TokenEnv   string        `yaml:"token_env"`
	BatchSize  int           `yaml:"batch_size"`
	Workers    int           `yaml:"workers"` // 0 selects NumCPU/2
	MaxRetries int           `yaml:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`
	Timeout    time.Duration `yaml:"timeout"`
}

// CacheConfig locates the persistent embedding cache.
type CacheConfig struct {
	Path string `yaml:"path"` // Empty disables the cache
}

// Config is the root application configuration.
type Config struct {
	Sources           []string        `yaml:"sources"`
	PhraseColumn      string          `yaml:"phrase_column"`
	TopicColumnPrefix string          `yaml:"topic_column_prefix"`
	Search            SearchConfig    `yaml:"search"`
	Embedding         EmbeddingConfig `yaml:"embedding"`
	Cache             CacheConfig     `yaml:"cache"`
	Stemmer           string          `yaml:"stemmer"`
	SynonymGroups     [][]string      `yaml:"synonym_groups"`
}

// DefaultSynonymGroups are used when the file does not set synonym_groups.
var DefaultSynonymGroups = [][]string{
	{"симка", "симкарта", "сим", "сим карта"},
	{"кредитка", "кредитная карта", "карта"},
	{"пэй", "pay", "оплата", "пэймент"},
	{"перевод", "перевести", "отправка", "трансфер"},
}

// Default returns the configuration used for any key the file leaves out.
// It has no sources.
func Default() *Config {
	groups := make([][]string, len(DefaultSynonymGroups))
	for i, group := range DefaultSynonymGroups {
		groups[i] = append([]string(nil), group...)
	}

	return &Config{
		PhraseColumn:      "phrase",
		TopicColumnPrefix: "topics",
		Search: SearchConfig{
			TopK:              search.DefaultTopK,
			Threshold:         search.DefaultThreshold,
			ShortQueryBound:   5,
			ShortQueryUnit:    string(search.UnitChars),
			KeywordExtraction: true,
			ExactScore:        core.ExactMatchScore,
			EmbedTimeout:      search.DefaultEmbedTimeout,
		},
		Embedding: EmbeddingConfig{
			Host:       "http://localhost:11434/v1",
			Model:      "paraphrase-multilingual",
			TokenEnv:   "OPENAI_API_KEY",
			BatchSize:  64,
			MaxRetries: 3,
			RetryDelay: time.Second,
			Timeout:    30 * time.Second,
		},
		SynonymGroups: groups,
	}
}

// Load reads a config from path. Keys missing from the file keep their
// default values. If the file does not exist, returns defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(cfg)
	return cfg, nil
}

// LoadEnv loads environment variables from a .env file. An empty path
// tries ./.env and ignores its absence.
func LoadEnv(path string) error {
	if path == "" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	}
	return godotenv.Load(path)
}

// applyConfigDefaults restores defaults for keys set to empty values.
func applyConfigDefaults(cfg *Config) {
	def := Default()
	if strings.TrimSpace(cfg.PhraseColumn) == "" {
		cfg.PhraseColumn = def.PhraseColumn
	}
	if strings.TrimSpace(cfg.TopicColumnPrefix) == "" {
		cfg.TopicColumnPrefix = def.TopicColumnPrefix
	}
	if cfg.Search.ShortQueryUnit == "" {
		cfg.Search.ShortQueryUnit = def.Search.ShortQueryUnit
	}
	if cfg.Search.EmbedTimeout == 0 {
		cfg.Search.EmbedTimeout = def.Search.EmbedTimeout
	}
	if cfg.Embedding.TokenEnv == "" {
		cfg.Embedding.TokenEnv = def.Embedding.TokenEnv
	}
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = def.Embedding.BatchSize
	}
	if cfg.Embedding.MaxRetries == 0 {
		cfg.Embedding.MaxRetries = def.Embedding.MaxRetries
	}
	if cfg.Embedding.Timeout == 0 {
		cfg.Embedding.Timeout = def.Embedding.Timeout
	}
	cfg.Stemmer = strings.ToLower(strings.TrimSpace(cfg.Stemmer))
}

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(len(c.Sources) > 0, "at least one source is required")
	for i, source := range c.Sources {
		check(strings.TrimSpace(source) != "", "sources[%d] is blank", i)
	}
	check(c.Search.TopK > 0, "search.top_k must be positive, got %d", c.Search.TopK)
	check(c.Search.Threshold >= 0 && c.Search.Threshold <= 1, "search.threshold must be within [0, 1], got %v", c.Search.Threshold)
	check(c.Search.ShortQueryBound > 0, "search.short_query_bound must be positive, got %d", c.Search.ShortQueryBound)
	unit := search.LengthUnit(c.Search.ShortQueryUnit)
	check(unit == search.UnitChars || unit == search.UnitTokens,
		"search.short_query_unit must be %q or %q, got %q", search.UnitChars, search.UnitTokens, c.Search.ShortQueryUnit)
	check(c.Search.ExactScore > 0 && c.Search.ExactScore <= 1, "search.exact_score must be within (0, 1], got %v", c.Search.ExactScore)
	check(c.Search.MaxExact >= 0, "search.max_exact cannot be negative")
	check(c.Search.EmbedTimeout > 0, "search.embed_timeout must be positive")
	check(strings.TrimSpace(c.Embedding.Host) != "", "embedding.host is required")
	check(strings.TrimSpace(c.Embedding.Model) != "", "embedding.model is required")
	check(c.Embedding.BatchSize > 0, "embedding.batch_size must be positive, got %d", c.Embedding.BatchSize)
	check(c.Embedding.Workers >= 0, "embedding.workers cannot be negative")
	check(c.Embedding.MaxRetries > 0, "embedding.max_retries must be positive, got %d", c.Embedding.MaxRetries)
	check(c.Embedding.RetryDelay >= 0, "embedding.retry_delay cannot be negative")
	for i, group := range c.Groups() {
		if err := core.ValidateSynonymGroup(group); err != nil {
			errs = append(errs, fmt.Errorf("synonym_groups[%d]: %w", i, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Groups returns the configured synonym groups.
func (c *Config) Groups() []core.SynonymGroup {
	groups := make([]core.SynonymGroup, len(c.SynonymGroups))
	for i, group := range c.SynonymGroups {
		groups[i] = core.SynonymGroup(group)
	}
	return groups
}

// KeywordRule returns the exact-match qualification rule.
func (c *Config) KeywordRule() search.KeywordRule {
	return search.KeywordRule{
		Bound:           c.Search.ShortQueryBound,
		Unit:            search.LengthUnit(c.Search.ShortQueryUnit),
		ExtractKeywords: c.Search.KeywordExtraction,
	}
}

// SearchOptions returns the searcher options described by the config.
func (c *Config) SearchOptions() []search.Option {
	return []search.Option{
		search.WithTopK(c.Search.TopK),
		search.WithThreshold(c.Search.Threshold),
		search.WithKeywordRule(c.KeywordRule()),
		search.WithExactScore(c.Search.ExactScore),
		search.WithMaxExact(c.Search.MaxExact),
		search.WithEmbedTimeout(c.Search.EmbedTimeout),
	}
}

// AIConfig returns the embedding client configuration. The token is read
// from the environment variable named by embedding.token_env.
func (c *Config) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithHost(c.Embedding.Host),
		ai.WithModel(c.Embedding.Model),
		ai.WithToken(os.Getenv(c.Embedding.TokenEnv)),
		ai.WithBatchSize(c.Embedding.BatchSize),
		ai.WithTimeout(c.Embedding.Timeout),
	)
}

// PoolSize returns the number of concurrent encoding workers.
func (c *Config) PoolSize() int {
	if c.Embedding.Workers > 0 {
		return c.Embedding.Workers
	}
	return max(runtime.NumCPU()/2, 1)
}

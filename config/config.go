package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"github.com/tieubaoca/docchat-be/types"
	"github.com/tieubaoca/docchat-be/utils"
)

type Config struct {
	Port                string              `mapstructure:"port"`
	UploadDir           string              `mapstructure:"upload_dir"`
	MaxUploadSize       int64               `mapstructure:"max_upload_size"`
	DefaultOwner        string              `mapstructure:"default_owner"`
	Log                 LogConfig           `mapstructure:"log"`
	Pipeline            PipelineConfig      `mapstructure:"pipeline"`
	Extractor           ExtractorConfig     `mapstructure:"extractor"`
	Store               StoreConfig         `mapstructure:"store"`
	WeaviateStoreConfig WeaviateStoreConfig `mapstructure:"weaviate"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type PipelineConfig struct {
	Sectioned      bool          `mapstructure:"sectioned"`
	MaxChunkLength int           `mapstructure:"max_chunk_length"`
	Heading        HeadingConfig `mapstructure:"heading"`
}

type HeadingConfig struct {
	MinLength int    `mapstructure:"min_length"`
	MaxLength int    `mapstructure:"max_length"`
	Forbidden string `mapstructure:"forbidden"`
}

type ExtractorConfig struct {
	Backend       string `mapstructure:"backend"`
	PdftotextPath string `mapstructure:"pdftotext_path"`
}

type StoreConfig struct {
	Driver        string `mapstructure:"driver"`
	SQLitePath    string `mapstructure:"sqlite_path"`
	MongoURI      string `mapstructure:"mongo_uri"`
	MongoDatabase string `mapstructure:"mongo_database"`
}

type WeaviateStoreConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	APIKey   string `mapstructure:"api_key"`
	Text2Vec string `mapstructure:"text2vec"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("upload_dir", "uploads")
	v.SetDefault("max_upload_size", 10<<20)
	v.SetDefault("default_owner", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("pipeline.sectioned", true)
	v.SetDefault("pipeline.max_chunk_length", 400)
	v.SetDefault("pipeline.heading.min_length", 2)
	v.SetDefault("pipeline.heading.max_length", 50)
	v.SetDefault("pipeline.heading.forbidden", ".,")
	v.SetDefault("extractor.backend", "ledongthuc")
	v.SetDefault("extractor.pdftotext_path", "pdftotext")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "docchat.db")
	v.SetDefault("store.mongo_uri", "")
	v.SetDefault("store.mongo_database", "docchat")
	v.SetDefault("weaviate.enabled", false)
	v.SetDefault("weaviate.host", "")
	v.SetDefault("weaviate.api_key", "")
	v.SetDefault("weaviate.text2vec", "text2vec-transformers")
}

// LoadConfig reads configPath (yaml) and DOCCHAT_* environment variables,
// e.g. DOCCHAT_STORE_DRIVER overrides store.driver. With an empty configPath
// only defaults and the environment are used.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	v.SetEnvPrefix("DOCCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate reports every invalid setting, each wrapping utils.ErrConfiguration.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{utils.ErrConfiguration}, args...)...))
	}

	if c.Pipeline.MaxChunkLength <= 0 {
		invalid("pipeline.max_chunk_length must be positive, got %d", c.Pipeline.MaxChunkLength)
	}
	if c.MaxUploadSize <= 0 {
		invalid("max_upload_size must be positive, got %d", c.MaxUploadSize)
	}
	switch c.Extractor.Backend {
	case "ledongthuc", "pdftotext":
	default:
		invalid("unknown extractor.backend %q", c.Extractor.Backend)
	}
	switch c.Store.Driver {
	case "sqlite":
		if c.Store.SQLitePath == "" {
			invalid("store.sqlite_path is required for the sqlite driver")
		}
	case "mongo":
		if c.Store.MongoURI == "" {
			invalid("store.mongo_uri is required for the mongo driver")
		}
	default:
		invalid("unknown store.driver %q", c.Store.Driver)
	}
	if c.WeaviateStoreConfig.Enabled && c.WeaviateStoreConfig.Host == "" {
		invalid("weaviate.host is required when weaviate is enabled")
	}

	return errors.Join(errs...)
}

// PipelineDefaults converts the pipeline section to the pipeline's own config type.
func (c *Config) PipelineDefaults() types.PipelineConfig {
	return types.PipelineConfig{
		Sectioned:      c.Pipeline.Sectioned,
		MaxChunkLength: c.Pipeline.MaxChunkLength,
		Heading: types.HeadingConfig{
			MinLength: c.Pipeline.Heading.MinLength,
			MaxLength: c.Pipeline.Heading.MaxLength,
			Forbidden: c.Pipeline.Heading.Forbidden,
		},
	}
}

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tieubaoca/docchat-be/utils"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.EqualValues(t, 10<<20, cfg.MaxUploadSize)
	assert.True(t, cfg.Pipeline.Sectioned)
	assert.Equal(t, 400, cfg.Pipeline.MaxChunkLength)
	assert.Equal(t, ".,", cfg.Pipeline.Heading.Forbidden)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.False(t, cfg.WeaviateStoreConfig.Enabled)
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, `
port: "9090"
default_owner: tester
pipeline:
  sectioned: false
  max_chunk_length: 250
  heading:
    max_length: 40
store:
  driver: mongo
  mongo_uri: mongodb://localhost:27017/?replicaSet=rs0
weaviate:
  enabled: true
  host: localhost:8081
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "tester", cfg.DefaultOwner)
	assert.Equal(t, "mongo", cfg.Store.Driver)
	assert.Equal(t, "docchat", cfg.Store.MongoDatabase)
	assert.Equal(t, "localhost:8081", cfg.WeaviateStoreConfig.Host)

	pipeline := cfg.PipelineDefaults()
	assert.False(t, pipeline.Sectioned)
	assert.Equal(t, 250, pipeline.MaxChunkLength)
	assert.Equal(t, 40, pipeline.Heading.MaxLength)
	assert.Equal(t, 2, pipeline.Heading.MinLength)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("DOCCHAT_PIPELINE_MAX_CHUNK_LENGTH", "120")
	t.Setenv("DOCCHAT_DEFAULT_OWNER", "env-owner")

	cfg, err := LoadConfig(writeConfig(t, "pipeline:\n  max_chunk_length: 300\n"))
	require.NoError(t, err)
	assert.Equal(t, 120, cfg.Pipeline.MaxChunkLength)
	assert.Equal(t, "env-owner", cfg.DefaultOwner)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigInvalid(t *testing.T) {
	path := writeConfig(t, `
max_upload_size: 0
pipeline:
  max_chunk_length: -1
extractor:
  backend: ocr
store:
  driver: mongo
weaviate:
  enabled: true
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrConfiguration))
	for _, want := range []string{"max_chunk_length", "max_upload_size", "extractor.backend", "store.mongo_uri", "weaviate.host"} {
		assert.Contains(t, err.Error(), want)
	}
}

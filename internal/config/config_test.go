package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "png", cfg.Crop.Format)
	assert.Equal(t, BackendUpload, cfg.Recognizer.Backend)
	assert.Equal(t, time.Duration(0), cfg.UploadTimeout())
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := Default()
	cfg.Crop.Format = "webp"
	cfg.Upload.Timeout = 15

	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
	assert.Equal(t, 15*time.Second, loaded.UploadTimeout())
}

func TestLoadFromFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"upload":{"url":"https://plates.example.com/upload"}}`), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "https://plates.example.com/upload", cfg.Upload.URL)
	assert.Equal(t, 0.01, cfg.Selection.MinWidth)
	assert.Equal(t, "png", cfg.Crop.Format)
}

func TestLoadFromFileErrors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0644))
	_, err = LoadFromFile(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("PLATE_UPLOAD_URL", "http://recognizer:9000/upload")
	t.Setenv("PLATE_UPLOAD_TIMEOUT", "30")
	t.Setenv("PLATE_BACKEND", BackendOllama)
	t.Setenv("PLATE_OLLAMA_URL", "http://gpu-box:11434")
	t.Setenv("PLATE_OLLAMA_MODEL", "llava")
	t.Setenv("PLATE_LLAMACPP_URL", "http://gpu-box:8081")
	t.Setenv("PLATE_LLAMACPP_MODEL", "minicpm-v")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, "http://recognizer:9000/upload", cfg.Upload.URL)
	assert.Equal(t, 30, cfg.Upload.Timeout)
	assert.Equal(t, BackendOllama, cfg.Recognizer.Backend)
	assert.Equal(t, "http://gpu-box:11434", cfg.Recognizer.OllamaURL)
	assert.Equal(t, "llava", cfg.Recognizer.OllamaModel)
	assert.Equal(t, "http://gpu-box:8081", cfg.Recognizer.LlamaCppURL)
	assert.Equal(t, "minicpm-v", cfg.Recognizer.LlamaCppModel)
	assert.NoError(t, cfg.Validate())
}

func TestApplyEnvBadTimeout(t *testing.T) {
	t.Setenv("PLATE_UPLOAD_TIMEOUT", "soon")
	assert.Error(t, Default().ApplyEnv())
}

func TestLoadWithoutFile(t *testing.T) {
	t.Setenv("PLATE_OLLAMA_MODEL", "from-env")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Recognizer.OllamaModel)
}

func TestLoadReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"crop":{"format":"webp"}}`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "webp", cfg.Crop.Format)

	// a directory is not a config file
	cfg, err = Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "png", cfg.Crop.Format)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative threshold", func(c *Config) { c.Selection.MinWidth = -0.1 }},
		{"threshold too large", func(c *Config) { c.Selection.MinHeight = 1 }},
		{"lossy format", func(c *Config) { c.Crop.Format = "jpg" }},
		{"quality", func(c *Config) { c.Crop.Quality = 0 }},
		{"timeout", func(c *Config) { c.Upload.Timeout = -1 }},
		{"upload url", func(c *Config) { c.Upload.URL = "ftp://host/upload" }},
		{"backend", func(c *Config) { c.Recognizer.Backend = "tesseract" }},
		{"llamacpp url", func(c *Config) {
			c.Recognizer.Backend = BackendLlamaCpp
			c.Recognizer.LlamaCppURL = ""
		}},
		{"ollama url", func(c *Config) {
			c.Recognizer.Backend = BackendOllama
			c.Recognizer.OllamaURL = "localhost"
		}},
		{"preview size", func(c *Config) { c.Output.PreviewWidth = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestGetConfigPath(t *testing.T) {
	assert.Contains(t, GetConfigPath(), "config.json")
}

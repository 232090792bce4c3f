package config

import (
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/menta2k/plate-cropper/internal/utils"
)

// Backends accepted by Recognizer.Backend
const (
	BackendUpload   = "upload"
	BackendOllama   = "ollama"
	BackendLlamaCpp = "llamacpp"
)

// Config holds the application configuration
type Config struct {
	Selection  SelectionConfig  `json:"selection"`
	Crop       CropConfig       `json:"crop"`
	Upload     UploadConfig     `json:"upload"`
	Recognizer RecognizerConfig `json:"recognizer"`
	Output     OutputConfig     `json:"output"`
}

// SelectionConfig holds the minimum size a finalized selection must exceed
type SelectionConfig struct {
	MinWidth  float64 `json:"min_width"`
	MinHeight float64 `json:"min_height"`
}

// CropConfig holds configuration for crop encoding
type CropConfig struct {
	Format  string `json:"format"`
	Quality int    `json:"quality"`
}

// UploadConfig holds configuration for the recognition endpoint
type UploadConfig struct {
	URL string `json:"url"`
	// Timeout in seconds, 0 waits indefinitely
	Timeout int `json:"timeout"`
}

// RecognizerConfig selects the recognition backend
type RecognizerConfig struct {
	Backend       string `json:"backend"`
	OllamaURL     string `json:"ollama_url"`
	OllamaModel   string `json:"ollama_model"`
	LlamaCppURL   string `json:"llamacpp_url"`
	LlamaCppModel string `json:"llamacpp_model"`
}

// OutputConfig holds configuration for output generation
type OutputConfig struct {
	OutputDir     string `json:"output_dir"`
	PreviewWidth  int    `json:"preview_width"`
	PreviewHeight int    `json:"preview_height"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Selection: SelectionConfig{
			MinWidth:  0.01,
			MinHeight: 0.01,
		},
		Crop: CropConfig{
			Format:  "png",
			Quality: 100,
		},
		Upload: UploadConfig{
			URL:     "http://localhost:8080/api/plates/upload",
			Timeout: 0,
		},
		Recognizer: RecognizerConfig{
			Backend:     BackendUpload,
			OllamaURL:   "http://localhost:11434/api/chat",
			OllamaModel: "openbmb/minicpm-v4.5",
			LlamaCppURL: "http://localhost:8081",
		},
		Output: OutputConfig{
			OutputDir:     "./out",
			PreviewWidth:  800,
			PreviewHeight: 600,
		},
	}
}

// Load reads the config file when present, then applies .env and environment overrides
func Load(filename string) (*Config, error) {
	cfg := Default()
	if filename != "" && utils.FileExists(filename) {
		loaded, err := LoadFromFile(filename)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("could not load .env: %v", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// LoadFromFile loads configuration from a JSON file. Missing fields keep their defaults.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// ApplyEnv overrides fields from PLATE_* environment variables
func (c *Config) ApplyEnv() error {
	if v, ok := os.LookupEnv("PLATE_UPLOAD_URL"); ok {
		c.Upload.URL = v
	}
	if v, ok := os.LookupEnv("PLATE_UPLOAD_TIMEOUT"); ok {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PLATE_UPLOAD_TIMEOUT: %w", err)
		}
		c.Upload.Timeout = secs
	}
	if v, ok := os.LookupEnv("PLATE_BACKEND"); ok {
		c.Recognizer.Backend = v
	}
	if v, ok := os.LookupEnv("PLATE_OLLAMA_URL"); ok {
		c.Recognizer.OllamaURL = v
	}
	if v, ok := os.LookupEnv("PLATE_OLLAMA_MODEL"); ok {
		c.Recognizer.OllamaModel = v
	}
	if v, ok := os.LookupEnv("PLATE_LLAMACPP_URL"); ok {
		c.Recognizer.LlamaCppURL = v
	}
	if v, ok := os.LookupEnv("PLATE_LLAMACPP_MODEL"); ok {
		c.Recognizer.LlamaCppModel = v
	}
	return nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Selection.MinWidth < 0 || c.Selection.MinWidth >= 1 {
		return fmt.Errorf("selection.min_width must be in [0, 1)")
	}

	if c.Selection.MinHeight < 0 || c.Selection.MinHeight >= 1 {
		return fmt.Errorf("selection.min_height must be in [0, 1)")
	}

	if c.Crop.Format != "png" && c.Crop.Format != "webp" {
		return fmt.Errorf("crop.format must be png or webp")
	}

	if c.Crop.Quality < 1 || c.Crop.Quality > 100 {
		return fmt.Errorf("crop.quality must be between 1 and 100")
	}

	if c.Upload.Timeout < 0 {
		return fmt.Errorf("upload.timeout cannot be negative")
	}

	switch c.Recognizer.Backend {
	case BackendUpload:
		if err := checkURL(c.Upload.URL); err != nil {
			return fmt.Errorf("upload.url: %w", err)
		}
	case BackendOllama:
		if err := checkURL(c.Recognizer.OllamaURL); err != nil {
			return fmt.Errorf("recognizer.ollama_url: %w", err)
		}
	case BackendLlamaCpp:
		if err := checkURL(c.Recognizer.LlamaCppURL); err != nil {
			return fmt.Errorf("recognizer.llamacpp_url: %w", err)
		}
	default:
		return fmt.Errorf("recognizer.backend must be one of %q, %q, %q", BackendUpload, BackendOllama, BackendLlamaCpp)
	}

	if c.Output.PreviewWidth < 1 || c.Output.PreviewHeight < 1 {
		return fmt.Errorf("output preview size must be positive")
	}

	return nil
}

// UploadTimeout returns the upload timeout as a duration
func (c *Config) UploadTimeout() time.Duration {
	return time.Duration(c.Upload.Timeout) * time.Second
}

func checkURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "plate-cropper", "config.json")
}

package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LocalsFile is the optional overlay read next to the main config file. It
// holds machine-local values (storage roots, keys) kept out of version control.
const LocalsFile = "locals.yaml"

// LibraryConfig locates the bibliography and the storage root of its files.
type LibraryConfig struct {
	Path    string `yaml:"path"`
	Storage string `yaml:"storage"`
	Source  string `yaml:"source"`
}

// DataConfig locates the cache artifacts, index and vocabulary.
type DataConfig struct {
	Path           string `yaml:"path"`
	IndexPath      string `yaml:"index_path"`
	VocabularyPath string `yaml:"vocabulary_path"`
	EmbeddingsPath string `yaml:"embeddings_path"`
}

// TaggerConfig configures the HTTP part-of-speech tagging service.
type TaggerConfig struct {
	URL         string `yaml:"url"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible sentence embedding backend.
type OpenAIEmbedderConfig struct {
	BaseURL           string  `yaml:"base_url"`
	APIKeyEnv         string  `yaml:"api_key_env"`
	BatchSize         int     `yaml:"batch_size"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// EncoderEmbedderConfig configures the pretrained encoder backend.
type EncoderEmbedderConfig struct {
	URL         string `yaml:"url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	BatchSize   int    `yaml:"batch_size"`
}

// EmbedderConfig selects the embedding backend by model identifier.
type EmbedderConfig struct {
	Model   string                 `yaml:"model"`
	OpenAI  *OpenAIEmbedderConfig  `yaml:"openai,omitempty"`
	Encoder *EncoderEmbedderConfig `yaml:"encoder,omitempty"`
}

// CorpusConfig configures corpus construction.
type CorpusConfig struct {
	Granularity     string `yaml:"granularity"`
	StoplistPath    string `yaml:"stoplist_path"`
	RequireNounVerb bool   `yaml:"require_noun_verb"`
}

// PipelineConfig configures batch processing.
type PipelineConfig struct {
	Workers int `yaml:"workers"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Library  LibraryConfig  `yaml:"library"`
	Data     DataConfig     `yaml:"data"`
	Tagger   TaggerConfig   `yaml:"tagger"`
	Embedder EmbedderConfig `yaml:"embedder"`
	Corpus   CorpusConfig   `yaml:"corpus"`
	Pipeline PipelineConfig `yaml:"pipeline"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
// A locals.yaml next to the file is applied on top when present.
func Load(path string) (*AppConfig, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := overlay(cfg, filepath.Join(filepath.Dir(path), LocalsFile)); err != nil {
		return nil, err
	}
	applyConfigDefaults(cfg)
	return cfg, nil
}

// overlay decodes the file at path into cfg, keeping values it does not set.
func overlay(cfg *AppConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// LoadDefault tries ./config.yaml first, then ~/.config/bibsent/config.yaml.
// If neither exists, it writes defaults to ~/.config/bibsent/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	applyConfigDefaults(cfg)
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
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
	return filepath.Join(home, ".config", "bibsent", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		Library:  LibraryConfig{Path: "library.bib", Source: "fulltext"},
		Data:     DataConfig{Path: "data"},
		Tagger:   TaggerConfig{URL: "http://localhost:8000/tag", Model: "en_core_web_trf"},
		Embedder: EmbedderConfig{Model: "tfidf"},
		Corpus:   CorpusConfig{Granularity: "fulltext", RequireNounVerb: true},
		Pipeline: PipelineConfig{Workers: 4},
	}
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Data.Path == "" {
		cfg.Data.Path = "data"
	}
	if cfg.Data.IndexPath == "" {
		cfg.Data.IndexPath = filepath.Join(cfg.Data.Path, "index.json")
	}
	if cfg.Data.VocabularyPath == "" {
		cfg.Data.VocabularyPath = filepath.Join(cfg.Data.Path, "vocabulary.db")
	}
	if cfg.Data.EmbeddingsPath == "" {
		cfg.Data.EmbeddingsPath = filepath.Join(cfg.Data.Path, "embeddings")
	}
	if cfg.Library.Source == "" {
		cfg.Library.Source = "fulltext"
	}
	if cfg.Tagger.TimeoutSecs == 0 {
		cfg.Tagger.TimeoutSecs = 60
	}
	if cfg.Embedder.Model == "" {
		cfg.Embedder.Model = "tfidf"
	}
	if cfg.Corpus.Granularity == "" {
		cfg.Corpus.Granularity = "fulltext"
	}
	if cfg.Pipeline.Workers <= 0 {
		cfg.Pipeline.Workers = 1
	}
	if o := cfg.Embedder.OpenAI; o != nil {
		if o.BaseURL == "" {
			o.BaseURL = "https://api.openai.com/v1"
		}
		if o.APIKeyEnv == "" {
			o.APIKeyEnv = "OPENAI_API_KEY"
		}
		if o.BatchSize == 0 {
			o.BatchSize = 64
		}
		if o.RequestsPerSecond == 0 {
			o.RequestsPerSecond = 2
		}
	}
	if e := cfg.Embedder.Encoder; e != nil {
		if e.APIKeyEnv == "" {
			e.APIKeyEnv = "HF_API_TOKEN"
		}
		if e.TimeoutSecs == 0 {
			e.TimeoutSecs = 120
		}
		if e.BatchSize == 0 {
			e.BatchSize = 16
		}
	}
}

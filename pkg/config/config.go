package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Library roots to scan for images
	Roots []string `yaml:"roots"`

	// Scanning
	MaxWorkers     int      `yaml:"max_workers"`
	ScanRecursive  bool     `yaml:"scan_recursive"`
	ComputeHashes  bool     `yaml:"compute_hashes"`
	ExcludePrefix  []string `yaml:"exclude_prefix"`
	GenerationKeys []string `yaml:"generation_keys"`

	// Listing
	DefaultSort string `yaml:"default_sort"`
	ReverseSort bool   `yaml:"reverse_sort"`
	MaxResults  int    `yaml:"max_results"`

	// UI Settings
	DisplayDateFormat  string `yaml:"display_date_format"`
	ColorTheme         string `yaml:"color_theme"`
	SyntaxHighlighting bool   `yaml:"syntax_highlighting"`
	TableWidth         int    `yaml:"table_width"`
	Viewer             string `yaml:"viewer"`

	// Similarity
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	HashAlgorithm       string  `yaml:"hash_algorithm"`

	// Thumbnails
	ThumbnailSize int `yaml:"thumbnail_size"`

	// Daemon
	WatchDebounceMS int `yaml:"watch_debounce_ms"`

	// Metadata persistence
	WriteRetryDelayMS int  `yaml:"write_retry_delay_ms"`
	EnableReadCache   bool `yaml:"enable_read_cache"`
}

// DefaultConfig returns a Config struct with default values
func DefaultConfig() *Config {
	return &Config{
		Roots:               []string{},
		MaxWorkers:          4,
		ScanRecursive:       true,
		ComputeHashes:       true,
		ExcludePrefix:       []string{".", "~"},
		GenerationKeys:      []string{"invokeai_metadata", "sd-metadata", "generation_params", "parameters"},
		DefaultSort:         "modified",
		ReverseSort:         false,
		MaxResults:          0,
		DisplayDateFormat:   "2006-01-02",
		ColorTheme:          "auto",
		SyntaxHighlighting:  true,
		TableWidth:          0,
		Viewer:              "",
		SimilarityThreshold: 0.90,
		HashAlgorithm:       "perceptual",
		ThumbnailSize:       256,
		WatchDebounceMS:     500,
		WriteRetryDelayMS:   100,
		EnableReadCache:     true,
	}
}

// Load reads configuration from the specified file path
func Load(path string) (*Config, error) {
	// Start with default config
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		// If file doesn't exist, return default config (not an error)
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply defaults for essential values if missing
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 4
	}
	if cfg.DefaultSort == "" {
		cfg.DefaultSort = "modified"
	}
	if cfg.DisplayDateFormat == "" {
		cfg.DisplayDateFormat = "2006-01-02"
	}
	if len(cfg.GenerationKeys) == 0 {
		cfg.GenerationKeys = DefaultConfig().GenerationKeys
	}
	if cfg.SimilarityThreshold <= 0 || cfg.SimilarityThreshold > 1 {
		cfg.SimilarityThreshold = 0.90
	}
	if cfg.ThumbnailSize <= 0 {
		cfg.ThumbnailSize = 256
	}
	if cfg.WriteRetryDelayMS <= 0 {
		cfg.WriteRetryDelayMS = 100
	}

	if !isValidSort(cfg.DefaultSort) {
		cfg.DefaultSort = "modified"
	}
	if !isValidHashAlgorithm(cfg.HashAlgorithm) {
		cfg.HashAlgorithm = "perceptual"
	}

	return cfg, nil
}

// Save persists the current configuration to the specified file path
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// isValidSort checks if the sort key is valid
func isValidSort(sortBy string) bool {
	validSorts := []string{"modified", "name", "rating", "size"}
	for _, valid := range validSorts {
		if sortBy == valid {
			return true
		}
	}
	return false
}

func isValidHashAlgorithm(algo string) bool {
	validAlgos := []string{"average", "difference", "perceptual"}
	for _, valid := range validAlgos {
		if algo == valid {
			return true
		}
	}
	return false
}

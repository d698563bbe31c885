package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig() returned nil")
	}

	if cfg.MaxWorkers != 4 {
		t.Errorf("expected default MaxWorkers=4, got %d", cfg.MaxWorkers)
	}

	if cfg.DefaultSort != "modified" {
		t.Errorf("expected default DefaultSort='modified', got %q", cfg.DefaultSort)
	}

	if !cfg.ScanRecursive {
		t.Error("expected default ScanRecursive=true")
	}

	if cfg.SimilarityThreshold != 0.90 {
		t.Errorf("expected default SimilarityThreshold=0.90, got %f", cfg.SimilarityThreshold)
	}

	if len(cfg.GenerationKeys) == 0 {
		t.Error("expected default GenerationKeys to be populated")
	}
}

func TestLoad_NonExistentFile(t *testing.T) {
	// Loading a non-existent file should return default config
	cfg, err := Load("/nonexistent/path/config.yaml")

	if err != nil {
		t.Fatalf("unexpected error loading non-existent file: %v", err)
	}

	if cfg == nil {
		t.Fatal("Load() returned nil config")
	}

	if cfg.MaxWorkers != 4 {
		t.Errorf("expected default MaxWorkers=4, got %d", cfg.MaxWorkers)
	}
}

func TestSave_And_Load(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	cfg := &Config{
		Roots:               []string{"/images/generated"},
		MaxWorkers:          8,
		DefaultSort:         "rating",
		SimilarityThreshold: 0.85,
		HashAlgorithm:       "difference",
		ThumbnailSize:       128,
	}

	err := cfg.Save(configPath)
	if err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("config file was not created")
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if len(loaded.Roots) != 1 || loaded.Roots[0] != "/images/generated" {
		t.Errorf("expected Roots=['/images/generated'], got %v", loaded.Roots)
	}
	if loaded.MaxWorkers != 8 {
		t.Errorf("expected MaxWorkers=8, got %d", loaded.MaxWorkers)
	}
	if loaded.DefaultSort != "rating" {
		t.Errorf("expected DefaultSort='rating', got %q", loaded.DefaultSort)
	}
	if loaded.SimilarityThreshold != 0.85 {
		t.Errorf("expected SimilarityThreshold=0.85, got %f", loaded.SimilarityThreshold)
	}
	if loaded.HashAlgorithm != "difference" {
		t.Errorf("expected HashAlgorithm='difference', got %q", loaded.HashAlgorithm)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	yaml := []byte("default_sort: bogus\nhash_algorithm: md5\nsimilarity_threshold: 3.5\nmax_workers: -1\n")
	if err := os.WriteFile(configPath, yaml, 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.DefaultSort != "modified" {
		t.Errorf("expected invalid sort to fall back to 'modified', got %q", cfg.DefaultSort)
	}
	if cfg.HashAlgorithm != "perceptual" {
		t.Errorf("expected invalid hash algorithm to fall back to 'perceptual', got %q", cfg.HashAlgorithm)
	}
	if cfg.SimilarityThreshold != 0.90 {
		t.Errorf("expected out-of-range threshold to fall back to 0.90, got %f", cfg.SimilarityThreshold)
	}
	if cfg.MaxWorkers != 4 {
		t.Errorf("expected invalid MaxWorkers to fall back to 4, got %d", cfg.MaxWorkers)
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	if err := os.WriteFile(configPath, []byte("roots: [unclosed"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("expected error for malformed YAML, got nil")
	}
}

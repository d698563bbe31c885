package library

import (
	"fmt"
	"os"
	"path/filepath"
)

// Library represents the managed state directory for px. Image files stay
// wherever the user keeps them; this directory only holds derived data
// (index database, thumbnails, generated reports) and the config file.
type Library struct {
	RootPath   string
	ThumbsPath string
	CachePath  string
	ConfigPath string
}

// New creates a new Library instance with XDG-compliant paths.
// The PX_LIBRARY environment variable overrides the root location.
func New() (*Library, error) {
	rootPath, rootErr := getLibraryRoot()
	configPath, configErr := getConfigPath()
	if rootErr != nil {
		return nil, fmt.Errorf("failed to determine library root: %w", rootErr)
	}
	if configErr != nil {
		return nil, fmt.Errorf("failed to determine config path: %w", configErr)
	}

	lib := &Library{
		RootPath:   rootPath,
		ThumbsPath: filepath.Join(rootPath, "thumbs"),
		CachePath:  filepath.Join(rootPath, "cache"),
		ConfigPath: configPath,
	}

	return lib, nil
}

// getLibraryRoot returns the library root directory path
// Follows XDG Base Directory specification on Unix and uses AppData on Windows
func getLibraryRoot() (string, error) {
	if override := os.Getenv("PX_LIBRARY"); override != "" {
		return override, nil
	}

	if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
		return filepath.Join(xdgDataHome, "px"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	// Check if we're on Windows by looking for APPDATA
	if appData := os.Getenv("APPDATA"); appData != "" {
		return filepath.Join(appData, "px"), nil
	}

	return filepath.Join(homeDir, ".local", "share", "px"), nil
}

func getConfigPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "px", "config.yaml"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	if appData := os.Getenv("APPDATA"); appData != "" {
		return filepath.Join(appData, "px-config", "config.yaml"), nil
	}

	return filepath.Join(homeDir, ".config", "px", "config.yaml"), nil
}

// Initialize creates the library directory structure if it doesn't exist
func (l *Library) Initialize() error {
	directories := []string{
		l.RootPath,
		l.ThumbsPath,
		l.CachePath,
	}

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// Exists checks if the library has been initialized
func (l *Library) Exists() bool {
	info, err := os.Stat(l.RootPath)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// DatabasePath returns the path to the index database
func (l *Library) DatabasePath() string {
	return filepath.Join(l.RootPath, "index.db")
}

// GetThumbPath returns the full path for a cached thumbnail
func (l *Library) GetThumbPath(filename string) string {
	return filepath.Join(l.ThumbsPath, filename)
}

// GetCachePath returns the full path for a cached file
func (l *Library) GetCachePath(filename string) string {
	return filepath.Join(l.CachePath, filename)
}

// ReportPath returns the output path for a generated chart report
func (l *Library) ReportPath(filename string) string {
	return filepath.Join(l.CachePath, filename)
}

// CleanCache removes all files in the cache directory
func (l *Library) CleanCache() error {
	entries, err := os.ReadDir(l.CachePath)
	if err != nil {
		return fmt.Errorf("failed to read cache directory: %w", err)
	}

	for _, entry := range entries {
		path := filepath.Join(l.CachePath, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}

	return nil
}

// CleanThumbs removes all cached thumbnails
func (l *Library) CleanThumbs() error {
	entries, err := os.ReadDir(l.ThumbsPath)
	if err != nil {
		return fmt.Errorf("failed to read thumbs directory: %w", err)
	}

	for _, entry := range entries {
		path := filepath.Join(l.ThumbsPath, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}

	return nil
}

package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Paths contains the resolved file system locations used by the application
type Paths struct {
	BaseDir  string
	DataDir  string
	CacheDir string
	LogsDir  string
}

// ResolvePaths makes every configured path absolute against baseDir.
// An empty baseDir means the current working directory.
func (c *Config) ResolvePaths(baseDir string) (*Paths, error) {
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		baseDir = wd
	}

	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	return &Paths{
		BaseDir:  abs,
		DataDir:  resolve(abs, c.Paths.DataDir),
		CacheDir: resolve(abs, c.Paths.CacheDir),
		LogsDir:  resolve(abs, c.Paths.LogsDir),
	}, nil
}

func resolve(base, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(base, p)
}

// DirectoryCacheFile returns the snapshot file of an exchange directory
func (p *Paths) DirectoryCacheFile(exchange string) string {
	return filepath.Join(p.CacheDir, "companies_"+strings.ToLower(exchange)+".json")
}

// EnsureDirectories creates all required directories
func (p *Paths) EnsureDirectories() error {
	dirs := []string{p.DataDir, p.CacheDir, p.LogsDir}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// LogPathResolution logs the resolved paths for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	logger.Debug("paths resolved",
		slog.String("base_dir", p.BaseDir),
		slog.String("data_dir", p.DataDir),
		slog.String("cache_dir", p.CacheDir),
		slog.String("logs_dir", p.LogsDir))
}

// Resolve makes a configured path absolute against the base directory
func (p *Paths) Resolve(path string) string {
	return resolve(p.BaseDir, path)
}

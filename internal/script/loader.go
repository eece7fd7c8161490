package script

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// scriptExt is the recognized script file extension.
const scriptExt = ".star"

// LoadResult summarizes a directory load.
type LoadResult struct {
	Loaded int
	Errors []LoadFileError
}

// LoadFileError records one per-file load failure.
type LoadFileError struct {
	File    string
	Message string
}

// DirLoader bulk-loads every script in a flat directory into a Service.
// One malformed script must not disable the other valid ones, so per-file
// failures are recorded and the load continues.
type DirLoader struct {
	service *Service
	logger  *slog.Logger
}

// NewDirLoader creates a DirLoader.
func NewDirLoader(service *Service, logger *slog.Logger) *DirLoader {
	return &DirLoader{service: service, logger: logger}
}

// LoadDir loads all *.star files found directly in dir (no recursion).
// A missing directory means "no scripts configured" and succeeds with zero
// registrations. An error is returned only if enumeration itself fails.
func (l *DirLoader) LoadDir(dir string) (LoadResult, error) {
	return l.walk(dir, l.service.LoadFile)
}

// Reload re-loads every script in dir, replacing existing registrations.
// Definitions whose files were removed stay registered until the process
// restarts; replacement is the only live mutation.
func (l *DirLoader) Reload(dir string) (LoadResult, error) {
	return l.walk(dir, l.service.ReloadFile)
}

func (l *DirLoader) walk(dir string, loadFile func(string) error) (LoadResult, error) {
	var result LoadResult

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.logger.Info("script directory does not exist, nothing to load",
				slog.String("dir", dir),
			)
			return result, nil
		}
		return result, fmt.Errorf("reading script directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), scriptExt) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if err := loadFile(path); err != nil {
			l.logger.Warn("script load error",
				slog.String("file", path),
				slog.String("error", err.Error()),
			)
			result.Errors = append(result.Errors, LoadFileError{File: path, Message: err.Error()})
			continue
		}
		result.Loaded++
	}

	l.logger.Info("script directory load complete",
		slog.String("dir", dir),
		slog.Int("loaded", result.Loaded),
		slog.Int("errors", len(result.Errors)),
	)
	return result, nil
}

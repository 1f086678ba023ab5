package promo

import (
	"compress/gzip"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// fileLoader reads gzipped code lists from the local file system.
type fileLoader struct {
	dir    string
	logger zerolog.Logger
}

// NewFileLoader creates a loader resolving relative paths against dir.
func NewFileLoader(dir string, logger zerolog.Logger) Loader {
	return &fileLoader{
		dir:    dir,
		logger: logger.With().Str("component", "promo-file-loader").Logger(),
	}
}

func (l *fileLoader) Load(ctx context.Context, path string) (CodeSet, error) {
	if !filepath.IsAbs(path) && l.dir != "" {
		path = filepath.Join(l.dir, path)
	}

	file, err := os.Open(path)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to open code list")
		return nil, fmt.Errorf("failed to open code list %s: %w", path, err)
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader for %s: %w", path, err)
	}
	defer gz.Close()

	set, err := readCodeSet(ctx, gz)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to read code list")
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	l.logger.Info().Str("file", path).Int("codes_loaded", set.Size()).Msg("code list loaded")
	return set, nil
}

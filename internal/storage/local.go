package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"irsaliye/internal/logger"
)

// Local stores photos on the local filesystem under a base directory. Names
// may contain slashes ("2026-02-03/2026-02-03-KUM-35BYL690.jpg"); the daily
// subdirectories are created as needed.
type Local struct {
	baseDir string
	log     zerolog.Logger
}

// NewLocal creates a local-disk backend rooted at baseDir.
func NewLocal(baseDir string) *Local {
	return &Local{
		baseDir: baseDir,
		log:     logger.WithComponent("storage-local"),
	}
}

// Upload implements Backend.
func (l *Local) Upload(ctx context.Context, data []byte, name, contentType string) (UploadResult, error) {
	path := filepath.Join(l.baseDir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return UploadResult{}, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return UploadResult{}, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	l.log.Debug().Str("path", path).Int("bytes", len(data)).Msg("Photo stored on disk")

	return UploadResult{
		Key: name,
		URL: "/uploads/" + name,
	}, nil
}

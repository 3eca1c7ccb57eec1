package blob

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/IGabriel/ai-knowledge-bench/internal/platform/envutil"
	"github.com/IGabriel/ai-knowledge-bench/internal/platform/logger"
)

// Store keeps raw uploads on disk, content-addressed by sha256 so repeated
// uploads of identical bytes share one file.
type Store interface {
	Save(sha256Hex string, data []byte) (string, error)
	Load(path string) ([]byte, error)
}

type fsStore struct {
	dir string
	log *logger.Logger
}

func NewFSStore(baseLog *logger.Logger) (Store, error) {
	dir := envutil.GetEnv("UPLOAD_DIR", "./data/uploads", baseLog)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
	}
	return &fsStore{dir: dir, log: baseLog.With("service", "BlobStore")}, nil
}

func (s *fsStore) Save(sha256Hex string, data []byte) (string, error) {
	path := filepath.Join(s.dir, sha256Hex)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("finalize upload: %w", err)
	}
	s.log.Debug("Stored upload", "path", path, "bytes", len(data))
	return path, nil
}

func (s *fsStore) Load(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read upload %s: %w", path, err)
	}
	return data, nil
}

package screenshots

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"deletion-agent/internal/application/port/output"
)

var _ output.ScreenshotStore = (*Store)(nil)

// Store writes diagnostic screenshots under a directory, one timestamped file
// per flow milestone.
type Store struct {
	dir    string
	logger output.LoggerPort
}

func NewStore(dir string, log output.LoggerPort) *Store {
	return &Store{dir: dir, logger: log}
}

func (s *Store) Save(name string, data []byte) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create screenshots dir: %w", err)
	}

	filename := fmt.Sprintf("%s_%s.jpg", name, time.Now().Format("20060102_150405"))
	path := filepath.Join(s.dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write screenshot: %w", err)
	}

	s.logger.Debug("Screenshot saved", "path", path)
	return path, nil
}

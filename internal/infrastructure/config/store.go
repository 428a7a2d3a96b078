package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"deletion-agent/internal/application/port/output"
	"deletion-agent/internal/domain/entity"
)

var _ output.ConfigStore = (*Store)(nil)

// Store reads broker configs from a directory of JSON files and writes back
// configs learned by the AI fallback path.
type Store struct {
	dir    string
	logger output.LoggerPort
}

func NewStore(dir string, log output.LoggerPort) *Store {
	return &Store{dir: dir, logger: log}
}

func (s *Store) LoadAll() ([]*entity.BrokerConfig, error) {
	info, err := os.Stat(s.dir)
	if err != nil || !info.IsDir() {
		return nil, &entity.ConfigurationError{
			Message: fmt.Sprintf("configuration directory not found: %s", s.dir),
			Suggestions: []string{
				"create the broker config directory",
				"add at least one broker configuration JSON file",
			},
		}
	}

	paths, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("scan config directory: %w", err)
	}
	if len(paths) == 0 {
		return nil, &entity.ConfigurationError{
			Message: fmt.Sprintf("no broker configuration files found in %s", s.dir),
			Suggestions: []string{
				"add one JSON file per broker",
			},
		}
	}
	sort.Strings(paths)

	var configs []*entity.BrokerConfig
	for _, path := range paths {
		cfg, err := s.loadOne(path)
		if err != nil {
			// A single broken file does not abort the batch; it is logged
			// and skipped, mirroring the per-broker isolation policy.
			s.logger.Warn("Skipping broker config", "file", path, "error", err)
			continue
		}
		configs = append(configs, cfg)
	}
	if len(configs) == 0 {
		return nil, &entity.ConfigurationError{
			Message: "every broker configuration file failed to parse",
			Suggestions: []string{
				"validate the JSON files in " + s.dir,
			},
		}
	}
	return configs, nil
}

func (s *Store) loadOne(path string) (*entity.BrokerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg entity.BrokerConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &entity.ConfigurationError{
			Message:     fmt.Sprintf("malformed JSON in %s: %v", filepath.Base(path), err),
			Suggestions: []string{"fix the JSON syntax in " + path},
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveGenerated persists a config produced by a successful AI-fallback run,
// named by the broker's normalized name.
func (s *Store) SaveGenerated(cfg *entity.BrokerConfig) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}

	path := filepath.Join(s.dir, cfg.NormalizedName()+".json")
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal generated config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write generated config: %w", err)
	}

	s.logger.Info("Generated config saved", "broker", cfg.Name, "path", path)
	return path, nil
}

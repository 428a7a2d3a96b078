package output

import "deletion-agent/internal/domain/entity"

// ConfigStore loads the broker configuration directory and persists configs
// learned by the AI fallback path.
type ConfigStore interface {
	// LoadAll reads every broker config. Directory-level problems (missing
	// directory, no files) are ConfigurationErrors that abort the batch.
	LoadAll() ([]*entity.BrokerConfig, error)

	// SaveGenerated writes a newly-learned config, named by the broker's
	// normalized name, and returns the path it was written to.
	SaveGenerated(cfg *entity.BrokerConfig) (string, error)
}

// ScreenshotStore persists diagnostic screenshots taken at flow milestones.
type ScreenshotStore interface {
	Save(name string, data []byte) (string, error)
}

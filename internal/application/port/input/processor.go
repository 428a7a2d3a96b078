package input

import (
	"context"

	"deletion-agent/internal/domain/entity"
)

// BrokerProcessor runs the deletion workflow for every configured broker (or
// a single named one) and aggregates per-broker outcomes.
type BrokerProcessor interface {
	ProcessAll(ctx context.Context, profile entity.UserProfile, brokerFilter string) (*entity.BatchSummary, error)
}

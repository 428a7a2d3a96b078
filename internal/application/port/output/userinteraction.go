package output

import (
	"context"

	"deletion-agent/internal/domain/entity"
)

// UserInteractionPort is the human gate on the AI fallback path: an unvetted
// mapping is never submitted automatically.
type UserInteractionPort interface {
	// ShowMapping presents the AI-generated mapping and the fill outcome for
	// review.
	ShowMapping(ctx context.Context, brokerName string, mapping entity.FieldMapping, report *entity.FillReport)

	// ConfirmSubmission asks whether to submit the reviewed form. Defaults to
	// no on anything but an explicit yes.
	ConfirmSubmission(ctx context.Context, brokerName string) (bool, error)
}

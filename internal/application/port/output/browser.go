package output

import (
	"context"

	"deletion-agent/internal/domain/entity"
)

// BrowserPort is one live page session. Strictly sequential: one broker's
// analyze -> fill -> submit cycle finishes before the next broker starts, so
// implementations need no locking.
type BrowserPort interface {
	Navigate(ctx context.Context, url string) error

	// AnalyzeForm inspects the loaded page and returns its fillable fields
	// plus the submit control, if one could be discovered. Read-only.
	AnalyzeForm(ctx context.Context) (*entity.FormAnalysis, error)

	// FillField fills one field using the kind-specific strategy. It never
	// returns an error for a fill that simply did not take; the boolean lets
	// a batch fill report partial success.
	FillField(ctx context.Context, fieldID, value string, kind entity.FieldKind) bool

	// SubmitForm clicks the discovered submit control, or walks the discovery
	// tiers again at submit time when none was found during analysis.
	SubmitForm(ctx context.Context, control *entity.SubmitControl) error

	// HarvestAuth scans the page for bearer/JWT tokens, CSRF tokens and
	// cookies. Best-effort; an empty bundle is not an error.
	HarvestAuth(ctx context.Context) (*entity.AuthBundle, error)

	Screenshot(ctx context.Context) ([]byte, error)
	CurrentURL() string
	Close()
}

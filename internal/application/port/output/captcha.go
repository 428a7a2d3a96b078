package output

import "context"

// CaptchaPort delegates to an external proxyless solving service. Solve
// blocks until the provider returns a solution or fails; callers make exactly
// one attempt per submission cycle and treat an empty token as failure.
type CaptchaPort interface {
	Solve(ctx context.Context, siteURL, siteKey string) (string, error)
}

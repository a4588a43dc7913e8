package fetch

import (
	"context"

	"igfetch/pkg/retry"
)

// Retrying applies a retry policy around another RangeFetcher
type Retrying struct {
	next   RangeFetcher
	policy *retry.Policy
}

// NewRetrying wraps next with policy
func NewRetrying(next RangeFetcher, policy *retry.Policy) *Retrying {
	return &Retrying{next: next, policy: policy}
}

func (r *Retrying) FetchRange(ctx context.Context, url string, rng *Range) ([]byte, error) {
	return retry.DoWithResult(ctx, r.policy, func(ctx context.Context) ([]byte, error) {
		return r.next.FetchRange(ctx, url, rng)
	})
}

// Package ratelimit throttles requests to Instagram and its CDN.
//
// TokenBucket is backed by golang.org/x/time/rate and is shared by every
// fetch the process makes, so concurrent posts and carousel children draw
// from the same budget.
package ratelimit

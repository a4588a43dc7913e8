// Package retry runs operations under a caller-supplied retry policy.
//
// The byte-range fetcher never retries by itself; callers wrap it with a
// Policy (see fetch.Retrying). Only errors classified retryable by
// pkg/errors are retried, and the context bounds every wait.
package retry

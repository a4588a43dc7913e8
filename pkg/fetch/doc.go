// Package fetch is the HTTP primitive for everything igfetch downloads.
//
// FetchRange sends an optional inclusive Range header and fails with a typed
// network error on any non-2xx status. Retries are layered on top by Retrying.
package fetch

// Package session stores the Instagram browser cookies igfetch needs for
// posts that require a login.
//
// A Manager consults its stores in order. The default chain is the OS keyring,
// an AES-GCM encrypted file keyed through PBKDF2, and finally read-only
// IGFETCH_SESSION_ID style environment variables.
package session

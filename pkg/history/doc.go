// Package history remembers which posts were downloaded completely.
//
// A post is recorded once every leaf was produced or skipped, so batch runs
// can skip it next time. The file lives in the platform data directory
// unless configured otherwise:
//   - Linux: ~/.local/share/igfetch/history.json
//   - macOS: ~/Library/Application Support/igfetch/history.json
//   - Windows: %APPDATA%/igfetch/history.json
//
// Writes go to a temporary file that is renamed over the old one.
package history

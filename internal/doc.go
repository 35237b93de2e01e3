// Package internal contains the implementation packages for livefield.
//
// # Package Organization
//
//   - partial: identifier parsing, resolution, visibility-aware rendering, export
//   - content: content types, the record store, listing scope, YAML loading
//   - transform: normalization, paragraph wrapping, sanitizing, excerpts
//   - authz: role to capability checks
//   - server: HTTP render/export endpoints and WebSocket notifications
//   - watcher: debounced content file watching
//   - config, logging, errors, version: shared infrastructure
//
// The partial package depends only on narrow interfaces; content, transform
// and server supply the implementations used by the CLI.
package internal

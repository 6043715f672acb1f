// Package kv provides the client's local persistence: a small key/value
// store that survives process restarts.
//
// It holds the persisted query cache, the theme preference and the local
// identity provider's accounts and session. Values are opaque bytes; callers
// choose the encoding (JSON throughout this module).
//
// Key Types
//
//   - type Repository       : interface used by stores, the query cache and the identity provider
//   - type SQLiteRepository : SQLite implementation over dbx.DBTX
//   - type MemoryRepository : map-backed implementation for tests and ephemeral runs
//   - type SealedRepository : decorator encrypting values with AES-GCM (cryptox)
//
// Get returns (nil, nil) for a missing key.
package kv

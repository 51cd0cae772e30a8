// Package repositories implements durable client-side state for the watch-time tracker.
//
// All state lives behind the [Store] key-value interface, mirroring the browser localStorage the web client uses:
//   - [SQLiteStore] : default, the kv_store table created by the embedded migrations
//   - [RedisStore] : shared store for several clients on one profile
//   - [MemoryStore] : ephemeral runs and tests
//
// On top of a store:
//   - [ViewerRepository] : get-or-create guest identity, the logged-in session (user + token)
//   - [ViewFlagRepository] : one "already viewed" flag per (video, viewer)
//
// Guest and user flags are keyed separately; logging in never merges them.
package repositories

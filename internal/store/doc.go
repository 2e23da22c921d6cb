// Package store provides SQLite-backed save data for the console.
//
// Two tables:
//   - upgrades: the permanent "maxed" flag per minigame, the only save data
//     the engines consume
//   - resolutions: an append-only log of resolved complications, keyed by
//     complication id so recording the same resolution twice is harmless
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - user_version: save format version; newer files are refused
//
// Queries that return lists order by seq so results are identical across
// runs.
package store

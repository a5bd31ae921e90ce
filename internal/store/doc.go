// Package store projects feed events into dashboard-observable state.
//
// The Store:
//   - Keeps the most recent notifications, newest first, capped at a fixed
//     size (oldest evicted)
//   - Holds the latest metrics snapshot; each push fully replaces the last
//   - Mirrors the feed connection state and last transport error
//   - Wraps mark-read optimistically: the local copy flips immediately and
//     a mark_read frame goes to the server best-effort
package store

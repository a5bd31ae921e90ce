// Package poller implements the metrics refresh poller.
//
// The poller:
//   - Requests a metrics snapshot on a fixed interval while connected
//   - Keeps dashboards fresh even when the server pushes lazily
//   - Skips ticks while the feed is down; requests are best-effort
package poller

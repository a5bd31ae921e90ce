// Package exporter implements the notification archive exporter.
//
// The exporter:
//   - Consumes notifications from an input channel
//   - Batches them and appends JSON lines to a local file
//   - Flushes on batch size, flush interval, and shutdown
package exporter

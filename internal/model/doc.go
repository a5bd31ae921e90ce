// Package model defines shared data types for the admin realtime feed.
//
// All types mirror the wire contract of the admin event endpoint.
//
// Conventions:
//   - Timestamps: time.Time, carried as ISO 8601 strings on the wire
//   - IDs: server-assigned strings (notification IDs are UUIDs in practice)
//   - Every wire message is an Envelope with a "type" discriminator
package model

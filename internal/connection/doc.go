// Package connection implements the WebSocket transport for the admin feed.
//
// The transport Client:
//   - Dials the admin event endpoint with a bearer token on the query string
//   - Serializes writes and surfaces inbound frames on a buffered channel
//   - Reports transport failures on a dedicated error channel
//   - Owns exactly one socket for its lifetime; reconnection is the
//     responsibility of the feed client one layer up
package connection

// Package feed implements the Realtime Admin Client.
//
// The feed Client:
//   - Owns exactly one logical connection to the admin event endpoint
//   - Translates wire envelopes into typed, observable events
//   - Sends an application-level heartbeat while connected
//   - Reconnects on unexpected close with exponential backoff, up to a
//     bounded attempt count; a deliberate Disconnect never retries
//   - Re-sends the last subscription set after a successful reconnect
package feed

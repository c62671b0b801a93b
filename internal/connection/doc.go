// Package connection implements the exchange Session Handler.
//
// A Session owns one WebSocket connection per Run call:
//   - Dials the endpoint and records the handshake latency
//   - Signs and sends the login frame
//   - Answers heartbeats (ping -> pong) and times each reply
//   - Times the "subscribed" confirmation; every other frame is ignored
//
// Reconnection is not handled here; see package supervisor.
package connection

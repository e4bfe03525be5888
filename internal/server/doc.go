// Package server exposes the service's network surface: the client
// WebSocket endpoints that carry translation sessions, and the HTTP API
// used for monitoring and management.
//
// /ws/translate is the production endpoint. Each connection gets a
// connection id, and the translation session it starts lives exactly as
// long as the connection unless the client ends it first. Binary frames
// carry raw PCM microphone audio; text frames carry JSON control
// messages. /ws/echo loops frames back and exists for client-side
// connectivity testing.
package server

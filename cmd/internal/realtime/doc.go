// Package realtime implements the client side of the Tech-Care push channel.
//
// One Client owns a single physical websocket connection and multiplexes any
// number of logical topic subscriptions over it. It reconnects with
// exponential backoff, replays subscriptions after every reconnect, and
// exposes only connection-state transitions to consumers; individual channel
// errors are logged and retried internally.
package realtime

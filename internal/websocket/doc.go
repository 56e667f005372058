// Package websocket streams fetch store updates to connected websocket
// clients. A Hub is registered as a fetch.Store observer and fans every
// change out as a JSON Message.
package websocket

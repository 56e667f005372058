// Package http serves the operational endpoints of a running fetch batch:
// health, batch progress, a websocket feed of store updates and Prometheus
// metrics.
package http

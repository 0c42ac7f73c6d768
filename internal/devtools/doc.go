// Package devtools serves a live view of a hooks runtime over HTTP.
//
// Routes:
//
//	GET /healthz         liveness probe
//	GET /instances       JSON snapshot of the instance tree
//	GET /events          WebSocket stream of runtime events
//	GET /events/recent   JSON list of the most recent events
//	GET /errors/{code}   registered error code documentation
//	GET /metrics         Prometheus metrics
//
// The Hub is a hooks.Observer; attach it to the runtime with
// hooks.WithObserver so events reach connected clients.
package devtools

// Package server provides the optional HTTP status server that runs
// alongside a conversion batch.
//
// Routes:
//   - GET /metrics: Prometheus metrics
//   - GET /healthz: liveness with build and runtime details
//   - GET /progress: JSON snapshot of the running aggregates
//   - GET /version: build information
package server

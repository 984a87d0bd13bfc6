// Package middleware provides HTTP middleware for the status server.
//
// It includes:
//   - Request logging in W3C Extended Log Format at debug level, with
//     health probes skipped by default
//   - Prometheus request metrics labelled by route template
package middleware

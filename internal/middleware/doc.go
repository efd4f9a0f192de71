// Package middleware provides HTTP middleware for the curator API.
//
// It includes:
//   - Access logging in W3C Extended Log Format
//   - Prometheus request metrics labelled by route template
//   - gzip compression of JSON responses
package middleware

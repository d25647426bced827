// Package server exposes the HTTP surface: the WebSocket upgrade endpoint,
// the REST API consumed by the browser UI, and the observability endpoints.
// Echo is used purely as a thin request-dispatch shim; all domain behavior
// lives in the intake, moderation and ws packages.
package server

/*
Package server implements an HTTP API around a single [verifier.Verifier],
for starting, watching, and cancelling runs, as well as downloading their
exports.

All API endpoints live below /api/v1; errors are reported as JSON objects of
the form

	{"error": {"code": "INVALID_INPUT", "message": "..."}}

Prometheus metrics are exposed at /metrics.
*/
package server

/*
Package observability turns wizard lifecycle hooks into Prometheus metrics and
structured audit logs.

Metrics stay inside the process: they are only exposed when a front-end mounts
the handler (see the HTTP adapter's /metrics route).
*/
package observability

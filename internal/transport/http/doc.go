// Package http implements the HTTP handlers of the analyzer. Handlers stay
// thin: they parse and validate the request, call a service and render the
// result. Every failure goes through errors.ErrorHandler so clients always
// receive RFC 7807 problem details.
//
// # Routes
//
//	POST   /api/reports                  multipart upload (file, contract_id, period_start, period_end)
//	GET    /api/reports                  report summaries, newest first (limit, offset)
//	GET    /api/reports/{id}             full report
//	DELETE /api/reports/{id}             remove a report
//	GET    /api/reports/{id}/entries     filtered entries (status, user, kind, limit, offset)
//	GET    /api/reports/{id}/export      download as csv, xlsx or json (format)
//	GET    /api/health[/ready|/live]     health probes
//	GET    /api/version                  build information
//	POST   /api/logs                     front-end log relay
package http

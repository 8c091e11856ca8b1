// Package app wires the analyzer server together: configuration, logging,
// OpenTelemetry, the report store, the websocket hub, services and the chi
// router.
//
// # Initialization Flow
//
//	1. Load configuration from defaults, the YAML file and FAX_* variables
//	2. Initialize logging and observability
//	3. Open the report store (memory, SQLite or Postgres, optionally behind redis)
//	4. Start the websocket hub and build the services
//	5. Mount handlers behind the middleware chain
//
// # Graceful Shutdown
//
// Run stops on SIGINT or SIGTERM. Stop drains in-flight requests, stops
// the hub, closes the store and flushes telemetry. Errors are returned to
// the caller; the package never calls os.Exit.
package app

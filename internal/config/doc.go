// Package config loads the analyzer configuration.
//
// # Configuration Sources
//
// Values are resolved in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. config.yaml or configs/config.yaml
//	3. Default() (lowest priority)
//
// # Environment Variables
//
// All variables use the FAX_ prefix and the section name:
//
//	FAX_SERVER_PORT=8080
//	FAX_STORAGE_DRIVER=postgres
//	FAX_STORAGE_DSN=postgres://fax:secret@db/fax?sslmode=disable
//	FAX_CACHE_ENABLED=true
//	FAX_CACHE_ADDR=redis:6379
//	FAX_LOGGING_LEVEL=debug
//
// # Paths
//
// Relative directories in PathsConfig are resolved against BaseDir, which
// defaults to the directory of the running executable.
package config

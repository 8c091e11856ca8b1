package config

import (
	"time"

	"github.com/Imdraks/faxcloud-analyzer/pkg/contracts"
)

const (
	AppName    = "FaxCloud Analyzer"
	AppVersion = contracts.Version

	// EnvPrefix namespaces every environment variable
	EnvPrefix = "FAX"

	DefaultDataDir    = "data"
	DefaultExportsDir = "data/exports"
	DefaultLogsDir    = "logs"
	DefaultSQLiteFile = "faxcloud.db"

	DefaultMaxUploadBytes = 32 << 20
	DefaultRequestTimeout = 60 * time.Second
	DefaultCacheTTL       = 10 * time.Minute

	// Storage drivers
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

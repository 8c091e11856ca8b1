// Package storage persists analysis reports.
//
// ReportStore is implemented by MemoryStore, SQLStore (SQLite through
// modernc.org/sqlite or PostgreSQL through lib/pq) and CachedStore, a
// redis read-through decorator around any other store. A store assigns
// the report identifier on Save and returns reports unchanged afterwards.
package storage

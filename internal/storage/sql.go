package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/Imdraks/faxcloud-analyzer/pkg/contracts/domain"
)

// Dialect selects placeholder style and driver name
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS reports (
		id            TEXT PRIMARY KEY,
		run_id        TEXT NOT NULL,
		file_name     TEXT NOT NULL,
		source_format TEXT NOT NULL,
		checksum      TEXT NOT NULL DEFAULT '',
		contract_id   TEXT NOT NULL DEFAULT '',
		period_start  TEXT NOT NULL DEFAULT '',
		period_end    TEXT NOT NULL DEFAULT '',
		created_at    BIGINT NOT NULL,
		total         INTEGER NOT NULL,
		errors        INTEGER NOT NULL,
		success_rate  INTEGER NOT NULL,
		statistics    TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports (created_at)`,
	`CREATE TABLE IF NOT EXISTS report_entries (
		report_id         TEXT NOT NULL,
		seq               INTEGER NOT NULL,
		fax_id            TEXT NOT NULL,
		user_name         TEXT NOT NULL,
		mode              TEXT NOT NULL,
		mode_code         TEXT NOT NULL,
		original_number   TEXT NOT NULL,
		normalized_number TEXT NOT NULL,
		is_valid          BOOLEAN NOT NULL,
		page_count        INTEGER NOT NULL,
		sent_at           TEXT NOT NULL,
		reasons           TEXT NOT NULL,
		line_type         TEXT NOT NULL,
		PRIMARY KEY (report_id, seq)
	)`,
}

// SQLStore persists reports in a relational database
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	logger  *slog.Logger
}

// OpenSQL opens the database for dialect and creates the schema.
func OpenSQL(ctx context.Context, dialect Dialect, dsn string, logger *slog.Logger) (*SQLStore, error) {
	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		// A single connection serializes writers on the database file.
		db.SetMaxOpenConns(1)
	}

	store, err := NewSQLStore(ctx, db, dialect, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLStore wraps an open database and creates the schema.
func NewSQLStore(ctx context.Context, db *sql.DB, dialect Dialect, logger *slog.Logger) (*SQLStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &SQLStore{
		db:      db,
		dialect: dialect,
		logger:  logger.With(slog.String("component", "sql_store"), slog.String("dialect", string(dialect))),
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}
	return s, nil
}

// rebind rewrites ? placeholders to $n for PostgreSQL
func (s *SQLStore) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Save inserts the report and its entries in one transaction
func (s *SQLStore) Save(ctx context.Context, report *domain.StoredReport) (string, error) {
	stored := report.Clone()
	stored.ID = uuid.New().String()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	stats, err := json.Marshal(stored.Statistics)
	if err != nil {
		return "", fmt.Errorf("encode statistics: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, s.rebind(`INSERT INTO reports
		(id, run_id, file_name, source_format, checksum, contract_id, period_start, period_end,
		 created_at, total, errors, success_rate, statistics)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		stored.ID, stored.RunID, stored.FileName, string(stored.SourceFormat), stored.Checksum,
		stored.ContractID, stored.PeriodStart, stored.PeriodEnd, stored.CreatedAt.UnixNano(),
		stored.Statistics.Total, stored.Statistics.Errors, stored.Statistics.SuccessRatePercent, string(stats))
	if err != nil {
		return "", fmt.Errorf("insert report: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, s.rebind(`INSERT INTO report_entries
		(report_id, seq, fax_id, user_name, mode, mode_code, original_number, normalized_number,
		 is_valid, page_count, sent_at, reasons, line_type)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return "", fmt.Errorf("prepare entries: %w", err)
	}
	defer stmt.Close()

	for i, e := range stored.Entries {
		_, err = stmt.ExecContext(ctx, stored.ID, i, e.FaxID, e.User, string(e.Mode), e.ModeCode,
			e.OriginalNumber, e.NormalizedNumber, e.IsValid, e.PageCount, e.Timestamp,
			joinReasons(e.Reasons), e.LineType)
		if err != nil {
			return "", fmt.Errorf("insert entry %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	s.logger.DebugContext(ctx, "report saved",
		slog.String("report_id", stored.ID),
		slog.Int("entries", len(stored.Entries)))
	return stored.ID, nil
}

// Get loads a report with its entries in input order
func (s *SQLStore) Get(ctx context.Context, id string) (*domain.StoredReport, error) {
	var (
		report    domain.StoredReport
		format    string
		createdAt int64
		stats     string
		ignored   int
	)
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT id, run_id, file_name, source_format, checksum,
		contract_id, period_start, period_end, created_at, total, statistics
		FROM reports WHERE id = ?`), id)
	err := row.Scan(&report.ID, &report.RunID, &report.FileName, &format, &report.Checksum,
		&report.ContractID, &report.PeriodStart, &report.PeriodEnd, &createdAt, &ignored, &stats)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select report: %w", err)
	}
	report.SourceFormat = domain.ReportFormat(format)
	report.CreatedAt = time.Unix(0, createdAt).UTC()
	if err := json.Unmarshal([]byte(stats), &report.Statistics); err != nil {
		return nil, fmt.Errorf("decode statistics: %w", err)
	}

	entries, err := s.entries(ctx, id)
	if err != nil {
		return nil, err
	}
	report.Entries = entries
	return &report, nil
}

func (s *SQLStore) entries(ctx context.Context, id string) ([]domain.AnalyzedEntry, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT fax_id, user_name, mode, mode_code,
		original_number, normalized_number, is_valid, page_count, sent_at, reasons, line_type
		FROM report_entries WHERE report_id = ? ORDER BY seq`), id)
	if err != nil {
		return nil, fmt.Errorf("select entries: %w", err)
	}
	defer rows.Close()

	entries := []domain.AnalyzedEntry{}
	for rows.Next() {
		var (
			e       domain.AnalyzedEntry
			mode    string
			reasons string
		)
		if err := rows.Scan(&e.FaxID, &e.User, &mode, &e.ModeCode, &e.OriginalNumber,
			&e.NormalizedNumber, &e.IsValid, &e.PageCount, &e.Timestamp, &reasons, &e.LineType); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Mode = domain.Mode(mode)
		e.Reasons = splitReasons(reasons)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// List returns summaries, newest first
func (s *SQLStore) List(ctx context.Context, opts ListOptions) ([]domain.ReportSummary, error) {
	opts = opts.normalized()

	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT id, run_id, file_name, contract_id,
		created_at, total, errors, success_rate
		FROM reports ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`), opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	summaries := []domain.ReportSummary{}
	for rows.Next() {
		var (
			sum       domain.ReportSummary
			createdAt int64
		)
		if err := rows.Scan(&sum.ID, &sum.RunID, &sum.FileName, &sum.ContractID, &createdAt,
			&sum.Total, &sum.Errors, &sum.SuccessRatePercent); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		sum.CreatedAt = time.Unix(0, createdAt).UTC()
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// Delete removes a report and its entries
func (s *SQLStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM report_entries WHERE report_id = ?`), id); err != nil {
		return fmt.Errorf("delete entries: %w", err)
	}
	res, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM reports WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

// Ping checks the database connection
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func joinReasons(reasons []domain.ErrorKind) string {
	parts := make([]string, len(reasons))
	for i, r := range reasons {
		parts[i] = string(r)
	}
	return strings.Join(parts, ",")
}

func splitReasons(s string) []domain.ErrorKind {
	if s == "" {
		return []domain.ErrorKind{}
	}
	parts := strings.Split(s, ",")
	reasons := make([]domain.ErrorKind, len(parts))
	for i, p := range parts {
		reasons[i] = domain.ErrorKind(p)
	}
	return reasons
}

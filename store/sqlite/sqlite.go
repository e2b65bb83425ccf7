/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Persists what the HTTP service keeps between requests: archived runs, the
  content-addressed stage cache and the holiday calendar. The reconciliation
  core never touches this package directly; it only sees the interfaces.

INTERFACES IMPLEMENTED:
  generic.RunStore:        Archived pipeline results
  generic.StageCache:      Stage outputs keyed by (content key, stage)
  generic.HolidayCalendar: Company and global rest days

KEY TABLES:
  runs:        One row per pipeline invocation, payload is the JSON result
  stage_cache: Opaque stage blobs, primary key (content_key, stage)
  holidays:    Dated or recurring (month/day) rest days

TIMESTAMPS:
  Stored as fixed-width UTC text (timeLayout) so string comparison orders
  them correctly and retention pruning is a plain WHERE created_at < ?.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time

USAGE:
  store, err := sqlite.New("./data/attendance.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  p := pipeline.New(rules)
  p.Cache = store
  p.Calendar = store

SEE ALSO:
  - generic/store.go: Interface definitions
  - generic/store/memory.go: In-memory implementation for testing
  - api/scheduler.go: Retention pruning
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/attendance-engine/generic"
)

// timeLayout is fixed width so lexical order equals time order.
const timeLayout = "2006-01-02T15:04:05.000000Z"

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex

	// now is swapped in tests to control pruning.
	now func() time.Time
}

// Compile-time interface checks
var (
	_ generic.RunStore        = (*Store)(nil)
	_ generic.StageCache      = (*Store)(nil)
	_ generic.HolidayCalendar = (*Store)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db, now: time.Now}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Archived runs
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		content_key TEXT NOT NULL DEFAULT '',
		period_start TEXT,
		period_end TEXT,
		status TEXT NOT NULL,
		error TEXT,
		employees INTEGER NOT NULL DEFAULT 0,
		diagnostics INTEGER NOT NULL DEFAULT 0,
		payload BLOB,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created_at
		ON runs(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_runs_content_key
		ON runs(content_key);

	-- Content-addressed stage outputs
	CREATE TABLE IF NOT EXISTS stage_cache (
		content_key TEXT NOT NULL,
		stage TEXT NOT NULL,
		payload BLOB NOT NULL,
		created_at TEXT NOT NULL,
		PRIMARY KEY (content_key, stage)
	);

	CREATE INDEX IF NOT EXISTS idx_stage_cache_created_at
		ON stage_cache(created_at);

	-- Holidays (company-specific and global)
	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL DEFAULT '',
		date TEXT NOT NULL,
		name TEXT NOT NULL,
		recurring BOOLEAN DEFAULT FALSE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_holidays_company_date
		ON holidays(company_id, date);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_holidays_unique
		ON holidays(company_id, date, name);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) stamp() string {
	return s.now().UTC().Format(timeLayout)
}

// =============================================================================
// RUN ARCHIVE (generic.RunStore interface)
// =============================================================================

// SaveRun inserts or replaces a run.
func (s *Store) SaveRun(ctx context.Context, run generic.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := s.stamp()
	if !run.CreatedAt.IsZero() {
		created = run.CreatedAt.UTC().Format(timeLayout)
	}

	query := `
		INSERT INTO runs
		(id, content_key, period_start, period_end, status, error, employees, diagnostics, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content_key = excluded.content_key,
			period_start = excluded.period_start,
			period_end = excluded.period_end,
			status = excluded.status,
			error = excluded.error,
			employees = excluded.employees,
			diagnostics = excluded.diagnostics,
			payload = excluded.payload
	`

	_, err := s.db.ExecContext(ctx, query,
		string(run.ID),
		run.ContentKey,
		dateString(run.Period.Start),
		dateString(run.Period.End),
		string(run.Status),
		nullString(run.Error),
		run.Employees,
		run.Diagnostics,
		run.Payload,
		created,
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// GetRun returns a run with its payload.
func (s *Store) GetRun(ctx context.Context, id generic.RunID) (*generic.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, content_key, period_start, period_end, status, error,
		       employees, diagnostics, payload, created_at
		FROM runs WHERE id = ?
	`
	run, err := scanRun(s.db.QueryRowContext(ctx, query, string(id)), true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, generic.ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns runs newest first, without payloads.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]generic.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, content_key, period_start, period_end, status, error,
		       employees, diagnostics, NULL, created_at
		FROM runs
		ORDER BY created_at DESC
	`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []generic.RunRecord
	for rows.Next() {
		run, err := scanRun(rows, false)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// DeleteRun removes one run.
func (s *Store) DeleteRun(ctx context.Context, id generic.RunID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", string(id))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return generic.ErrRunNotFound
	}
	return nil
}

// PruneRuns deletes runs created before cutoff.
func (s *Store) PruneRuns(ctx context.Context, cutoff time.Time) (int, error) {
	return s.prune(ctx, "runs", cutoff)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner, withPayload bool) (*generic.RunRecord, error) {
	var (
		run                    generic.RunRecord
		id, status, created    string
		periodStart, periodEnd sql.NullString
		errText                sql.NullString
		payload                []byte
	)
	if err := row.Scan(&id, &run.ContentKey, &periodStart, &periodEnd, &status, &errText,
		&run.Employees, &run.Diagnostics, &payload, &created); err != nil {
		return nil, err
	}
	run.ID = generic.RunID(id)
	run.Status = generic.RunStatus(status)
	run.Error = errText.String
	run.Period.Start = parseDate(periodStart)
	run.Period.End = parseDate(periodEnd)
	if withPayload {
		run.Payload = payload
	}
	if t, err := time.Parse(timeLayout, created); err == nil {
		run.CreatedAt = t
	}
	return &run, nil
}

// =============================================================================
// STAGE CACHE (generic.StageCache interface)
// =============================================================================

// GetStage returns the stored payload or ErrCacheMiss.
func (s *Store) GetStage(ctx context.Context, key generic.CacheKey) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var payload []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM stage_cache WHERE content_key = ? AND stage = ?",
		key.ContentKey, string(key.Stage),
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, generic.ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// PutStage stores or refreshes a payload.
func (s *Store) PutStage(ctx context.Context, key generic.CacheKey, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO stage_cache (content_key, stage, payload, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(content_key, stage) DO UPDATE SET
			payload = excluded.payload,
			created_at = excluded.created_at
	`
	_, err := s.db.ExecContext(ctx, query, key.ContentKey, string(key.Stage), payload, s.stamp())
	if err != nil {
		return fmt.Errorf("failed to store stage %s: %w", key.Stage, err)
	}
	return nil
}

// PruneStages deletes entries written before cutoff.
func (s *Store) PruneStages(ctx context.Context, cutoff time.Time) (int, error) {
	return s.prune(ctx, "stage_cache", cutoff)
}

// prune deletes rows of a table with created_at before cutoff. table is
// always a constant from this file.
func (s *Store) prune(ctx context.Context, table string, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"DELETE FROM "+table+" WHERE created_at < ?",
		cutoff.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// =============================================================================
// HOLIDAY CALENDAR IMPLEMENTATION
// =============================================================================

// SaveHoliday saves a holiday, assigning an ID when it has none. Saving the
// same (company, date, name) twice updates the recurring flag only.
func (s *Store) SaveHoliday(ctx context.Context, h generic.Holiday) (generic.Holiday, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if h.ID == "" {
		h.ID = uuid.New().String()
	}

	query := `
		INSERT INTO holidays (id, company_id, date, name, recurring, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(company_id, date, name) DO UPDATE SET
			recurring = excluded.recurring
		RETURNING id
	`

	err := s.db.QueryRowContext(ctx, query,
		h.ID,
		h.CompanyID,
		h.Date.String(),
		h.Name,
		h.Recurring,
		s.stamp(),
	).Scan(&h.ID)
	if err != nil {
		return generic.Holiday{}, fmt.Errorf("failed to save holiday: %w", err)
	}
	return h, nil
}

// DeleteHoliday deletes a holiday by ID.
func (s *Store) DeleteHoliday(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM holidays WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return generic.ErrHolidayNotFound
	}
	return nil
}

// GetHolidays returns all holidays for a company in a given year.
// Includes both company-specific and global holidays.
func (s *Store) GetHolidays(companyID string, year int) []generic.Holiday {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, company_id, date, name, recurring
		FROM holidays
		WHERE (company_id = ? OR company_id = '')
		  AND (recurring = TRUE OR strftime('%Y', date) = ?)
		ORDER BY strftime('%m-%d', date) ASC
	`

	rows, err := s.db.Query(query, companyID, fmt.Sprintf("%04d", year))
	if err != nil {
		return nil
	}
	defer rows.Close()

	var holidays []generic.Holiday
	for rows.Next() {
		h, err := scanHoliday(rows)
		if err != nil {
			continue
		}
		if h.Recurring {
			h.Date = generic.NewTimePoint(year, h.Date.Month(), h.Date.Day())
		}
		holidays = append(holidays, h)
	}

	return holidays
}

// IsHoliday checks if a date is a holiday for the given company.
func (s *Store) IsHoliday(companyID string, date generic.TimePoint) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT COUNT(*) FROM holidays
		WHERE (company_id = ? OR company_id = '')
		  AND (
			(recurring = FALSE AND date = ?)
			OR (recurring = TRUE AND strftime('%m-%d', date) = ?)
		  )
	`

	var count int
	err := s.db.QueryRow(query, companyID, date.String(), date.Time.Format("01-02")).Scan(&count)
	if err != nil {
		return false
	}
	return count > 0
}

// ListHolidays returns every holiday visible to a company (for admin UI).
func (s *Store) ListHolidays(ctx context.Context, companyID string) ([]generic.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, company_id, date, name, recurring
		FROM holidays
		WHERE company_id = ? OR company_id = ''
		ORDER BY date ASC
	`

	rows, err := s.db.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holidays []generic.Holiday
	for rows.Next() {
		h, err := scanHoliday(rows)
		if err != nil {
			return nil, err
		}
		holidays = append(holidays, h)
	}

	return holidays, rows.Err()
}

func scanHoliday(row scanner) (generic.Holiday, error) {
	var h generic.Holiday
	var dateStr string
	if err := row.Scan(&h.ID, &h.CompanyID, &dateStr, &h.Name, &h.Recurring); err != nil {
		return generic.Holiday{}, err
	}
	d, err := generic.ParseDate(dateStr)
	if err != nil {
		return generic.Holiday{}, err
	}
	h.Date = d
	return h, nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"runs", "stage_cache", "holidays"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func dateString(tp generic.TimePoint) sql.NullString {
	if tp.Time.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: tp.String(), Valid: true}
}

func parseDate(s sql.NullString) generic.TimePoint {
	if !s.Valid {
		return generic.TimePoint{}
	}
	d, err := generic.ParseDate(s.String)
	if err != nil {
		return generic.TimePoint{}
	}
	return d
}

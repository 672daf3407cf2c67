package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/loykin/apismoke/internal/common"
	"github.com/loykin/apismoke/internal/retry"
	"github.com/loykin/apismoke/internal/smoke"
	"github.com/loykin/apismoke/internal/util"
)

// maxMessageLen bounds the stored step message; response bodies never reach the store.
const maxMessageLen = 500

// Run is one recorded suite execution.
type Run struct {
	ID         int64
	Suite      string
	Passed     bool
	StartedAt  time.Time
	Duration   time.Duration
	FailedStep string
	Kind       string
	Warnings   int
	Steps      []StepRun
}

// StepRun is one recorded step of a Run.
type StepRun struct {
	Position int
	Name     string
	Outcome  string
	Kind     string
	Message  string
	Duration time.Duration
	Cleanup  bool
}

// Store persists suite results. It only ever sees names, outcomes and
// masked error messages; tokens and payloads are not part of smoke.Result.
type Store struct {
	db      *sql.DB
	dialect Dialect
	tables  TableNames
	// Retry governs writes; nil means retry.Default().
	Retry *retry.Config
}

// Open connects to the configured database and ensures the tables exist.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	d, err := DialectFor(util.TrimAndLower(cfg.Driver))
	if err != nil {
		return nil, err
	}
	var dsn string
	switch d.Name() {
	case DriverPostgres:
		if dsn, err = cfg.Postgres.ConnString(); err != nil {
			return nil, err
		}
	default:
		dsn = cfg.SQLite.DSN()
	}

	logger := common.GetLogger().WithStore(d.Name())
	db, err := sql.Open(d.SQLDriver(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s history: %w", d.Name(), err)
	}
	d.ConfigurePool(db)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s history: %w", d.Name(), err)
	}
	logger.Debug("history database connected")

	s, err := New(db, d, cfg.Tables)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.Ensure(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an already opened database. Tests use it with sqlmock.
func New(db *sql.DB, d Dialect, tables TableNames) (*Store, error) {
	if db == nil || d == nil {
		return nil, errors.New("history: db and dialect are required")
	}
	tables = tables.withDefaults()
	if err := tables.Validate(); err != nil {
		return nil, err
	}
	return &Store{db: db, dialect: d, tables: tables}, nil
}

func (s *Store) Driver() string { return s.dialect.Name() }

// Ensure creates the history tables when missing.
func (s *Store) Ensure(ctx context.Context) error {
	logger := common.GetLogger().WithStore(s.dialect.Name())
	for i, q := range s.dialect.EnsureStatements(s.tables) {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			logger.Error("failed to create history table", "error", err, "index", i+1)
			return fmt.Errorf("create history table %d: %w", i+1, err)
		}
	}
	return nil
}

// placeholders returns "p1, p2, ... pn" starting at from.
func (s *Store) placeholders(from, n int) string {
	ph := make([]string, n)
	for i := range ph {
		ph[i] = s.dialect.Placeholder(from + i)
	}
	return strings.Join(ph, ", ")
}

func nullString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

// Record stores res and its steps in one transaction and returns the run id.
func (s *Store) Record(ctx context.Context, res smoke.Result) (int64, error) {
	var id int64
	err := retry.Do(ctx, s.Retry, "record "+res.Suite, func(ctx context.Context) error {
		var err error
		id, err = s.record(ctx, res)
		return err
	})
	if err != nil {
		return 0, err
	}
	common.GetLogger().WithStore(s.dialect.Name()).WithSuite(res.Suite).Debug("suite run recorded", "run_id", id)
	return id, nil
}

func (s *Store) record(ctx context.Context, res smoke.Result) (id int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var failedStep, kind string
	if f := res.FailedStep(); f != nil {
		failedStep = f.Name
		kind = f.Kind.String()
	}
	runQ := fmt.Sprintf(
		"INSERT INTO %s (suite, passed, started_at, duration_ms, failed_step, error_kind, warnings) VALUES (%s) RETURNING id",
		s.tables.SuiteRuns, s.placeholders(1, 7))
	err = tx.QueryRowContext(ctx, runQ,
		res.Suite,
		s.dialect.BoolValue(res.Passed),
		s.dialect.TimeValue(res.StartedAt),
		res.Duration.Milliseconds(),
		nullString(failedStep),
		nullString(kind),
		res.Warnings(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert suite run: %w", err)
	}

	stepQ := fmt.Sprintf(
		"INSERT INTO %s (run_id, position, name, outcome, kind, message, duration_ms, cleanup) VALUES (%s)",
		s.tables.StepRuns, s.placeholders(1, 8))
	for i, st := range res.Steps {
		var stepKind string
		if st.Kind != smoke.KindUnknown {
			stepKind = st.Kind.String()
		}
		msg := util.Truncate(common.MaskSensitiveData(st.Message), maxMessageLen)
		if _, err = tx.ExecContext(ctx, stepQ,
			id, i+1, st.Name, string(st.Outcome),
			nullString(stepKind), nullString(msg),
			st.Duration.Milliseconds(), s.dialect.BoolValue(st.Cleanup),
		); err != nil {
			return 0, fmt.Errorf("insert step %q: %w", st.Name, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// ListRuns returns the most recent runs first. limit <= 0 means 20.
// When suite is non-empty only that suite's runs are returned.
func (s *Store) ListRuns(ctx context.Context, suite string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	var (
		q    string
		args []any
	)
	cols := "id, suite, passed, started_at, duration_ms, failed_step, error_kind, warnings"
	if suite != "" {
		q = fmt.Sprintf("SELECT %s FROM %s WHERE suite = %s ORDER BY id DESC LIMIT %s",
			cols, s.tables.SuiteRuns, s.dialect.Placeholder(1), s.dialect.Placeholder(2))
		args = []any{suite, limit}
	} else {
		q = fmt.Sprintf("SELECT %s FROM %s ORDER BY id DESC LIMIT %s",
			cols, s.tables.SuiteRuns, s.dialect.Placeholder(1))
		args = []any{limit}
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Run
	for rows.Next() {
		var (
			r                 Run
			passed, startedAt any
			durMS             int64
			failedStep, kind  sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Suite, &passed, &startedAt, &durMS, &failedStep, &kind, &r.Warnings); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Passed = parseBool(passed)
		r.StartedAt = parseTime(startedAt)
		r.Duration = time.Duration(durMS) * time.Millisecond
		r.FailedStep = failedStep.String
		r.Kind = kind.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// Steps loads the steps of one run in execution order.
func (s *Store) Steps(ctx context.Context, runID int64) ([]StepRun, error) {
	q := fmt.Sprintf("SELECT position, name, outcome, kind, message, duration_ms, cleanup FROM %s WHERE run_id = %s ORDER BY position",
		s.tables.StepRuns, s.dialect.Placeholder(1))
	rows, err := s.db.QueryContext(ctx, q, runID)
	if err != nil {
		return nil, fmt.Errorf("list steps: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []StepRun
	for rows.Next() {
		var (
			st        StepRun
			kind, msg sql.NullString
			durMS     int64
			cleanup   any
		)
		if err := rows.Scan(&st.Position, &st.Name, &st.Outcome, &kind, &msg, &durMS, &cleanup); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		st.Kind = kind.String
		st.Message = msg.String
		st.Duration = time.Duration(durMS) * time.Millisecond
		st.Cleanup = parseBool(cleanup)
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

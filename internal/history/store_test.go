package history

import (
	"context"
	"errors"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loykin/apismoke/internal/smoke"
)

func sampleResult(suite string, passed bool, started time.Time) smoke.Result {
	res := smoke.Result{
		Suite:     suite,
		Passed:    passed,
		StartedAt: started,
		Duration:  1500 * time.Millisecond,
		Steps: []smoke.StepResult{
			{Name: "Login", Outcome: smoke.OutcomePassed, Duration: 120 * time.Millisecond},
			{Name: "Latest weight", Outcome: smoke.OutcomeWarned, Message: "no weight records yet", Duration: 30 * time.Millisecond},
		},
	}
	if !passed {
		res.Steps = append(res.Steps,
			smoke.StepResult{Name: "Add weight", Outcome: smoke.OutcomeFailed, Kind: smoke.KindBusiness,
				Message: `code 500 != 200: {"password":"hunter2"}`, Duration: 40 * time.Millisecond},
			smoke.StepResult{Name: "List weights", Outcome: smoke.OutcomeSkipped},
		)
	}
	return res
}

func openSQLite(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")
	st, err := Open(context.Background(), Config{Driver: "sqlite", SQLite: SQLiteConfig{Path: path}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestSQLite_RecordAndList(t *testing.T) {
	st := openSQLite(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	id1, err := st.Record(ctx, sampleResult("weight", true, started))
	require.NoError(t, err)
	id2, err := st.Record(ctx, sampleResult("weight", false, started.Add(time.Hour)))
	require.NoError(t, err)
	assert.Greater(t, id2, id1)

	runs, err := st.ListRuns(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	latest := runs[0]
	assert.Equal(t, id2, latest.ID)
	assert.Equal(t, "weight", latest.Suite)
	assert.False(t, latest.Passed)
	assert.Equal(t, "Add weight", latest.FailedStep)
	assert.Equal(t, "business", latest.Kind)
	assert.Equal(t, 1, latest.Warnings)
	assert.Equal(t, 1500*time.Millisecond, latest.Duration)
	assert.True(t, latest.StartedAt.Equal(started.Add(time.Hour)), "started_at = %v", latest.StartedAt)

	assert.True(t, runs[1].Passed)
	assert.Empty(t, runs[1].FailedStep)
}

func TestSQLite_StepsAreMaskedAndOrdered(t *testing.T) {
	st := openSQLite(t)
	ctx := context.Background()

	id, err := st.Record(ctx, sampleResult("report", false, time.Now()))
	require.NoError(t, err)

	steps, err := st.Steps(ctx, id)
	require.NoError(t, err)
	require.Len(t, steps, 4)

	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = s.Name
		assert.Equal(t, i+1, s.Position)
	}
	assert.Equal(t, []string{"Login", "Latest weight", "Add weight", "List weights"}, names)

	failed := steps[2]
	assert.Equal(t, "failed", failed.Outcome)
	assert.Equal(t, "business", failed.Kind)
	assert.NotContains(t, failed.Message, "hunter2")
	assert.Contains(t, failed.Message, "***MASKED***")
	assert.Empty(t, steps[0].Kind)
	assert.Equal(t, "skipped", steps[3].Outcome)
}

func TestSQLite_ListRunsFiltersAndLimits(t *testing.T) {
	st := openSQLite(t)
	ctx := context.Background()
	now := time.Now()
	for _, suite := range []string{"food", "report", "food", "weight", "food"} {
		_, err := st.Record(ctx, sampleResult(suite, true, now))
		require.NoError(t, err)
	}

	food, err := st.ListRuns(ctx, "food", 0)
	require.NoError(t, err)
	assert.Len(t, food, 3)
	for _, r := range food {
		assert.Equal(t, "food", r.Suite)
	}

	two, err := st.ListRuns(ctx, "", 2)
	require.NoError(t, err)
	require.Len(t, two, 2)
	assert.Equal(t, "food", two[0].Suite)
	assert.Equal(t, "weight", two[1].Suite)
}

func TestSQLite_EnsureIsIdempotent(t *testing.T) {
	st := openSQLite(t)
	require.NoError(t, st.Ensure(context.Background()))
	require.NoError(t, st.Ensure(context.Background()))
	assert.Equal(t, DriverSQLite, st.Driver())
}

func TestSQLite_LongMessagesAreTruncated(t *testing.T) {
	st := openSQLite(t)
	res := sampleResult("food", true, time.Now())
	res.Steps[0].Message = strings.Repeat("x", 2000)

	id, err := st.Record(context.Background(), res)
	require.NoError(t, err)
	steps, err := st.Steps(context.Background(), id)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(steps[0].Message), maxMessageLen+3)
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "mysql"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported history driver")

	_, err = Open(context.Background(), Config{Driver: "postgres"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dsn or host")

	_, err = Open(context.Background(), Config{
		SQLite: SQLiteConfig{Path: filepath.Join(t.TempDir(), "h.db")},
		Tables: TableNames{SuiteRuns: "runs; DROP TABLE x"},
	})
	require.Error(t, err)
}

func TestTableNames_Validate(t *testing.T) {
	assert.NoError(t, TableNames{}.withDefaults().Validate())
	assert.Error(t, TableNames{SuiteRuns: "a", StepRuns: "a"}.Validate())
	assert.Error(t, TableNames{SuiteRuns: "1abc", StepRuns: "steps"}.Validate())
	assert.Error(t, TableNames{SuiteRuns: "runs", StepRuns: "step-runs"}.Validate())
}

func TestPostgresConfig_ConnString(t *testing.T) {
	dsn, err := PostgresConfig{DSN: " postgres://u:p@db/x "}.ConnString()
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@db/x", dsn)

	dsn, err = PostgresConfig{Host: "db", User: "smoke", Password: "pw", DBName: "hist"}.ConnString()
	require.NoError(t, err)
	assert.Equal(t, "postgres://smoke:pw@db:5432/hist?sslmode=disable", dsn)

	dsn, err = PostgresConfig{Host: "db", Port: 6543, DBName: "hist", SSLMode: "require"}.ConnString()
	require.NoError(t, err)
	assert.Equal(t, "postgres://db:6543/hist?sslmode=require", dsn)

	dsn, err = PostgresConfig{Host: "db", User: "smoke", Password: "p@ss:w/rd?", DBName: "hist"}.ConnString()
	require.NoError(t, err)
	assert.Equal(t, "postgres://smoke:p%40ss%3Aw%2Frd%3F@db:5432/hist?sslmode=disable", dsn)
	parsed, err := url.Parse(dsn)
	require.NoError(t, err)
	pw, _ := parsed.User.Password()
	assert.Equal(t, "p@ss:w/rd?", pw)
	assert.Equal(t, "db:5432", parsed.Host)

	_, err = PostgresConfig{}.ConnString()
	assert.Error(t, err)
}

func TestDialects(t *testing.T) {
	d, err := DialectFor("")
	require.NoError(t, err)
	assert.Equal(t, "?", d.Placeholder(3))
	assert.Equal(t, 1, d.BoolValue(true))

	d, err = DialectFor("postgresql")
	require.NoError(t, err)
	assert.Equal(t, "$3", d.Placeholder(3))
	assert.Equal(t, true, d.BoolValue(true))

	_, err = DialectFor("oracle")
	assert.Error(t, err)
}

func TestParseHelpers(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC)
	assert.True(t, parseTime(ts.Format(time.RFC3339Nano)).Equal(ts))
	assert.True(t, parseTime([]byte(ts.Format(time.RFC3339Nano))).Equal(ts))
	assert.True(t, parseTime(ts).Equal(ts))
	assert.True(t, parseTime("garbage").IsZero())

	assert.True(t, parseBool(int64(1)))
	assert.True(t, parseBool(true))
	assert.False(t, parseBool(int64(0)))
	assert.False(t, parseBool(nil))
}

func TestNew_RequiresDB(t *testing.T) {
	_, err := New(nil, sqliteDialect{}, TableNames{})
	assert.Error(t, err)
	assert.False(t, errors.Is(err, context.Canceled))
}

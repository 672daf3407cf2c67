// Package apismoke runs smoke suites against the health-agent backend.
//
// The suites (food, report, weight) are linear sequences of HTTP calls whose
// status code, envelope business code and nested fields are checked. Results
// can be recorded in a run history database and exported as prometheus metrics.
package apismoke

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/loykin/apismoke/internal/auth"
	acommon "github.com/loykin/apismoke/internal/auth/common"
	"github.com/loykin/apismoke/internal/common"
	"github.com/loykin/apismoke/internal/envelope"
	"github.com/loykin/apismoke/internal/history"
	"github.com/loykin/apismoke/internal/metrics"
	"github.com/loykin/apismoke/internal/smoke"
	"github.com/loykin/apismoke/internal/suites"
	"github.com/loykin/apismoke/internal/util"
)

// Re-exported types

type Options = suites.Options

type Timeouts = suites.Timeouts

type Result = smoke.Result

type StepResult = smoke.StepResult

type ErrorKind = smoke.ErrorKind

type AuthConfig = auth.Config

// AuthMethod is the provider interface for RegisterAuthProvider.
type AuthMethod = auth.Method

type AuthFactory = auth.Factory

type HistoryConfig = history.Config

type MetricsConfig = metrics.Config

type HistoryStore = history.Store

type HistoryRun = history.Run

// SuiteAll expands to every suite in execution order.
const SuiteAll = "all"

// DefaultOptions returns options pointing at a local backend.
func DefaultOptions() Options { return suites.DefaultOptions() }

// SuiteNames lists the available suites in the order "all" runs them.
func SuiteNames() []string { return suites.Names() }

// RegisterAuthProvider adds a token provider selectable through AuthConfig.Type.
func RegisterAuthProvider(typ string, f AuthFactory) { auth.Register(typ, f) }

// ExitCode is 0 when every result passed and 1 otherwise (including no results).
func ExitCode(results ...Result) int { return smoke.ExitCode(results...) }

// Smoke runs suites and fans the results out to the configured sinks.
type Smoke struct {
	Options Options
	// Out receives the human-readable progress; nil means stdout.
	Out   io.Writer
	Color bool
	// ValidateSchemas turns on JSON schema checks of selected responses.
	ValidateSchemas bool
	History         *HistoryConfig
	Metrics         *MetricsConfig
}

// Resolve expands "all" and rejects unknown suite names before anything runs.
func Resolve(names ...string) ([]string, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("no suite given (available: %s, %s)", strings.Join(SuiteNames(), ", "), SuiteAll)
	}
	var out []string
	for _, n := range names {
		n = util.TrimAndLower(n)
		if n == SuiteAll {
			out = append(out, SuiteNames()...)
			continue
		}
		known := false
		for _, s := range SuiteNames() {
			if s == n {
				known = true
				break
			}
		}
		if !known {
			return nil, fmt.Errorf("unknown suite %q (available: %s, %s)", n, strings.Join(SuiteNames(), ", "), SuiteAll)
		}
		out = append(out, n)
	}
	return out, nil
}

// Run executes the named suites in order. Suites never share a session. The
// returned error covers setup problems only; failing suites are reported
// through the results and ExitCode. History and metrics failures are logged.
func (s *Smoke) Run(ctx context.Context, names ...string) ([]Result, error) {
	resolved, err := Resolve(names...)
	if err != nil {
		return nil, err
	}
	// Token endpoints of auth providers follow the same TLS policy as the suites.
	acommon.SetTLSConfig(s.Options.TLS.TLSConfig())

	rep := smoke.NewReporter(s.Out, s.Color)
	deps := suites.Deps{Reporter: rep}
	if s.ValidateSchemas {
		v, err := envelope.DefaultValidator()
		if err != nil {
			return nil, fmt.Errorf("load response schemas: %w", err)
		}
		deps.Validator = v
	}

	built := make([]*smoke.Suite, 0, len(resolved))
	for _, n := range resolved {
		suite, err := suites.Build(n, s.Options, deps)
		if err != nil {
			return nil, err
		}
		built = append(built, suite)
	}

	runner := smoke.NewRunner(rep)
	results := make([]Result, 0, len(built))
	for _, suite := range built {
		res := runner.Run(ctx, suite)
		results = append(results, res)
	}
	rep.Overview(results)

	s.record(ctx, results)
	s.export(ctx, results)
	return results, nil
}

// record writes results to the history store; it never affects the outcome.
func (s *Smoke) record(ctx context.Context, results []Result) {
	if s.History == nil || !s.History.Enabled {
		return
	}
	logger := common.GetLogger().WithComponent("history")
	// Recording happens even after an interrupt so the aborted run is visible.
	ctx = context.WithoutCancel(ctx)
	st, err := history.Open(ctx, *s.History)
	if err != nil {
		logger.Warn("run history unavailable", "error", err)
		return
	}
	defer func() { _ = st.Close() }()
	for _, res := range results {
		if _, err := st.Record(ctx, res); err != nil {
			logger.Warn("failed to record suite run", "suite", res.Suite, "error", err)
		}
	}
}

func (s *Smoke) export(ctx context.Context, results []Result) {
	if s.Metrics == nil || !s.Metrics.Enabled() {
		return
	}
	logger := common.GetLogger().WithComponent("metrics")
	c, err := metrics.New(*s.Metrics)
	if err != nil {
		logger.Warn("metrics unavailable", "error", err)
		return
	}
	for _, res := range results {
		c.Observe(res)
	}
	if err := c.Flush(context.WithoutCancel(ctx)); err != nil {
		logger.Warn("failed to export metrics", "error", err)
	}
}

// RunSuite runs a single suite with default sinks and returns its result.
func RunSuite(ctx context.Context, name string, opts Options, out io.Writer) (Result, error) {
	resolved, err := Resolve(name)
	if err != nil {
		return Result{}, err
	}
	if len(resolved) != 1 {
		return Result{}, fmt.Errorf("suite %q expands to %d suites; use Smoke.Run", name, len(resolved))
	}
	s := &Smoke{Options: opts, Out: out}
	results, err := s.Run(ctx, resolved[0])
	if err != nil {
		return Result{}, err
	}
	return results[0], nil
}

// OpenHistory opens the run history database described by cfg.
func OpenHistory(ctx context.Context, cfg HistoryConfig) (*HistoryStore, error) {
	return history.Open(ctx, cfg)
}

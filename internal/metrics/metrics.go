package metrics

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/loykin/apismoke/internal/common"
	"github.com/loykin/apismoke/internal/constants"
	"github.com/loykin/apismoke/internal/smoke"
	"github.com/loykin/apismoke/internal/util"
)

// Config controls where suite metrics go. Both sinks are optional.
type Config struct {
	// Textfile is a node-exporter textfile collector path (*.prom).
	Textfile       string        `mapstructure:"textfile" yaml:"textfile"`
	PushgatewayURL string        `mapstructure:"pushgateway_url" yaml:"pushgateway_url"`
	Job            string        `mapstructure:"job" yaml:"job"`
	Instance       string        `mapstructure:"instance" yaml:"instance"`
	Timeout        time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// Enabled reports whether at least one sink is configured.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.Textfile) != "" || strings.TrimSpace(c.PushgatewayURL) != ""
}

// Collector turns suite results into prometheus series on a private registry.
type Collector struct {
	cfg      Config
	registry *prometheus.Registry

	suiteDuration *prometheus.HistogramVec
	suiteRuns     *prometheus.CounterVec
	steps         *prometheus.CounterVec
	lastSuccess   *prometheus.GaugeVec
}

func New(cfg Config) (*Collector, error) {
	cfg.Job = util.TrimWithDefault(cfg.Job, constants.DefaultMetricsJob)
	if cfg.Timeout <= 0 {
		cfg.Timeout = constants.DefaultPushTimeout
	}
	if strings.TrimSpace(cfg.Instance) == "" {
		host, err := os.Hostname()
		if err != nil {
			host = "unknown"
		}
		cfg.Instance = host
	}

	ns := constants.DefaultMetricsNamespace
	c := &Collector{
		cfg:      cfg,
		registry: prometheus.NewRegistry(),
		suiteDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "suite_duration_seconds",
			Help:      "Wall-clock duration of a smoke suite run.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"suite", "status"}),
		suiteRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "suite_runs_total",
			Help:      "Smoke suite runs by final status.",
		}, []string{"suite", "status"}),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "steps_total",
			Help:      "Executed steps by outcome and failure kind.",
		}, []string{"suite", "outcome", "kind"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "suite_last_success_timestamp_seconds",
			Help:      "Unix time of the last passing run of a suite.",
		}, []string{"suite"}),
	}
	for _, col := range []prometheus.Collector{c.suiteDuration, c.suiteRuns, c.steps, c.lastSuccess} {
		if err := c.registry.Register(col); err != nil {
			return nil, fmt.Errorf("register metric: %w", err)
		}
	}
	return c, nil
}

const maxLabelLength = 64

// label strips control characters and bounds the length of a label value.
func label(v string) string {
	clean := strings.Map(func(r rune) rune {
		if r < 0x20 {
			return '_'
		}
		return r
	}, v)
	if r := []rune(clean); len(r) > maxLabelLength {
		return string(r[:maxLabelLength])
	}
	return clean
}

func status(passed bool) string {
	if passed {
		return "passed"
	}
	return "failed"
}

// Observe records one suite result.
func (c *Collector) Observe(res smoke.Result) {
	suite := label(res.Suite)
	st := status(res.Passed)
	c.suiteDuration.WithLabelValues(suite, st).Observe(res.Duration.Seconds())
	c.suiteRuns.WithLabelValues(suite, st).Inc()
	if res.Passed {
		end := res.StartedAt.Add(res.Duration)
		c.lastSuccess.WithLabelValues(suite).Set(float64(end.UnixNano()) / 1e9)
	}
	for _, s := range res.Steps {
		kind := ""
		if s.Kind != smoke.KindUnknown {
			kind = s.Kind.String()
		}
		c.steps.WithLabelValues(suite, string(s.Outcome), kind).Inc()
	}
}

// Flush writes the textfile and pushes to the gateway, whichever are configured.
func (c *Collector) Flush(ctx context.Context) error {
	var errs []string
	if strings.TrimSpace(c.cfg.Textfile) != "" {
		if err := c.WriteTextfile(); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if strings.TrimSpace(c.cfg.PushgatewayURL) != "" {
		if err := c.Push(ctx); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("flush metrics: %s", strings.Join(errs, "; "))
	}
	return nil
}

// WriteTextfile atomically replaces the configured .prom file.
func (c *Collector) WriteTextfile() error {
	if err := prometheus.WriteToTextfile(c.cfg.Textfile, c.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	common.GetLogger().WithComponent("metrics").Debug("metrics textfile written", "path", c.cfg.Textfile)
	return nil
}

// Push sends the registry to the Pushgateway, replacing the job's previous group.
func (c *Collector) Push(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	pusher := push.New(c.cfg.PushgatewayURL, c.cfg.Job).
		Gatherer(c.registry).
		Grouping("instance", c.cfg.Instance)
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	common.GetLogger().WithComponent("metrics").Debug("metrics pushed", "job", c.cfg.Job, "instance", c.cfg.Instance)
	return nil
}

// Registry exposes the underlying registry for inspection.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

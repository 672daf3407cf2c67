package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/loykin/apismoke"
	"github.com/loykin/apismoke/internal/common"
	"github.com/loykin/apismoke/internal/httpc"
)

type LoggingConfig struct {
	Level         string `yaml:"level"`  // error, warn, info, debug
	Format        string `yaml:"format"` // text, json, color
	File          string `yaml:"file"`   // rotated with lumberjack when set
	MaxSizeMB     int    `yaml:"max_size_mb"`
	MaxBackups    int    `yaml:"max_backups"`
	MaxAgeDays    int    `yaml:"max_age_days"`
	Compress      bool   `yaml:"compress"`
	MaskSensitive *bool  `yaml:"mask_sensitive"`
}

type ClientConfig struct {
	Insecure      bool   `yaml:"insecure"`
	MinTLSVersion string `yaml:"min_tls_version"`
	MaxTLSVersion string `yaml:"max_tls_version"`
}

// TimeoutsConfig holds duration strings such as "10s".
type TimeoutsConfig struct {
	Health  string `yaml:"health"`
	Login   string `yaml:"login"`
	Analyze string `yaml:"analyze"`
	Call    string `yaml:"call"`
}

type FoodConfig struct {
	Image  string `yaml:"image"`
	Upload bool   `yaml:"upload"`
	// SuccessCode is a pointer because 0 is the default sentinel.
	SuccessCode *int64 `yaml:"success_code"`
}

type ReportConfig struct {
	Period string `yaml:"period"`
	Days   int    `yaml:"days"`
}

type WeightConfig struct {
	Value   float64 `yaml:"value"`
	BodyFat float64 `yaml:"body_fat"`
}

type MetricsConfig struct {
	Textfile       string `yaml:"textfile"`
	PushgatewayURL string `yaml:"pushgateway_url"`
	Job            string `yaml:"job"`
	Instance       string `yaml:"instance"`
	Timeout        string `yaml:"timeout"`
}

// ConfigDoc is the YAML configuration file. Flags and APISMOKE_* variables
// override the connection and credential fields.
type ConfigDoc struct {
	BaseURL         string                 `yaml:"base_url"`
	FoodBaseURL     string                 `yaml:"food_base_url"`
	Username        string                 `yaml:"username"`
	Password        string                 `yaml:"password"`
	UserID          int64                  `yaml:"user_id"`
	Cleanup         bool                   `yaml:"cleanup"`
	ValidateSchemas *bool                  `yaml:"validate_schemas"`
	SuccessCode     *int64                 `yaml:"success_code"`
	Auth            *apismoke.AuthConfig   `yaml:"auth"`
	Food            FoodConfig             `yaml:"food"`
	Report          ReportConfig           `yaml:"report"`
	Weight          WeightConfig           `yaml:"weight"`
	Timeouts        TimeoutsConfig         `yaml:"timeouts"`
	Client          ClientConfig           `yaml:"client"`
	Logging         LoggingConfig          `yaml:"logging"`
	History         apismoke.HistoryConfig `yaml:"history"`
	Metrics         MetricsConfig          `yaml:"metrics"`
}

func (c *ConfigDoc) Load(path string) error {
	clean := filepath.Clean(path)
	if info, statErr := os.Stat(clean); statErr != nil || !info.Mode().IsRegular() {
		if statErr != nil {
			return statErr
		}
		return fmt.Errorf("not a regular file: %s", clean)
	}
	// #nosec G304 -- config path is provided intentionally by the user/CI; cleaned and validated above
	f, err := os.Open(clean)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("parse config %s: %w", clean, err)
	}
	return nil
}

// defaultConfigFile is read from the working directory when --config is not given.
const defaultConfigFile = "apismoke.yaml"

// loadConfig reads the file named by the config key, falling back to
// defaultConfigFile when it exists. Running without any file is fine.
func loadConfig(v *viper.Viper) (*ConfigDoc, error) {
	doc := &ConfigDoc{}
	path := strings.TrimSpace(v.GetString("config"))
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err != nil {
			return doc, nil
		}
		path = defaultConfigFile
	}
	if err := doc.Load(path); err != nil {
		return nil, err
	}
	return doc, nil
}

// applyOverrides lets flags and environment variables win over the file.
func (c *ConfigDoc) applyOverrides(v *viper.Viper) {
	str := func(key string, dst *string) {
		if v.IsSet(key) {
			if s := strings.TrimSpace(v.GetString(key)); s != "" {
				*dst = s
			}
		}
	}
	str("base_url", &c.BaseURL)
	str("food_base_url", &c.FoodBaseURL)
	str("username", &c.Username)
	str("password", &c.Password)
	str("log_level", &c.Logging.Level)
	if v.IsSet("cleanup") {
		c.Cleanup = v.GetBool("cleanup")
	}
	if v.IsSet("upload") {
		c.Food.Upload = v.GetBool("upload")
	}
}

func parseDuration(name, s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration %q: %w", name, s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s duration %q: must be positive", name, s)
	}
	return d, nil
}

// Options converts the document into suite options. Unset values keep the defaults.
func (c *ConfigDoc) Options() (apismoke.Options, error) {
	opts := apismoke.DefaultOptions()
	setStr := func(dst *string, s string) {
		if s = strings.TrimSpace(s); s != "" {
			*dst = s
		}
	}
	setStr(&opts.BaseURL, c.BaseURL)
	setStr(&opts.FoodBaseURL, c.FoodBaseURL)
	setStr(&opts.Username, c.Username)
	setStr(&opts.Password, c.Password)
	setStr(&opts.ImagePath, c.Food.Image)
	setStr(&opts.ReportPeriod, strings.ToUpper(c.Report.Period))
	if c.UserID != 0 {
		opts.UserID = c.UserID
	}
	if c.Report.Days > 0 {
		opts.ReportDays = c.Report.Days
	}
	if c.Weight.Value > 0 {
		opts.Weight = c.Weight.Value
	}
	if c.Weight.BodyFat > 0 {
		opts.BodyFat = c.Weight.BodyFat
	}
	if c.Food.SuccessCode != nil {
		opts.FoodSuccessCode = *c.Food.SuccessCode
	}
	if c.SuccessCode != nil {
		opts.SuccessCode = *c.SuccessCode
	}
	opts.Upload = c.Food.Upload
	opts.Cleanup = c.Cleanup
	opts.Auth = c.Auth

	for _, tv := range []string{c.Client.MinTLSVersion, c.Client.MaxTLSVersion} {
		if strings.TrimSpace(tv) != "" && httpc.ParseTLSVersion(tv) == 0 {
			return opts, fmt.Errorf("invalid TLS version %q (valid: 1.0, 1.1, 1.2, 1.3)", tv)
		}
	}
	opts.TLS = httpc.Options{
		Insecure:      c.Client.Insecure,
		MinTLSVersion: c.Client.MinTLSVersion,
		MaxTLSVersion: c.Client.MaxTLSVersion,
	}

	timeouts := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"health", c.Timeouts.Health, &opts.Timeouts.Health},
		{"login", c.Timeouts.Login, &opts.Timeouts.Login},
		{"analyze", c.Timeouts.Analyze, &opts.Timeouts.Analyze},
		{"call", c.Timeouts.Call, &opts.Timeouts.Call},
	}
	for _, t := range timeouts {
		d, err := parseDuration(t.name, t.raw)
		if err != nil {
			return opts, err
		}
		if d > 0 {
			*t.dst = d
		}
	}
	return opts, nil
}

// SchemaValidation defaults to on.
func (c *ConfigDoc) SchemaValidation() bool {
	return c.ValidateSchemas == nil || *c.ValidateSchemas
}

func (c *ConfigDoc) MetricsSink() (*apismoke.MetricsConfig, error) {
	timeout, err := parseDuration("metrics timeout", c.Metrics.Timeout)
	if err != nil {
		return nil, err
	}
	return &apismoke.MetricsConfig{
		Textfile:       strings.TrimSpace(c.Metrics.Textfile),
		PushgatewayURL: strings.TrimSpace(c.Metrics.PushgatewayURL),
		Job:            c.Metrics.Job,
		Instance:       c.Metrics.Instance,
		Timeout:        timeout,
	}, nil
}

// SetupLogging installs the global logger. Logs go to stderr or the rotated
// file; suite progress stays on stdout.
func (c *ConfigDoc) SetupLogging(noColor bool) error {
	level, ok := common.ParseLogLevel(c.Logging.Level)
	if !ok {
		return fmt.Errorf("invalid logging level: %s (valid: error, warn, info, debug)", c.Logging.Level)
	}

	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch format {
	case "":
		format = common.FormatText
	case common.FormatText, common.FormatJSON:
	case common.FormatColor, "colour":
		format = common.FormatColor
		if noColor {
			format = common.FormatText
		}
	default:
		return fmt.Errorf("invalid logging format: %s (valid: text, json, color)", c.Logging.Format)
	}

	out := common.FileOutput{
		Path:       c.Logging.File,
		MaxSizeMB:  c.Logging.MaxSizeMB,
		MaxBackups: c.Logging.MaxBackups,
		MaxAgeDays: c.Logging.MaxAgeDays,
		Compress:   c.Logging.Compress,
	}
	w, err := out.OpenWriter()
	if err != nil {
		return err
	}

	masking := true
	if c.Logging.MaskSensitive != nil {
		masking = *c.Logging.MaskSensitive
	}
	common.EnableMasking(masking)

	logger := common.NewLoggerWithWriter(level, format, w)
	common.SetDefaultLogger(logger)
	logger.Debug("logging configured", "level", level.String(), "format", format, "file", c.Logging.File, "mask_sensitive", masking)
	return nil
}

package history

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"

	"github.com/loykin/apismoke/internal/constants"
	"github.com/loykin/apismoke/internal/util"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config selects the backing database for run history.
type Config struct {
	Enabled  bool           `mapstructure:"enabled" yaml:"enabled"`
	Driver   string         `mapstructure:"driver" yaml:"driver"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite" yaml:"sqlite"`
	Postgres PostgresConfig `mapstructure:"postgres" yaml:"postgres"`
	Tables   TableNames     `mapstructure:"tables" yaml:"tables"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// DSN returns a modernc sqlite DSN with a busy timeout and foreign keys on.
func (c SQLiteConfig) DSN() string {
	path := util.TrimWithDefault(c.Path, constants.DefaultHistoryDBFile)
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
}

type PostgresConfig struct {
	DSN      string `mapstructure:"dsn" yaml:"dsn"`
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	User     string `mapstructure:"user" yaml:"user"`
	Password string `mapstructure:"password" yaml:"password"`
	DBName   string `mapstructure:"dbname" yaml:"dbname"`
	SSLMode  string `mapstructure:"sslmode" yaml:"sslmode"`
}

// ConnString prefers an explicit DSN and otherwise builds one from the parts.
func (p PostgresConfig) ConnString() (string, error) {
	if dsn, ok := util.TrimEmptyCheck(p.DSN); ok {
		return dsn, nil
	}
	host, ok := util.TrimEmptyCheck(p.Host)
	if !ok {
		return "", fmt.Errorf("postgres history needs dsn or host")
	}
	port := p.Port
	if port == 0 {
		port = constants.DefaultPostgresPort
	}
	ssl := util.TrimWithDefault(p.SSLMode, constants.DefaultPostgresSSLMode)
	fields := util.TrimSpaceFields(p.User, p.DBName)
	u := url.URL{
		Scheme:   "postgres",
		Host:     host + ":" + strconv.Itoa(port),
		Path:     "/" + fields[1],
		RawQuery: url.Values{"sslmode": {ssl}}.Encode(),
	}
	// Userinfo is escaped by url.URL, so passwords may contain @, / or :.
	switch {
	case fields[0] != "" && p.Password != "":
		u.User = url.UserPassword(fields[0], p.Password)
	case fields[0] != "":
		u.User = url.User(fields[0])
	}
	return u.String(), nil
}

// TableNames lets several installations share one database.
type TableNames struct {
	SuiteRuns string `mapstructure:"suite_runs" yaml:"suite_runs"`
	StepRuns  string `mapstructure:"step_runs" yaml:"step_runs"`
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

func (t TableNames) withDefaults() TableNames {
	t.SuiteRuns = util.TrimWithDefault(t.SuiteRuns, constants.DefaultSuiteRunsTable)
	t.StepRuns = util.TrimWithDefault(t.StepRuns, constants.DefaultStepRunsTable)
	return t
}

// Validate rejects names that cannot be used as bare SQL identifiers.
func (t TableNames) Validate() error {
	for _, n := range []string{t.SuiteRuns, t.StepRuns} {
		if !identRe.MatchString(n) {
			return fmt.Errorf("invalid history table name %q", n)
		}
	}
	if t.SuiteRuns == t.StepRuns {
		return fmt.Errorf("history tables must differ, both are %q", t.SuiteRuns)
	}
	return nil
}

// Package suites builds the food, report and weight smoke suites.
package suites

import (
	"fmt"
	"strings"
	"time"

	"github.com/loykin/apismoke/internal/auth"
	"github.com/loykin/apismoke/internal/constants"
	"github.com/loykin/apismoke/internal/envelope"
	"github.com/loykin/apismoke/internal/httpc"
	"github.com/loykin/apismoke/internal/smoke"
	"github.com/loykin/apismoke/internal/util"
	"github.com/tidwall/gjson"
)

// Suite names in the order "all" runs them.
const (
	NameFood   = "food"
	NameReport = "report"
	NameWeight = "weight"
)

// Timeouts are the per-call limits.
type Timeouts struct {
	Health  time.Duration
	Login   time.Duration
	Analyze time.Duration
	Call    time.Duration
}

// Options configure every suite. Start from DefaultOptions: success codes are
// taken as given because zero is a valid sentinel.
type Options struct {
	BaseURL     string
	FoodBaseURL string
	Username    string
	Password    string
	UserID      int64
	Auth        *auth.Config

	ImagePath string
	Upload    bool

	// Cleanup deletes records created by the report and weight suites.
	Cleanup bool

	ReportPeriod string
	ReportDays   int
	Weight       float64
	BodyFat      float64

	FoodSuccessCode int64
	SuccessCode     int64

	TLS           httpc.Options
	Timeouts      Timeouts
	PreviewLength int
	Now           func() time.Time
}

func DefaultOptions() Options {
	return Options{
		BaseURL:         constants.DefaultBaseURL,
		FoodBaseURL:     constants.DefaultFoodBaseURL,
		Username:        constants.DefaultUsername,
		Password:        constants.DefaultPassword,
		UserID:          constants.DefaultUserID,
		ReportPeriod:    constants.DefaultReportPeriod,
		ReportDays:      constants.DefaultReportDays,
		Weight:          constants.DefaultWeightValue,
		BodyFat:         constants.DefaultBodyFat,
		FoodSuccessCode: constants.FoodSuccessCode,
		SuccessCode:     constants.DefaultSuccessCode,
		Timeouts: Timeouts{
			Health:  constants.DefaultHealthTimeout,
			Login:   constants.DefaultLoginTimeout,
			Analyze: constants.DefaultAnalyzeTimeout,
			Call:    constants.DefaultCallTimeout,
		},
		PreviewLength: constants.PreviewMedium,
		Now:           time.Now,
	}
}

// Deps are collaborators shared by all suites of one run.
type Deps struct {
	Reporter *smoke.Reporter
	// Validator enables schema checks; nil skips them.
	Validator *envelope.Validator
	// Lookup resolves ${VAR} references in auth provider configs; nil uses the environment.
	Lookup util.LookupFunc
}

// Builder constructs a suite from options.
type Builder func(opts Options, deps Deps) (*smoke.Suite, error)

var builders = map[string]Builder{
	NameFood:   Food,
	NameReport: Report,
	NameWeight: Weight,
}

// Names lists the suites in execution order.
func Names() []string {
	return []string{NameFood, NameReport, NameWeight}
}

// Build constructs the named suite.
func Build(name string, opts Options, deps Deps) (*smoke.Suite, error) {
	b, ok := builders[util.TrimAndLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown suite %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return b(opts.withDefaults(), deps.withDefaults())
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.BaseURL == "" {
		o.BaseURL = d.BaseURL
	}
	if o.FoodBaseURL == "" {
		o.FoodBaseURL = d.FoodBaseURL
	}
	if o.Username == "" {
		o.Username = d.Username
	}
	if o.Password == "" {
		o.Password = d.Password
	}
	if o.UserID == 0 {
		o.UserID = d.UserID
	}
	if o.ReportPeriod == "" {
		o.ReportPeriod = d.ReportPeriod
	}
	if o.ReportDays <= 0 {
		o.ReportDays = d.ReportDays
	}
	if o.Weight == 0 {
		o.Weight = d.Weight
	}
	if o.Timeouts.Health <= 0 {
		o.Timeouts.Health = d.Timeouts.Health
	}
	if o.Timeouts.Login <= 0 {
		o.Timeouts.Login = d.Timeouts.Login
	}
	if o.Timeouts.Analyze <= 0 {
		o.Timeouts.Analyze = d.Timeouts.Analyze
	}
	if o.Timeouts.Call <= 0 {
		o.Timeouts.Call = d.Timeouts.Call
	}
	if o.PreviewLength <= 0 {
		o.PreviewLength = d.PreviewLength
	}
	if o.Now == nil {
		o.Now = d.Now
	}
	return o
}

func (d Deps) withDefaults() Deps {
	if d.Reporter == nil {
		d.Reporter = smoke.NewReporter(nil, false)
	}
	return d
}

func newClient(baseURL string, opts Options, deps Deps) *smoke.Client {
	hopts := opts.TLS
	hopts.BaseURL = baseURL
	return smoke.NewClient(httpc.New(hopts), smoke.ClientConfig{
		Reporter:       deps.Reporter,
		Validator:      deps.Validator,
		DefaultTimeout: opts.Timeouts.Call,
		PreviewLength:  opts.PreviewLength,
	})
}

// listItems returns the records of a list response. Both a bare array and a
// page object ({records|list|rows: [...]}) are accepted.
func listItems(data gjson.Result) ([]gjson.Result, bool) {
	if data.IsArray() {
		return data.Array(), true
	}
	for _, key := range []string{"records", "list", "rows"} {
		if r := data.Get(key); r.IsArray() {
			return r.Array(), true
		}
	}
	return nil, false
}

// firstPresent returns the first of paths that has a non-null value.
func firstPresent(obj gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		if r := obj.Get(p); envelope.Present(r) {
			return r
		}
	}
	return gjson.Result{}
}

// value converts r for printing; objects and arrays keep their JSON text.
func value(r gjson.Result) any {
	switch {
	case !envelope.Present(r):
		return nil
	case r.IsObject(), r.IsArray():
		return r.Raw
	default:
		return r.Value()
	}
}

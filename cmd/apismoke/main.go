package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// errSuitesFailed signals a failing run. The reporter has already printed why.
var errSuitesFailed = errors.New("one or more suites failed")

// newRootCmd builds the command tree bound to v. Tests use a fresh viper per run.
func newRootCmd(v *viper.Viper) *cobra.Command {
	root := &cobra.Command{
		Use:           "apismoke",
		Short:         "Smoke-test the health-agent backend API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Environment variables: APISMOKE_BASE_URL, APISMOKE_PASSWORD, ...
	v.SetEnvPrefix("APISMOKE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	pf := root.PersistentFlags()
	pf.String("config", "", "path to the apismoke yaml config (default ./"+defaultConfigFile+" when present)")
	pf.String("base-url", "", "backend base URL (report and weight suites)")
	pf.String("food-base-url", "", "base URL of the AI food endpoints")
	pf.String("username", "", "login username")
	pf.String("password", "", "login password")
	pf.Bool("cleanup", false, "delete reports and weight records created by the run")
	pf.String("log-level", "", "log level: error, warn, info, debug")
	pf.Bool("no-color", false, "disable coloured output")

	for key, flag := range map[string]string{
		"config":        "config",
		"base_url":      "base-url",
		"food_base_url": "food-base-url",
		"username":      "username",
		"password":      "password",
		"cleanup":       "cleanup",
		"log_level":     "log-level",
		"no_color":      "no-color",
	} {
		_ = v.BindPFlag(key, pf.Lookup(flag))
	}

	root.AddCommand(
		newSuiteCmd(v, "food [image]", "Analyse a food image (health check first)", true, "food"),
		newSuiteCmd(v, "report", "Generate, list and read a nutrition report", false, "report"),
		newSuiteCmd(v, "weight", "Add a weight record and read it back", false, "weight"),
		newSuiteCmd(v, "all [image]", "Run food, report and weight in order", true, "all"),
		newHistoryCmd(v),
		newStubCmd(v),
	)
	return root
}

func main() {
	if err := newRootCmd(viper.New()).Execute(); err != nil {
		if errors.Is(err, errSuitesFailed) {
			exitHandler.Exit(1)
			return
		}
		exitHandler.LogFatalError(err, "command execution failed")
	}
}

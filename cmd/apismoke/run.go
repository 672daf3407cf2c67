package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/loykin/apismoke"
)

func newSuiteCmd(v *viper.Viper, use, short string, withImage bool, suite string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuites(cmd, v, suite, args)
		},
	}
	if withImage {
		cmd.Args = cobra.MaximumNArgs(1)
		cmd.Flags().Bool("upload", false, "send the image as multipart to the upload endpoint")
	}
	return cmd
}

// signalContext is cancelled on SIGINT/SIGTERM; in-flight calls abort and
// cleanup steps still run.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func runSuites(cmd *cobra.Command, v *viper.Viper, suite string, args []string) error {
	doc, err := loadConfig(v)
	if err != nil {
		return err
	}
	doc.applyOverrides(v)
	if f := cmd.Flags().Lookup("upload"); f != nil && f.Changed {
		doc.Food.Upload, _ = cmd.Flags().GetBool("upload")
	}
	noColor := v.GetBool("no_color")
	if err := doc.SetupLogging(noColor); err != nil {
		return err
	}

	opts, err := doc.Options()
	if err != nil {
		return err
	}
	if len(args) == 1 {
		opts.ImagePath = args[0]
	}
	sink, err := doc.MetricsSink()
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	s := &apismoke.Smoke{
		Options:         opts,
		Out:             cmd.OutOrStdout(),
		Color:           !noColor,
		ValidateSchemas: doc.SchemaValidation(),
		History:         &doc.History,
		Metrics:         sink,
	}
	results, err := s.Run(ctx, suite)
	if err != nil {
		return err
	}
	if apismoke.ExitCode(results...) != 0 {
		return errSuitesFailed
	}
	return nil
}

package main

import (
	"fmt"
	"net"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/loykin/apismoke/internal/stub"
)

func newStubCmd(v *viper.Viper) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "stub",
		Short: "Serve an in-memory test double of the backend",
		Long: "Serves every endpoint the suites call from memory. Point both " +
			"--base-url and --food-base-url at it.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadConfig(v)
			if err != nil {
				return err
			}
			doc.applyOverrides(v)
			if err := doc.SetupLogging(v.GetBool("no_color")); err != nil {
				return err
			}

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}
			srv := stub.New(stub.Options{
				Username: doc.Username,
				Password: doc.Password,
				UserID:   doc.UserID,
			})
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "stub backend listening on http://%s (Ctrl+C to stop)\n", ln.Addr())

			ctx, stop := signalContext(cmd.Context())
			defer stop()
			return srv.Serve(ctx, ln)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8088", "listen address")
	return cmd
}

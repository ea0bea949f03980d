// Package cli is the indicompute command line: one command per page of the
// IndiCompute client, plus the actions each page offers.
package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/indicompute/indicompute/internal/config"
	"github.com/indicompute/indicompute/internal/views"
)

// NewRootCommand builds the command tree reading from in and writing pages to
// out. Prompts and logs go to errOut.
func NewRootCommand(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := newApp(in, out, errOut)

	root := &cobra.Command{
		Use:           "indicompute",
		Short:         "Rent GPUs, share yours and manage your IndiCompute wallet",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		RunE: a.run(func(ctx context.Context, _ []string) error {
			return a.load(ctx, views.NewHome())
		}),
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default ~/.indicompute/config.yaml)")
	flags.String("api-url", config.DefaultAPIURL, "IndiCompute backend base URL")
	flags.String("log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	flags.Bool("insecure", false, "skip TLS certificate verification")
	a.v.BindPFlag(config.KeyAPIURL, flags.Lookup("api-url"))
	a.v.BindPFlag(config.KeyLogLevel, flags.Lookup("log-level"))
	a.v.BindPFlag(config.KeyInsecure, flags.Lookup("insecure"))

	root.AddCommand(
		a.newLoginCommand(),
		a.newSignupCommand(),
		a.newLogoutCommand(),
		a.newDashboardCommand(),
		a.newNodesCommand(),
		a.newMarketplaceCommand(),
		a.newJobsCommand(),
		a.newSubmitJobCommand(),
		a.newWalletCommand(),
	)
	return root
}

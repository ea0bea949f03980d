package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/indicompute/indicompute/internal/auth"
	"github.com/indicompute/indicompute/internal/views"
)

func parseID(s, what string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, errors.Errorf("invalid %s %q", what, s)
	}
	return id, nil
}

// prepare loads p before an action runs on it. Only a login redirect stops
// the action; other load failures surface when the page is shown.
func prepare(ctx context.Context, p views.Page) error {
	if err := p.Load(ctx); errors.Is(err, auth.ErrLoginRequired) {
		return err
	}
	return nil
}

func (a *App) showPage(ctx context.Context, p views.Page, watch bool) error {
	if watch {
		return a.watch(ctx, p)
	}
	return a.load(ctx, p)
}

func (a *App) newDashboardCommand() *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show your profile, balance and node count",
		Args:  cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, _ []string) error {
			return a.showPage(ctx, views.NewDashboard(a.env), watch)
		}),
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "keep refreshing until interrupted")
	return cmd
}

func (a *App) newNodesCommand() *cobra.Command {
	list := func(ctx context.Context, _ []string) error {
		return a.load(ctx, views.NewNodes(a.env))
	}
	cmd := &cobra.Command{
		Use:   "nodes",
		Short: "List and register your GPU nodes",
		Args:  cobra.NoArgs,
		RunE:  a.run(list),
	}

	var form views.NodeForm
	register := &cobra.Command{
		Use:   "register",
		Short: "Register a GPU node",
		Args:  cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, _ []string) error {
			v := views.NewNodes(a.env)
			err := v.Register(ctx, form)
			if errors.Is(err, auth.ErrLoginRequired) {
				return err
			}
			a.show(v)
			return reported(err)
		}),
	}
	register.Flags().StringVar(&form.Location, "location", "", "where the node is hosted")
	register.Flags().StringVar(&form.GPUModel, "model", "", "GPU model, e.g. RTX 4090")
	register.Flags().StringVar(&form.GPUCount, "count", "", "number of GPUs")
	register.Flags().StringVar(&form.PricePerHour, "price", "", "price per hour in INR")

	cmd.AddCommand(
		&cobra.Command{Use: "list", Short: "List your GPU nodes", Args: cobra.NoArgs, RunE: a.run(list)},
		register,
	)
	return cmd
}

func (a *App) newMarketplaceCommand() *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "marketplace",
		Short: "Browse every GPU node on the network",
		Args:  cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, _ []string) error {
			return a.showPage(ctx, views.NewMarketplace(a.env), watch)
		}),
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "keep refreshing until interrupted")

	setPrice := &cobra.Command{
		Use:   "set-price <node-id> <price>",
		Short: "Set the hourly price of a node you own",
		Args:  cobra.ExactArgs(2),
		RunE: a.run(func(ctx context.Context, args []string) error {
			id, err := parseID(args[0], "node id")
			if err != nil {
				return err
			}
			v := views.NewMarketplace(a.env)
			if err := prepare(ctx, v); err != nil {
				return err
			}
			err = v.SetPrice(ctx, id, args[1])
			if errors.Is(err, auth.ErrLoginRequired) {
				return err
			}
			a.show(v)
			return reported(err)
		}),
	}

	submit := &cobra.Command{
		Use:   "submit <node-id> <command...>",
		Short: "Run a command on someone else's node",
		Args:  cobra.MinimumNArgs(2),
		RunE: a.run(func(ctx context.Context, args []string) error {
			id, err := parseID(args[0], "node id")
			if err != nil {
				return err
			}
			v := views.NewMarketplace(a.env)
			if err := prepare(ctx, v); err != nil {
				return err
			}
			_, err = v.SubmitJob(ctx, id, strings.Join(args[1:], " "))
			if errors.Is(err, auth.ErrLoginRequired) {
				return err
			}
			a.show(v)
			return reported(err)
		}),
	}

	cmd.AddCommand(setPrice, submit)
	return cmd
}

func (a *App) newJobsCommand() *cobra.Command {
	list := func(ctx context.Context, _ []string) error {
		return a.load(ctx, views.NewJobs(a.env))
	}
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List your jobs",
		Args:  cobra.NoArgs,
		RunE:  a.run(list),
	}

	var (
		nodeID  int64
		nodeKey string
	)
	submit := &cobra.Command{
		Use:   "submit [command...]",
		Short: "Submit a job to a node (command defaults to " + views.DefaultJobCommand + ")",
		RunE: a.run(func(ctx context.Context, args []string) error {
			v := views.NewJobs(a.env)
			_, err := v.Submit(ctx, views.JobRequest{
				NodeID:  nodeID,
				NodeKey: nodeKey,
				Command: strings.Join(args, " "),
			})
			if errors.Is(err, auth.ErrLoginRequired) {
				return err
			}
			a.show(v)
			return reported(err)
		}),
	}
	submit.Flags().Int64Var(&nodeID, "node", 0, "id of the node to run on")
	submit.Flags().StringVar(&nodeKey, "key", "", "node key (looked up in the marketplace when omitted)")
	submit.MarkFlagRequired("node")

	complete := &cobra.Command{
		Use:   "complete <job-id>",
		Short: "Mark a job completed and credit the node owner",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(ctx context.Context, args []string) error {
			id, err := parseID(args[0], "job id")
			if err != nil {
				return err
			}
			v := views.NewJobs(a.env)
			if err := prepare(ctx, v); err != nil {
				return err
			}
			err = v.Complete(ctx, id)
			if errors.Is(err, auth.ErrLoginRequired) {
				return err
			}
			a.show(v)
			return reported(err)
		}),
	}

	cmd.AddCommand(
		&cobra.Command{Use: "list", Short: "List your jobs", Args: cobra.NoArgs, RunE: a.run(list)},
		submit,
		complete,
	)
	return cmd
}

func (a *App) newSubmitJobCommand() *cobra.Command {
	var form views.SubmitJobForm
	cmd := &cobra.Command{
		Use:   "submit-job",
		Short: "Submit a job with an explicit node id and key",
		Args:  cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, _ []string) error {
			v := views.NewSubmitJob(a.env)
			_, err := v.Submit(ctx, form)
			if errors.Is(err, auth.ErrLoginRequired) {
				return err
			}
			a.show(v)
			return reported(err)
		}),
	}
	cmd.Flags().StringVar(&form.NodeID, "node-id", "", "id of the node to run on")
	cmd.Flags().StringVar(&form.NodeKey, "node-key", "", "the node's key")
	cmd.Flags().StringVar(&form.Command, "command", "", "command to run")
	return cmd
}

func (a *App) newWalletCommand() *cobra.Command {
	var (
		watch  bool
		filter string
	)
	wallet := func(filter string) (*views.Wallet, error) {
		f, err := views.ParseFilter(filter)
		if err != nil {
			return nil, err
		}
		v := views.NewWallet(a.env)
		v.SetFilter(f)
		return v, nil
	}

	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Show your balance and transactions",
		Args:  cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, _ []string) error {
			v, err := wallet(filter)
			if err != nil {
				return err
			}
			return a.showPage(ctx, v, watch)
		}),
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "keep refreshing until interrupted")
	cmd.Flags().StringVar(&filter, "filter", string(views.FilterAll), "transactions to list: all, credit or debit")

	topUp := &cobra.Command{
		Use:   "topup <amount>",
		Short: "Add funds to your wallet",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(ctx context.Context, args []string) error {
			v := views.NewWallet(a.env)
			if err := prepare(ctx, v); err != nil {
				return err
			}
			err := v.TopUp(ctx, args[0])
			if errors.Is(err, auth.ErrLoginRequired) {
				return err
			}
			a.show(v)
			return reported(err)
		}),
	}

	var (
		exportFilter string
		output       string
	)
	export := &cobra.Command{
		Use:   "export",
		Short: "Write your transactions to a CSV file",
		Args:  cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, _ []string) error {
			v, err := wallet(exportFilter)
			if err != nil {
				return err
			}
			if err := v.Load(ctx); err != nil {
				if errors.Is(err, auth.ErrLoginRequired) {
					return err
				}
				a.show(v)
				return reported(err)
			}
			if len(v.Filtered()) == 0 {
				err := v.ExportCSV(nil)
				a.show(v)
				return reported(err)
			}
			return a.export(v, output)
		}),
	}
	export.Flags().StringVar(&exportFilter, "filter", string(views.FilterAll), "transactions to export: all, credit or debit")
	export.Flags().StringVarP(&output, "output", "o", views.DefaultExportFile, "file to write")

	cmd.AddCommand(topUp, export)
	return cmd
}

func (a *App) export(v *views.Wallet, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating export file")
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = errors.Wrap(cerr, "closing export file")
		}
	}()

	if err := v.ExportCSV(f); err != nil {
		return err
	}
	a.log.WithField("file", path).Info("exported transactions")
	fmt.Fprintf(a.out, "✅ Exported %d transactions to %s\n", len(v.Filtered()), path)
	return nil
}

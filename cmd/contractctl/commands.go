package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"contracts-backend/internal/bootstrap"
	"contracts-backend/internal/contracts"
	"contracts-backend/internal/dashboard"
	"contracts-backend/internal/expiry"
	"contracts-backend/internal/shared/auth"
)

const cliActor = "contractctl"

type appBuilder func(configFile string) (*bootstrap.App, error)

func newRootCmd(build appBuilder) *cobra.Command {
	var (
		configFile string
		app        *bootstrap.App
	)

	root := &cobra.Command{
		Use:           "contractctl",
		Short:         "Inspect and move contracts through their lifecycle",
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "path to a YAML config file")

	withApp := func(run func(ctx context.Context, app *bootstrap.App, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			if app == nil {
				built, err := build(configFile)
				if err != nil {
					return err
				}
				app = built
			}
			return run(cmd.Context(), app, cmd, args)
		}
	}

	root.AddCommand(
		summaryCmd(withApp),
		expiringCmd(withApp),
		listCmd(withApp),
		transitionCmd(withApp),
		dashboardCmd(withApp),
		sweepCmd(withApp),
		tokenCmd(),
	)
	return root
}

type appRunner func(run func(ctx context.Context, app *bootstrap.App, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error

func summaryCmd(withApp appRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print contract counts by status and the active portfolio value",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, app *bootstrap.App, cmd *cobra.Command, _ []string) error {
			summary, err := app.ContractsService.Summarize(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "total: %d\nactive value: %s\nexpiring in 30 days: %d\n",
				summary.Total, humanize.CommafWithDigits(summary.TotalValue, 2), summary.ExpiringIn30Days)
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, status := range contracts.AllStatuses {
				fmt.Fprintf(tw, "%s\t%d\n", status, summary.ByStatus[status])
			}
			return tw.Flush()
		}),
	}
}

func expiringCmd(withApp appRunner) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "expiring",
		Short: "List active contracts ending within a window",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, app *bootstrap.App, cmd *cobra.Command, _ []string) error {
			if days < 0 {
				return errors.New("--days must not be negative")
			}
			list, err := app.ContractsService.ListExpiring(ctx, days)
			if err != nil {
				return err
			}
			return writeContracts(cmd.OutOrStdout(), list)
		}),
	}
	cmd.Flags().IntVar(&days, "days", contracts.DefaultExpiringDays, "window in days")
	return cmd
}

func listCmd(withApp appRunner) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List contracts, optionally filtered by status",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, app *bootstrap.App, cmd *cobra.Command, _ []string) error {
			var filter *contracts.Status
			if status != "" {
				parsed, err := contracts.ParseStatus(status)
				if err != nil {
					return err
				}
				filter = &parsed
			}
			list, err := app.ContractsService.ListByStatus(ctx, filter)
			if err != nil {
				return err
			}
			return writeContracts(cmd.OutOrStdout(), list)
		}),
	}
	cmd.Flags().StringVar(&status, "status", "", "only list contracts in this status")
	return cmd
}

func transitionCmd(withApp appRunner) *cobra.Command {
	var actor string
	cmd := &cobra.Command{
		Use:   "transition <document-id> <status>",
		Short: "Move a contract to a new status",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(ctx context.Context, app *bootstrap.App, cmd *cobra.Command, args []string) error {
			to, err := contracts.ParseStatus(args[1])
			if err != nil {
				return err
			}
			if err := app.DashboardService.Transition(ctx, actor, args[0], to); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", args[0], to)
			return nil
		}),
	}
	cmd.Flags().StringVar(&actor, "actor", cliActor, "actor recorded in the audit log")
	return cmd
}

func dashboardCmd(withApp appRunner) *cobra.Command {
	var window int
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Print the summary and the contracts nearing expiry",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, app *bootstrap.App, cmd *cobra.Command, _ []string) error {
			svc := *app.DashboardService
			if window > 0 {
				svc.WindowDays = window
			}
			view, err := svc.Load(ctx)
			if err != nil {
				return err
			}
			return dashboard.Render(cmd.OutOrStdout(), view)
		}),
	}
	cmd.Flags().IntVar(&window, "window", 0, "override the expiry window in days")
	return cmd
}

func sweepCmd(withApp appRunner) *cobra.Command {
	var concurrency int
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Expire signed contracts whose end date has passed",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, app *bootstrap.App, cmd *cobra.Command, _ []string) error {
			sweeper := &expiry.Sweeper{Contracts: app.ContractsService, Concurrency: concurrency}
			res, err := sweeper.Sweep(ctx)
			fmt.Fprintf(cmd.OutOrStdout(), "expired: %d  skipped: %d  failed: %d\n", res.Expired, res.Skipped, res.Failed)
			return err
		}),
	}
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "parallel status updates")
	return cmd
}

func tokenCmd() *cobra.Command {
	var (
		email string
		name  string
		ttl   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token <subject>",
		Short: "Sign a bearer token for local testing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := auth.SignJWT(args[0], email, name, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().StringVar(&name, "name", "", "name claim")
	cmd.Flags().DurationVar(&ttl, "ttl", auth.DefaultTTL, "token lifetime")
	return cmd
}

func writeContracts(w io.Writer, list []contracts.ContractWithNames) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "no contracts")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DOCUMENT ID\tSTATUS\tEND DATE\tVALUE\tDOCUMENT\tCLIENT")
	for _, c := range list {
		end := "-"
		if c.EndDate != nil {
			end = c.EndDate.Format("2006-01-02")
		}
		value := "-"
		if c.ContractValue != nil {
			value = c.Currency + " " + humanize.CommafWithDigits(*c.ContractValue, 2)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			c.DocumentID, c.Status, end, value, orDash(c.DocumentName), orDash(c.ClientName))
	}
	return tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

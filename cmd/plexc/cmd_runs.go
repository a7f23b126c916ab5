package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/chazu/plexc/diagstore"
)

func newRunsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs [SOURCE]",
		Short: "List archived check and compile runs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var source string
			if len(args) == 1 {
				source = args[0]
			}
			store, err := diagstore.Open(a.cfg.StorePath())
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.Runs(cmd.Context(), source)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCREATED\tERRORS\tWARNINGS\tDIGEST\tSOURCE")
			for _, r := range runs {
				sum := r.Digest
				if len(sum) > 12 {
					sum = sum[:12]
				}
				if sum == "" {
					sum = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\n",
					r.ID, r.Created.Local().Format(time.DateTime), r.Errors, r.Warnings, sum, r.Source)
			}
			return tw.Flush()
		},
	}
	cmd.AddCommand(newRunsShowCmd(a), newRunsPruneCmd(a))
	return cmd
}

func newRunsShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show RUN",
		Short: "Print the diagnostics of an archived run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := diagstore.Open(a.cfg.StorePath())
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.Run(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			diags, err := store.Diagnostics(cmd.Context(), run.ID)
			if err != nil {
				return err
			}
			printDiagnostics(cmd.OutOrStdout(), run.Source, diags)
			return nil
		},
	}
}

func newRunsPruneCmd(a *app) *cobra.Command {
	var keep int
	cmd := &cobra.Command{
		Use:   "prune SOURCE",
		Short: "Delete all but the newest runs of a source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if keep < 0 {
				return fmt.Errorf("--keep must not be negative")
			}
			store, err := diagstore.Open(a.cfg.StorePath())
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := store.Prune(cmd.Context(), args[0], keep)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", plural(n, "run"))
			return nil
		},
	}
	cmd.Flags().IntVar(&keep, "keep", 10, "number of runs to keep")
	return cmd
}

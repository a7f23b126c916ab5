package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/chazu/plexc/compiler"
	"github.com/chazu/plexc/compiler/astyaml"
	"github.com/chazu/plexc/diagstore"
	"github.com/chazu/plexc/plan"
	"github.com/chazu/plexc/plan/digest"
)

func newCheckCmd(a *app) *cobra.Command {
	var archive bool
	cmd := &cobra.Command{
		Use:   "check FILE",
		Short: "Check a plan tree and report diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := args[0]
			root, err := astyaml.ReadFile(source)
			if err != nil {
				return err
			}

			opts := a.cfg.CompilerOptions()
			diags := compiler.NewDiagnostics()
			compiler.Check(root, diags, opts)
			printDiagnostics(cmd.OutOrStdout(), source, diags.All())

			if archive {
				if err := a.archive(cmd.Context(), cmd.ErrOrStderr(), source, nil, diags); err != nil {
					return err
				}
			}
			return verdict(source, diags, opts.WarningsAsErrors)
		},
	}
	cmd.Flags().BoolVar(&archive, "archive", false, "record the diagnostics in the store")
	return cmd
}

func newCompileCmd(a *app) *cobra.Command {
	var (
		output  string
		format  string
		archive bool
	)
	cmd := &cobra.Command{
		Use:   "compile FILE",
		Short: "Compile a plan tree to an intermediate plan",
		Long: "Compile a plan tree to an intermediate plan.\n\n" +
			"Diagnostics go to stderr; nothing is written when checking fails.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := args[0]
			if format == "" {
				format = a.cfg.Output.Format
			}
			root, err := astyaml.ReadFile(source)
			if err != nil {
				return err
			}

			opts := a.cfg.CompilerOptions()
			res, err := compiler.Compile(root, opts)
			if res.Diagnostics.Len() > 0 {
				printDiagnostics(cmd.ErrOrStderr(), source, res.Diagnostics.All())
			}
			if archive {
				if aerr := a.archive(cmd.Context(), cmd.ErrOrStderr(), source, res.Plan, res.Diagnostics); aerr != nil {
					return aerr
				}
			}
			if err != nil {
				return fmt.Errorf("%s: %w", source, err)
			}

			if output == "" || output == "-" {
				return writePlan(cmd.OutOrStdout(), res.Plan, format)
			}
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("cannot write %s: %w", output, err)
			}
			if err := writePlan(f, res.Plan, format); err != nil {
				f.Close()
				return fmt.Errorf("cannot write %s: %w", output, err)
			}
			return f.Close()
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: xml or cbor (default from config)")
	cmd.Flags().BoolVar(&archive, "archive", false, "record the diagnostics in the store")
	return cmd
}

// verdict turns the outcome of checking into the command's error.
func verdict(source string, diags *compiler.Diagnostics, warningsAsErrors bool) error {
	if diags.HasErrors() || (warningsAsErrors && diags.Count(compiler.SeverityWarning) > 0) {
		return fmt.Errorf("%s: %w", source, compiler.ErrCheckFailed)
	}
	return nil
}

// archive records one run. el may be nil when nothing was emitted.
func (a *app) archive(ctx context.Context, w io.Writer, source string, el *plan.Element, diags *compiler.Diagnostics) error {
	store, err := diagstore.Open(a.cfg.StorePath())
	if err != nil {
		return err
	}
	defer store.Close()

	var sum string
	if el != nil {
		sum = digest.Hex(el)
	}
	run, err := store.RecordRun(ctx, source, sum, diags.All())
	if err != nil {
		return err
	}
	fmt.Fprintln(w, styleDim.Render("archived run "+run.ID))
	return nil
}

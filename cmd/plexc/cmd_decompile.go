package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chazu/plexc/decompiler"
	"github.com/chazu/plexc/plan/digest"
	"github.com/chazu/plexc/server"
)

func newDecompileCmd(a *app) *cobra.Command {
	var (
		indent   string
		maxDepth int
	)
	cmd := &cobra.Command{
		Use:   "decompile FILE",
		Short: "Render an intermediate plan as source text",
		Long: "Render an intermediate plan as source text.\n\n" +
			"FILE is XML, or CBOR when it ends in .cbor; \"-\" reads XML from stdin.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			el, err := readPlan(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			opts := a.cfg.DecompilerOptions()
			if cmd.Flags().Changed("indent") {
				opts.Indent = indent
			}
			if maxDepth > 0 {
				opts.MaxDepth = maxDepth
			}
			text, err := decompiler.Render(el, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
	cmd.Flags().StringVar(&indent, "indent", "", "indentation unit (default from config)")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "maximum element nesting (default from config)")
	return cmd
}

func newDigestCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "digest FILE...",
		Short: "Print content digests of intermediate plans",
		Long: "Print the SHA-256 content digest of each intermediate plan.\n\n" +
			"Element ids, source positions and literal spelling do not affect the digest.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				el, err := readPlan(path, cmd.InOrStdin())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", digest.Hex(el), path)
			}
			return nil
		},
	}
}

func newLSPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Run the language server for intermediate plans on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return server.NewLSP(a.cfg.DecompilerOptions()).Run()
		},
	}
}

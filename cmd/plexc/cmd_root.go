package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	"github.com/chazu/plexc/config"
	"github.com/chazu/plexc/plan"

	_ "github.com/tliron/commonlog/simple"
)

const appName = "plexc"

// app holds what every subcommand shares once flags are parsed.
type app struct {
	configDir string
	verbose   int
	logFile   string

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   appName,
		Short: "Check, compile and decompile plans",
		Long: appName + " checks plan trees, emits intermediate plans as XML or CBOR,\n" +
			"and renders intermediate plans back to source text.\n\n" +
			"Settings are read from the nearest " + config.FileName + " above the working directory.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	root.PersistentFlags().StringVarP(&a.configDir, "config-dir", "C", ".",
		"directory to start searching for "+config.FileName)
	root.PersistentFlags().CountVarP(&a.verbose, "verbose", "v",
		"increase log verbosity (repeatable)")
	root.PersistentFlags().StringVar(&a.logFile, "log-file", "",
		"write logs to this file instead of stderr")

	root.AddCommand(
		newCheckCmd(a),
		newCompileCmd(a),
		newDecompileCmd(a),
		newDigestCmd(a),
		newRunsCmd(a),
		newLSPCmd(a),
	)
	return root
}

func (a *app) setup() error {
	cfg, err := config.FindAndLoad(a.configDir)
	if err != nil {
		return err
	}
	a.cfg = cfg

	var path *string
	switch {
	case a.logFile != "":
		path = &a.logFile
	case cfg.Log.File != "":
		p := cfg.Log.File
		if !filepath.IsAbs(p) && cfg.Dir != "" {
			p = filepath.Join(cfg.Dir, p)
		}
		path = &p
	}
	commonlog.Configure(cfg.Log.Verbosity+a.verbose, path)
	return nil
}

// readPlan loads an intermediate plan. Files ending in .cbor are decoded as
// CBOR, anything else as XML; "-" reads XML from stdin.
func readPlan(path string, stdin io.Reader) (*plan.Element, error) {
	if path == "-" {
		return plan.Parse(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	var el *plan.Element
	if strings.EqualFold(filepath.Ext(path), ".cbor") {
		el, err = plan.DecodeCBOR(data)
	} else {
		el, err = plan.ParseString(string(data))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return el, nil
}

// writePlan encodes el in the given format.
func writePlan(w io.Writer, el *plan.Element, format string) error {
	switch format {
	case "xml":
		return plan.Write(w, el)
	case "cbor":
		data, err := plan.EncodeCBOR(el)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}
	return fmt.Errorf("unknown output format %q (want xml or cbor)", format)
}

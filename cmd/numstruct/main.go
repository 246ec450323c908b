// Package main provides the CLI entry point for numstruct.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ukaji3/numstruct-go/pkg/numstruct"
)

// globals holds the persistent flags shared by every command.
type globals struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg *Config
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:   "numstruct",
		Short: "Read and write Numbers spreadsheet packages",
		Long: `numstruct reads the object graph of a Numbers package and exports its
sheets, tables, cells, merged ranges and formulas as JSON, CSV or XLSX.
It can also edit cell values and remove tables, writing the package back.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.load(cmd.Flags())
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "YAML config file (default: $"+configEnv+")")
	pf.StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&g.logFormat, "log-format", "", "Log format: text, json")

	root.AddCommand(
		newDumpCmd(g),
		newCatCmd(g),
		newExportCmd(g),
		newUnpackCmd(g),
		newVerifyCmd(g),
		newSetCmd(g),
		newRemoveTableCmd(g),
		newRenameSheetCmd(g),
		newRenameTableCmd(g),
		newAddRowsCmd(g),
		newDeleteRowsCmd(g),
		newMergeCmd(g),
		newUnmergeCmd(g),
	)
	return root
}

// load reads the config file and overlays the flags the user set.
func (g *globals) load(fs *pflag.FlagSet) error {
	cfg, err := loadConfig(g.configPath)
	if err != nil {
		return err
	}
	if fs.Changed("log-level") {
		cfg.Log.Level = g.logLevel
	}
	if fs.Changed("log-format") {
		cfg.Log.Format = g.logFormat
	}
	if fs.Lookup("mode") != nil && fs.Changed("mode") {
		cfg.Mode, _ = fs.GetString("mode")
	}
	if f := fs.Lookup("formulas"); f != nil && f.Changed {
		v, _ := fs.GetBool("formulas")
		cfg.IncludeFormulas = &v
	}
	if f := fs.Lookup("merges"); f != nil && f.Changed {
		v, _ := fs.GetBool("merges")
		cfg.IncludeMerges = &v
	}
	if f := fs.Lookup("compact"); f != nil && f.Changed {
		cfg.CompactIdentifiers, _ = fs.GetBool("compact")
	}
	if f := fs.Lookup("pretty"); f != nil && f.Changed {
		cfg.Pretty, _ = fs.GetBool("pretty")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	g.cfg = cfg
	return nil
}

// open reads the document at path with the configured options.
func (g *globals) open(path string) (*numstruct.Document, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("file not found: %s", path)
	}
	return numstruct.Open(path, g.cfg.Options(g.cfg.Logger(os.Stderr)))
}

// addExtractFlags registers the flags selecting what gets exported.
func addExtractFlags(fs *pflag.FlagSet) {
	fs.String("mode", "standard", "Extraction mode: light, standard, verbose")
	fs.Bool("formulas", false, "Include formula text (default: verbose mode only)")
	fs.Bool("merges", false, "Include merged ranges and header names (default: all but light mode)")
}

// addWriteFlags registers the flags of commands that save a document.
func addWriteFlags(fs *pflag.FlagSet, output *string) {
	fs.StringVarP(output, "output", "o", "", "Output package path (default: overwrite the input)")
	fs.Bool("compact", false, "Renumber new identifiers into a dense block")
}

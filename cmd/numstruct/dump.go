package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ukaji3/numstruct-go/pkg/numstruct/models"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/output"
)

func newDumpCmd(g *globals) *cobra.Command {
	var outputPath, sheetsDir string
	cmd := &cobra.Command{
		Use:   "dump [input.numbers]",
		Short: "Extract structured data as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := g.extract(args[0])
			if err != nil {
				return err
			}
			jsonData, err := output.ToJSON(doc, g.cfg.Pretty)
			if err != nil {
				return fmt.Errorf("serialization failed: %w", err)
			}

			if outputPath != "" {
				if err := os.WriteFile(outputPath, jsonData, 0644); err != nil {
					return fmt.Errorf("failed to write output: %w", err)
				}
			} else if sheetsDir == "" {
				fmt.Fprintln(cmd.OutOrStdout(), string(jsonData))
			}

			if sheetsDir != "" {
				if err := writeSheetFiles(doc, sheetsDir, g.cfg.Pretty); err != nil {
					return fmt.Errorf("failed to write sheet files: %w", err)
				}
			}
			return nil
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&outputPath, "output", "o", "", "Output file path (default: stdout)")
	fs.Bool("pretty", false, "Pretty-print JSON output")
	fs.StringVar(&sheetsDir, "sheets-dir", "", "Directory for per-sheet output files")
	addExtractFlags(fs)
	return cmd
}

// extract opens and exports the document at path.
func (g *globals) extract(path string) (*models.DocumentData, error) {
	d, err := g.open(path)
	if err != nil {
		return nil, err
	}
	doc, err := d.Export()
	if err != nil {
		return nil, fmt.Errorf("extraction failed: %w", err)
	}
	return doc, nil
}

func writeSheetFiles(doc *models.DocumentData, dir string, pretty bool) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	for i := range doc.Sheets {
		sheet := &doc.Sheets[i]
		jsonData, err := output.SheetToJSON(sheet, pretty)
		if err != nil {
			return err
		}
		filename := filepath.Join(dir, fileName(sheet.Name)+".json")
		if err := os.WriteFile(filename, jsonData, 0644); err != nil {
			return err
		}
	}
	return nil
}

// fileName replaces path separators in a sheet or table name.
func fileName(name string) string {
	out := []rune(name)
	for i, r := range out {
		if r == '/' || r == os.PathSeparator {
			out[i] = '_'
		}
	}
	return string(out)
}

// saveTarget is the path a modified document is written to.
func saveTarget(input, output string) string {
	if output != "" {
		return output
	}
	return input
}

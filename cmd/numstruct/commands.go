package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ukaji3/numstruct-go/pkg/numstruct"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/container"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/output"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/parser"
)

func newCatCmd(g *globals) *cobra.Command {
	var (
		listSheets, listTables, brief, formulas bool
		sheets, tables                          []string
	)
	cmd := &cobra.Command{
		Use:   "cat [input.numbers...]",
		Short: "Print table cells as CSV",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if formulas {
				on := true
				g.cfg.IncludeFormulas = &on
			}
			w := cmd.OutOrStdout()
			for _, path := range args {
				doc, err := g.extract(path)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				name := filepath.Base(path)
				for _, sheet := range doc.Sheets {
					if listSheets {
						fmt.Fprintf(w, "%s: %s\n", name, sheet.Name)
						continue
					}
					if len(sheets) > 0 && !slices.Contains(sheets, sheet.Name) {
						continue
					}
					for i := range sheet.Tables {
						table := &sheet.Tables[i]
						if listTables {
							fmt.Fprintf(w, "%s: %s: %s\n", name, sheet.Name, table.Name)
							continue
						}
						if len(tables) > 0 && !slices.Contains(tables, table.Name) {
							continue
						}
						prefix := ""
						if !brief {
							prefix = fmt.Sprintf("%s: %s: %s: ", name, sheet.Name, table.Name)
						}
						if err := writeRows(w, prefix, output.TableRecords(table, formulas)); err != nil {
							return err
						}
					}
				}
			}
			return nil
		},
	}
	fs := cmd.Flags()
	fs.BoolVarP(&listSheets, "list-sheets", "S", false, "List the names of sheets and exit")
	fs.BoolVarP(&listTables, "list-tables", "T", false, "List the names of tables and exit")
	fs.BoolVarP(&brief, "brief", "b", false, "Don't prefix rows with the sheet and table name")
	fs.BoolVar(&formulas, "formulas", false, "Print formulas instead of their results")
	fs.StringArrayVarP(&sheets, "sheet", "s", nil, "Names of sheets to include")
	fs.StringArrayVarP(&tables, "table", "t", nil, "Names of tables to include")
	cmd.MarkFlagsMutuallyExclusive("list-sheets", "list-tables", "brief")
	return cmd
}

func writeRows(w io.Writer, prefix string, rows [][]string) error {
	for _, rec := range rows {
		if _, err := io.WriteString(w, prefix); err != nil {
			return err
		}
		cw := csv.NewWriter(w)
		if err := cw.Write(rec); err != nil {
			return err
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return err
		}
	}
	return nil
}

func newExportCmd(g *globals) *cobra.Command {
	var outputPath string
	cmd := &cobra.Command{
		Use:   "export [input.numbers]",
		Short: "Export tables to an XLSX workbook, one worksheet per table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := g.extract(args[0])
			if err != nil {
				return err
			}
			if outputPath == "" {
				outputPath = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".xlsx"
			}
			f, err := os.Create(outputPath)
			if err != nil {
				return err
			}
			if err := output.WriteXLSX(f, doc); err != nil {
				f.Close()
				return fmt.Errorf("failed to write workbook: %w", err)
			}
			return f.Close()
		},
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output workbook path (default: input name with .xlsx)")
	addExtractFlags(cmd.Flags())
	return cmd
}

func newUnpackCmd(g *globals) *cobra.Command {
	var outputDir, format string
	cmd := &cobra.Command{
		Use:   "unpack [input.numbers]",
		Short: "Write every archive file of a package as YAML, JSON or CBOR",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := output.ParseFormat(format)
			if err != nil {
				return err
			}
			if outputDir == "" {
				outputDir = strings.TrimSuffix(args[0], filepath.Ext(args[0]))
			}
			d, err := g.open(args[0])
			if err != nil {
				return err
			}
			for _, file := range d.Unpack() {
				data, err := output.ArchiveFile(&file, f)
				if err != nil {
					return fmt.Errorf("%s: %w", file.Path, err)
				}
				if err := writeUnder(outputDir, file.Path+f.Ext(), data); err != nil {
					return err
				}
			}

			// Other entries (metadata, images) are copied as they are.
			pkg, err := container.Open(args[0])
			if err != nil {
				return err
			}
			for _, name := range pkg.ListEntries() {
				if strings.HasSuffix(name, ".iwa") {
					continue
				}
				data, err := pkg.Read(name)
				if err != nil {
					return err
				}
				if err := writeUnder(outputDir, name, data); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (default: input name without extension)")
	cmd.Flags().StringVar(&format, "format", string(output.FormatYAML), "Record format: yaml, json, cbor")
	return cmd
}

// writeUnder writes data to name below dir, refusing names that escape it.
func writeUnder(dir, name string, data []byte) error {
	if !filepath.IsLocal(name) {
		return fmt.Errorf("entry %q escapes the output directory", name)
	}
	path := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func newVerifyCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "verify [input.numbers...]",
		Short: "Check that packages survive a save and reload unchanged",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			failed := 0
			for _, path := range args {
				d, err := g.open(path)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				rep, err := d.Verify()
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				for _, m := range rep.Mismatches {
					fmt.Fprintf(w, "%s: %s\n", path, m)
				}
				for _, diag := range rep.Dangling {
					fmt.Fprintf(w, "%s: %s\n", path, diag)
				}
				status := "ok"
				if !rep.OK() {
					status = "FAILED"
					failed++
				}
				fmt.Fprintf(w, "%s: %d records reachable, %s\n", path, rep.Reachable, status)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d documents failed verification", failed, len(args))
			}
			return nil
		},
	}
}

// tableFlags selects one table of a document.
type tableFlags struct {
	sheet string
	table string
}

func (t *tableFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&t.sheet, "sheet", "s", "", "Sheet name (default: the first sheet)")
	cmd.Flags().StringVarP(&t.table, "table", "t", "", "Table name (default: the first table of the sheet)")
}

func (t *tableFlags) findSheet(d *numstruct.Document) (*numstruct.Sheet, error) {
	if t.sheet != "" {
		return d.Sheet(t.sheet)
	}
	sheets, err := d.Sheets()
	if err != nil {
		return nil, err
	}
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: document has no sheets", numstruct.ErrNotFound)
	}
	return sheets[0], nil
}

func (t *tableFlags) find(d *numstruct.Document) (*numstruct.Table, error) {
	sheet, err := t.findSheet(d)
	if err != nil {
		return nil, err
	}
	if t.table != "" {
		return sheet.Table(t.table)
	}
	tables, err := sheet.Tables()
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("%w: sheet %q has no tables", numstruct.ErrNotFound, sheet.Name())
	}
	return tables[0], nil
}

func newSetCmd(g *globals) *cobra.Command {
	var (
		target     tableFlags
		outputPath string
		kind       string
	)
	cmd := &cobra.Command{
		Use:   "set [input.numbers] [cell] [value]",
		Short: "Set the value of one cell and save the package",
		Long: `set stores a value in one cell, named A1-style, and saves the package.
An empty value with --type empty clears the cell. Cells holding formulas
cannot be overwritten.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			at, err := parser.ParseCoord(args[1])
			if err != nil {
				return fmt.Errorf("invalid cell %q: %w", args[1], err)
			}
			d, err := g.open(args[0])
			if err != nil {
				return err
			}
			t, err := target.find(d)
			if err != nil {
				return err
			}
			if err := setCell(t, at, kind, args[2]); err != nil {
				return err
			}
			return d.Save(saveTarget(args[0], outputPath))
		},
	}
	target.register(cmd)
	addWriteFlags(cmd.Flags(), &outputPath)
	cmd.Flags().StringVar(&kind, "type", "text", "Value type: number, text, bool, date, duration, empty")
	return cmd
}

func setCell(t *numstruct.Table, at parser.Coord, kind, value string) error {
	switch kind {
	case "number":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid number %q: %w", value, err)
		}
		return t.SetNumber(at.Column, at.Row, v)
	case "text":
		return t.SetText(at.Column, at.Row, value)
	case "bool":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid bool %q: %w", value, err)
		}
		return t.SetBool(at.Column, at.Row, v)
	case "date":
		v, err := parseDate(value)
		if err != nil {
			return err
		}
		return t.SetDate(at.Column, at.Row, v)
	case "duration":
		v, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		return t.SetDuration(at.Column, at.Row, v)
	case "empty":
		return t.Clear(at.Column, at.Row)
	}
	return fmt.Errorf("invalid type: %s (must be number, text, bool, date, duration, or empty)", kind)
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q (want RFC 3339 or YYYY-MM-DD)", s)
}

func newRemoveTableCmd(g *globals) *cobra.Command {
	var (
		target     tableFlags
		outputPath string
	)
	cmd := &cobra.Command{
		Use:   "remove-table [input.numbers]",
		Short: "Remove a table with its cells and formula owners and save the package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := g.open(args[0])
			if err != nil {
				return err
			}
			t, err := target.find(d)
			if err != nil {
				return err
			}
			if err := d.RemoveTable(t); err != nil {
				return err
			}
			return d.Save(saveTarget(args[0], outputPath))
		},
	}
	target.register(cmd)
	addWriteFlags(cmd.Flags(), &outputPath)
	return cmd
}

// editCmd builds a command that applies one edit to the selected table
// and saves the package. The first argument is the input package; edit
// receives the rest.
func editCmd(g *globals, use, short string, nargs int, edit func(t *numstruct.Table, args []string) error) *cobra.Command {
	var (
		target     tableFlags
		outputPath string
	)
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nargs + 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := g.open(args[0])
			if err != nil {
				return err
			}
			t, err := target.find(d)
			if err != nil {
				return err
			}
			if err := edit(t, args[1:]); err != nil {
				return err
			}
			return d.Save(saveTarget(args[0], outputPath))
		},
	}
	target.register(cmd)
	addWriteFlags(cmd.Flags(), &outputPath)
	return cmd
}

func newRenameSheetCmd(g *globals) *cobra.Command {
	var (
		target     tableFlags
		outputPath string
	)
	cmd := &cobra.Command{
		Use:   "rename-sheet [input.numbers] [name]",
		Short: "Rename a sheet and save the package",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := g.open(args[0])
			if err != nil {
				return err
			}
			s, err := target.findSheet(d)
			if err != nil {
				return err
			}
			if err := s.SetName(args[1]); err != nil {
				return err
			}
			return d.Save(saveTarget(args[0], outputPath))
		},
	}
	cmd.Flags().StringVarP(&target.sheet, "sheet", "s", "", "Sheet name (default: the first sheet)")
	addWriteFlags(cmd.Flags(), &outputPath)
	return cmd
}

func newRenameTableCmd(g *globals) *cobra.Command {
	return editCmd(g, "rename-table [input.numbers] [name]", "Rename a table and save the package", 1,
		func(t *numstruct.Table, args []string) error {
			return t.SetName(args[0])
		})
}

func newAddRowsCmd(g *globals) *cobra.Command {
	cmd := editCmd(g, "add-rows [input.numbers] [row] [count]", "Insert empty rows before a row and save the package", 2,
		func(t *numstruct.Table, args []string) error {
			start, n, err := parseRows(args)
			if err != nil {
				return err
			}
			return t.AddRows(start, n)
		})
	cmd.Long = `add-rows inserts count empty rows before the 1-based row. A row one past
the last row appends. Rows holding formulas or merged cells cannot move.`
	return cmd
}

func newDeleteRowsCmd(g *globals) *cobra.Command {
	cmd := editCmd(g, "delete-rows [input.numbers] [row] [count]", "Delete rows starting at a row and save the package", 2,
		func(t *numstruct.Table, args []string) error {
			start, n, err := parseRows(args)
			if err != nil {
				return err
			}
			return t.DeleteRows(start, n)
		})
	cmd.Long = `delete-rows removes count rows starting at the 1-based row. Rows below
them move up; rows holding formulas or merged cells cannot move.`
	return cmd
}

// parseRows parses a 1-based row and a row count.
func parseRows(args []string) (start, n uint32, err error) {
	row, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil || row == 0 {
		return 0, 0, fmt.Errorf("invalid row %q (want a 1-based row number)", args[0])
	}
	count, err := strconv.ParseUint(args[1], 10, 32)
	if err != nil || count == 0 {
		return 0, 0, fmt.Errorf("invalid count %q", args[1])
	}
	return uint32(row - 1), uint32(count), nil
}

func newMergeCmd(g *globals) *cobra.Command {
	return editCmd(g, "merge [input.numbers] [range]", "Merge a range of cells, named like A1:B2, and save the package", 1,
		func(t *numstruct.Table, args []string) error {
			r, err := parser.ParseRange(args[0])
			if err != nil {
				return fmt.Errorf("invalid range %q: %w", args[0], err)
			}
			return t.Merge(r)
		})
}

func newUnmergeCmd(g *globals) *cobra.Command {
	return editCmd(g, "unmerge [input.numbers] [cell]", "Split the merged range anchored at a cell and save the package", 1,
		func(t *numstruct.Table, args []string) error {
			at, err := parser.ParseCoord(args[0])
			if err != nil {
				return fmt.Errorf("invalid cell %q: %w", args[0], err)
			}
			return t.Unmerge(at)
		})
}

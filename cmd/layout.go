package cmd

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/ardanlabs/ffi-bindgen/cast"
	"github.com/ardanlabs/ffi-bindgen/explorer"
	"github.com/ardanlabs/ffi-bindgen/layout"
)

var (
	layoutSource  sourceFlags
	layoutRecords []string
)

var layoutCmd = &cobra.Command{
	Use:   "layout [header.h]",
	Short: "Print the computed layout of every struct and union in a header",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLayout,
}

func init() {
	layoutSource.register(layoutCmd)
	layoutCmd.Flags().StringSliceVarP(&layoutRecords, "record", "r", nil, "Only print these records (tag or typedef name)")
	rootCmd.AddCommand(layoutCmd)
}

func runLayout(cmd *cobra.Command, args []string) error {
	var input string
	if len(args) > 0 {
		input = args[0]
	}

	cfg, err := layoutSource.resolve(cmd, input)
	if err != nil {
		return err
	}
	if err := cfg.ApplyDefaults(); err != nil {
		return err
	}

	abi, err := targetABI(cfg.Target)
	if err != nil {
		return err
	}

	tu, err := parse(cfg, abi)
	if err != nil {
		return fmt.Errorf("parsing header: %w", err)
	}

	var rc recordCollector
	if err := explorer.Explore(tu, cfg.IncludeDirs, &rc); err != nil {
		return err
	}

	data, err := layoutTable(layout.New(abi), rc.records, layoutRecords)
	if err != nil {
		return err
	}

	return pterm.DefaultTable.
		WithHasHeader().
		WithWriter(cmd.OutOrStdout()).
		WithData(data).
		Render()
}

// layoutTable computes every record and renders one row per field, preceded
// by a summary row for the record itself.
func layoutTable(calc *layout.Calculator, records []*cast.RecordDecl, only []string) (pterm.TableData, error) {
	data := pterm.TableData{{"Record", "Field", "Offset", "Size", "Align"}}

	for _, r := range records {
		name := recordName(r)
		if len(only) > 0 && !slices.Contains(only, name) && !slices.Contains(only, r.Name) {
			continue
		}

		info, err := calc.Compute(r)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", r.Location(), name, err)
		}

		data = append(data, []string{name, "", "", strconv.FormatUint(info.Size, 10), strconv.FormatUint(uint64(info.Align), 10)})
		for _, f := range info.Fields {
			data = append(data, []string{
				"",
				f.Name,
				strconv.FormatUint(f.Offset, 10),
				strconv.FormatUint(f.Size, 10),
				strconv.FormatUint(uint64(f.Align), 10),
			})
		}
	}

	return data, nil
}

func recordName(r *cast.RecordDecl) string {
	if r.Spelling != "" {
		return r.Spelling
	}
	return (&cast.RecordType{Decl: r}).Spelling()
}

// recordCollector keeps the record definitions of a translation unit.
type recordCollector struct {
	records []*cast.RecordDecl
}

func (c *recordCollector) RecordFound(r *cast.RecordDecl) error {
	c.records = append(c.records, r)
	return nil
}

func (c *recordCollector) EnumFound(*cast.EnumDecl) error                 { return nil }
func (c *recordCollector) EnumConstantFound(*cast.EnumConstantDecl) error { return nil }
func (c *recordCollector) FunctionFound(*cast.FunctionDecl) error         { return nil }
func (c *recordCollector) TypeAliasFound(*cast.TypedefDecl) error         { return nil }
func (c *recordCollector) FunctionProtoFound(*cast.TypedefDecl) error     { return nil }

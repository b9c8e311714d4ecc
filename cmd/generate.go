package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ardanlabs/ffi-bindgen/generator"
	"github.com/ardanlabs/ffi-bindgen/logging"
)

var (
	genSource  sourceFlags
	genOutput  string
	genLibrary string
	genPackage string
	genExclude []string
	genDryRun  bool
)

var generateCmd = &cobra.Command{
	Use:   "generate [header.h]",
	Short: "Generate Go bindings for a C header",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runGenerate,
}

func init() {
	genSource.register(generateCmd)
	generateCmd.Flags().StringVarP(&genOutput, "output", "o", "", "Output Go file (default: <library>.go)")
	generateCmd.Flags().StringVarP(&genLibrary, "library", "l", "", "Library name, e.g. 'z' for libz.so (default: header base name)")
	generateCmd.Flags().StringVarP(&genPackage, "package", "p", "", "Go package name (default: derived from the library name)")
	generateCmd.Flags().StringSliceVar(&genExclude, "exclude", nil, "Function to leave out of the bindings")
	generateCmd.Flags().BoolVar(&genDryRun, "dry-run", false, "Print the bindings instead of writing them")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	var input string
	if len(args) > 0 {
		input = args[0]
	}

	cfg, err := genSource.resolve(cmd, input)
	if err != nil {
		return err
	}

	changed := cmd.Flags().Changed
	if changed("output") {
		cfg.Output = genOutput
	}
	if changed("library") {
		cfg.Library = genLibrary
	}
	if changed("package") {
		cfg.Package = genPackage
	}
	if changed("exclude") {
		cfg.Exclude = genExclude
	}

	if err := cfg.ApplyDefaults(); err != nil {
		return err
	}

	abi, err := targetABI(cfg.Target)
	if err != nil {
		return err
	}
	logging.Debug("target %s", abi.Name)

	tu, err := parse(cfg, abi)
	if err != nil {
		return fmt.Errorf("parsing header: %w", err)
	}

	gen := generator.New(generator.Options{
		Package:     cfg.Package,
		LibraryName: cfg.Library,
		Header:      cfg.Input,
		ABI:         abi,
		Exclude:     cfg.Exclude,
	})

	res, err := gen.Generate(tu, cfg.IncludeDirs)
	if err != nil {
		return fmt.Errorf("generating code: %w", err)
	}

	for _, w := range res.Warnings {
		logging.Warn("%s", w)
	}

	if genDryRun {
		_, err := cmd.OutOrStdout().Write(res.Source)
		return err
	}

	if dir := filepath.Dir(cfg.Output); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	if err := os.WriteFile(cfg.Output, res.Source, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", cfg.Output, err)
	}

	logging.Success("generated %s (%d warnings)", cfg.Output, len(res.Warnings))
	return nil
}

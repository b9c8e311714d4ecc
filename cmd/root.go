// Package cmd implements the ffi-bindgen command line.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ardanlabs/ffi-bindgen/logging"
)

var (
	verbose bool
	quiet   bool
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "ffi-bindgen",
	Short: "Generate Go ffi bindings from C headers",
	Long: "ffi-bindgen reads a C header and writes one Go file that loads the shared library at run time " +
		"through github.com/jupiterrider/ffi, with layout-checked structs, enums and typed function wrappers.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.SetOutput(cmd.ErrOrStderr(), cmd.ErrOrStderr())
		if noColor {
			logging.DisableColor()
		}
		logging.Initialize(verbose, quiet)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
}

// Execute runs the command line and reports any error.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		logging.Error(err)
	}
	return err
}

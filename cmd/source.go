package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ardanlabs/ffi-bindgen/cast"
	"github.com/ardanlabs/ffi-bindgen/cfront"
	"github.com/ardanlabs/ffi-bindgen/config"
	"github.com/ardanlabs/ffi-bindgen/layout"
	"github.com/ardanlabs/ffi-bindgen/logging"
	"github.com/ardanlabs/ffi-bindgen/parser"
)

// sourceFlags are the flags shared by every command that reads a header.
type sourceFlags struct {
	config      string
	frontend    string
	target      string
	includeDirs []string
	defines     []string
	extraArgs   []string
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.config, "config", "c", "", "Configuration file (.yaml, .yml or .toml)")
	cmd.Flags().StringVar(&f.frontend, "frontend", "", "C front end: cc (full preprocessor) or scan (self-contained headers)")
	cmd.Flags().StringVar(&f.target, "target", "", "Target GOOS/GOARCH for type layout (default: host)")
	cmd.Flags().StringSliceVarP(&f.includeDirs, "include", "I", nil, "Include directory; headers below it are bound too")
	cmd.Flags().StringSliceVarP(&f.defines, "define", "D", nil, "Macro definition NAME or NAME=VALUE")
	cmd.Flags().StringSliceVar(&f.extraArgs, "cpp-arg", nil, "Extra argument for the host C preprocessor")
}

// resolve loads the configuration file, if any, and lets the flags that were
// set on the command line override it.
func (f *sourceFlags) resolve(cmd *cobra.Command, input string) (*config.Config, error) {
	cfg := &config.Config{}
	if f.config != "" {
		var err error
		if cfg, err = config.Load(f.config); err != nil {
			return nil, err
		}
		logging.Debug("loaded config %s", f.config)
	}

	if input != "" {
		cfg.Input = input
	}

	changed := cmd.Flags().Changed
	if changed("frontend") {
		cfg.Frontend = f.frontend
	}
	if changed("target") {
		cfg.Target = f.target
	}
	if changed("include") {
		cfg.IncludeDirs = f.includeDirs
	}
	if changed("define") {
		cfg.Defines = f.defines
	}
	if changed("cpp-arg") {
		cfg.ExtraArgs = f.extraArgs
	}

	return cfg, nil
}

func targetABI(target string) (layout.ABI, error) {
	if target == "" {
		return layout.HostABI(), nil
	}

	goos, goarch, ok := strings.Cut(target, "/")
	if !ok || goos == "" || goarch == "" {
		return layout.ABI{}, fmt.Errorf("invalid target %q, want GOOS/GOARCH", target)
	}
	return layout.ABIFor(goos, goarch)
}

// parse runs the configured front end over the input header.
func parse(cfg *config.Config, abi layout.ABI) (*cast.TranslationUnit, error) {
	logging.Info("parsing %s with the %s front end", cfg.Input, cfg.Frontend)

	var tu *cast.TranslationUnit
	var err error

	switch cfg.Frontend {
	case config.FrontendScan:
		tu, err = parser.ParseFile(cfg.Input)
	default:
		tu, err = cfront.ParseFile(cfg.Input, cfront.Options{
			IncludeDirs: cfg.IncludeDirs,
			Defines:     cfg.Defines,
			ExtraArgs:   cfg.ExtraArgs,
			ABI:         abi,
		})
	}
	if err != nil {
		return nil, err
	}

	logging.Debug("%d top-level declarations", len(tu.Decls))
	return tu, nil
}

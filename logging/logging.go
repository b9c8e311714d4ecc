// Package logging prints the command line tool's messages to stderr, leaving
// stdout for generated output. The generator packages never log; they return
// errors and warnings to the caller.
package logging

import (
	"io"
	"os"

	"github.com/pterm/pterm"
)

// Prefix styles of the message kinds.
var (
	SuccessStyleBG = pterm.NewStyle(pterm.BgLightGreen, pterm.FgBlack)
	WarnStyleBG    = pterm.NewStyle(pterm.BgYellow, pterm.FgBlack)
	ErrorStyleBG   = pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
	InfoStyleBG    = pterm.NewStyle(pterm.BgLightCyan, pterm.FgBlack)
	DebugStyleBG   = pterm.NewStyle(pterm.BgGray, pterm.FgBlack)
)

var (
	infoPrinter    = newPrinter("Info", InfoStyleBG, os.Stderr)
	successPrinter = newPrinter("Done", SuccessStyleBG, os.Stderr)
	warnPrinter    = newPrinter("Warn", WarnStyleBG, os.Stderr)
	errorPrinter   = newPrinter("Fail", ErrorStyleBG, os.Stderr)
	debugPrinter   = newPrinter("Debug", DebugStyleBG, os.Stderr)

	verbose bool
	quiet   bool
)

func newPrinter(tag string, style *pterm.Style, w io.Writer) *pterm.PrefixPrinter {
	p := pterm.PrefixPrinter{
		MessageStyle: pterm.NewStyle(pterm.FgDefault),
		Prefix: pterm.Prefix{
			Style: style,
			Text:  tag,
		},
	}
	return p.WithWriter(w)
}

// Initialize sets the verbosity. Quiet drops everything but errors; verbose
// adds debug messages. Quiet wins when both are set.
func Initialize(isVerbose, isQuiet bool) {
	verbose = isVerbose && !isQuiet
	quiet = isQuiet
}

// SetOutput redirects regular messages to out and diagnostics to errOut.
func SetOutput(out, errOut io.Writer) {
	infoPrinter = infoPrinter.WithWriter(out)
	successPrinter = successPrinter.WithWriter(out)
	warnPrinter = warnPrinter.WithWriter(errOut)
	errorPrinter = errorPrinter.WithWriter(errOut)
	debugPrinter = debugPrinter.WithWriter(errOut)
}

// DisableColor turns off terminal styling, for piped output and tests.
func DisableColor() {
	pterm.DisableColor()
}

func Info(format string, args ...any) {
	if quiet {
		return
	}
	infoPrinter.Printfln(format, args...)
}

func Success(format string, args ...any) {
	if quiet {
		return
	}
	successPrinter.Printfln(format, args...)
}

func Warn(format string, args ...any) {
	if quiet {
		return
	}
	warnPrinter.Printfln(format, args...)
}

func Debug(format string, args ...any) {
	if !verbose {
		return
	}
	debugPrinter.Printfln(format, args...)
}

// Error prints err regardless of verbosity.
func Error(err error) {
	errorPrinter.Println(err.Error())
}

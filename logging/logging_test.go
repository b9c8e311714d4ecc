package logging

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
)

func capture(t *testing.T, isVerbose, isQuiet bool) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	var out, errOut bytes.Buffer
	DisableColor()
	SetOutput(&out, &errOut)
	Initialize(isVerbose, isQuiet)

	t.Cleanup(func() {
		SetOutput(os.Stdout, os.Stderr)
		Initialize(false, false)
	})

	return &out, &errOut
}

func TestLevels(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		quiet   bool
		out     []string
		errOut  []string
		absent  []string
	}{
		{"default", false, false, []string{"reading zlib.h", "wrote zlib.go"}, []string{"callback skipped", "boom"}, []string{"decls: 12"}},
		{"verbose", true, false, []string{"reading zlib.h"}, []string{"decls: 12", "boom"}, nil},
		{"quiet", false, true, nil, []string{"boom"}, []string{"reading zlib.h", "callback skipped", "decls: 12"}},
		{"quiet wins", true, true, nil, []string{"boom"}, []string{"decls: 12"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, errOut := capture(t, tt.verbose, tt.quiet)

			Info("reading %s", "zlib.h")
			Success("wrote %s", "zlib.go")
			Warn("callback skipped")
			Debug("decls: %d", 12)
			Error(errors.New("boom"))

			for _, want := range tt.out {
				if !strings.Contains(out.String(), want) {
					t.Errorf("expected stdout to contain %q, got %q", want, out.String())
				}
			}
			for _, want := range tt.errOut {
				if !strings.Contains(errOut.String(), want) {
					t.Errorf("expected stderr to contain %q, got %q", want, errOut.String())
				}
			}
			all := out.String() + errOut.String()
			for _, missing := range tt.absent {
				if strings.Contains(all, missing) {
					t.Errorf("expected %q to be suppressed", missing)
				}
			}
		})
	}
}

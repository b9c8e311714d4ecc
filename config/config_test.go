package config

import (
	"slices"
	"strings"
	"testing"
)

func TestLoad_YAML(t *testing.T) {
	cfg, err := Load("testdata/bindgen.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Input != "include/sample.h" {
		t.Errorf("expected input include/sample.h, got %s", cfg.Input)
	}
	if cfg.Frontend != FrontendScan {
		t.Errorf("expected frontend scan, got %s", cfg.Frontend)
	}
	if cfg.Target != "linux/arm64" {
		t.Errorf("expected target linux/arm64, got %s", cfg.Target)
	}
	if !slices.Equal(cfg.Defines, []string{"SAMPLE_API=extern", "NDEBUG"}) {
		t.Errorf("unexpected defines %v", cfg.Defines)
	}
	if !slices.Equal(cfg.Exclude, []string{"sample_printf"}) {
		t.Errorf("unexpected exclude %v", cfg.Exclude)
	}
}

func TestLoad_TOML(t *testing.T) {
	cfg, err := Load("testdata/bindgen.toml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Output != "gen/sample.go" {
		t.Errorf("expected output gen/sample.go, got %s", cfg.Output)
	}
	if cfg.Package != "samplelib" {
		t.Errorf("expected package samplelib, got %s", cfg.Package)
	}
	if !slices.Equal(cfg.IncludeDirs, []string{"include", "third_party/include"}) {
		t.Errorf("unexpected include dirs %v", cfg.IncludeDirs)
	}
	if !slices.Equal(cfg.ExtraArgs, []string{"-std=c11"}) {
		t.Errorf("unexpected extra args %v", cfg.ExtraArgs)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"testdata/invalid.yaml", "schema validation"},
		{"testdata/unknown.toml", "schema validation"},
		{"testdata/missing.yaml", "reading config"},
		{"testdata/bindgen.json", "unsupported config format"},
		{"testdata/missing.ini", "unsupported config format"},
	}

	for _, tt := range tests {
		_, err := Load(tt.path)
		if err == nil {
			t.Errorf("%s: expected error", tt.path)
			continue
		}
		if !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%s: expected error containing %q, got %v", tt.path, tt.want, err)
		}
	}
}

func TestApplyDefaults(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		library string
		pkg     string
		output  string
	}{
		{"from header", Config{Input: "include/zlib.h"}, "zlib", "zlib", "zlib.go"},
		{"dashed library", Config{Input: "x.h", Library: "my-lib2"}, "my-lib2", "mylib2", "my-lib2.go"},
		{"digits only", Config{Input: "x.h", Library: "42"}, "42", DefaultPackage, "42.go"},
		{"explicit", Config{Input: "x.h", Library: "a", Package: "p", Output: "o.go"}, "a", "p", "o.go"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			if err := cfg.ApplyDefaults(); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.Library != tt.library || cfg.Package != tt.pkg || cfg.Output != tt.output {
				t.Errorf("expected %s/%s/%s, got %s/%s/%s", tt.library, tt.pkg, tt.output, cfg.Library, cfg.Package, cfg.Output)
			}
			if cfg.Frontend != FrontendCC {
				t.Errorf("expected default frontend cc, got %s", cfg.Frontend)
			}
		})
	}

	var empty Config
	if err := empty.ApplyDefaults(); err == nil {
		t.Error("expected error without input")
	}

	bad := Config{Input: "x.h", Frontend: "gcc"}
	if err := bad.ApplyDefaults(); err == nil {
		t.Error("expected error for unknown frontend")
	}
}

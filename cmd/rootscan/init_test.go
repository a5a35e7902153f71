package main

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/nao1215/rootscan/internal/config"
)

func TestInitCmdFlags(t *testing.T) {
	t.Parallel()

	cmd := NewInitCmd()
	tests := []struct {
		name      string
		shorthand string
		def       string
	}{
		{"output", "o", config.DefaultConfigFile},
		{"force", "f", "false"},
		{"stdout", "", "false"},
	}
	for _, tt := range tests {
		flag := cmd.Flags().Lookup(tt.name)
		if flag == nil {
			t.Errorf("missing --%s", tt.name)
			continue
		}
		if flag.Shorthand != tt.shorthand || flag.DefValue != tt.def {
			t.Errorf("--%s: shorthand %q default %q, want %q %q",
				tt.name, flag.Shorthand, flag.DefValue, tt.shorthand, tt.def)
		}
	}
}

func TestRunInitCmd(t *testing.T) {
	t.Parallel()

	const existing = "existing"

	tests := []struct {
		name     string
		path     string // relative to a temp dir
		preexist bool
		force    bool
		wantErr  string
	}{
		{name: "new file", path: ".rootscan"},
		{name: "nested directories", path: filepath.Join("a", "b", ".rootscan")},
		{name: "existing file", path: ".rootscan", preexist: true, wantErr: "already exists"},
		{name: "existing file with force", path: ".rootscan", preexist: true, force: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), tt.path)
			if tt.preexist {
				if err := os.WriteFile(path, []byte(existing), 0600); err != nil {
					t.Fatal(err)
				}
			}

			args := []string{"-o", path}
			if tt.force {
				args = append(args, "-f")
			}
			cmd := NewInitCmd()
			var out bytes.Buffer
			cmd.SetOut(&out)
			cmd.SetErr(&out)
			cmd.SetArgs(args)
			err := cmd.Execute()

			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected %q error, got %v", tt.wantErr, err)
				}
				content, _ := os.ReadFile(path)
				if string(content) != existing {
					t.Error("existing file was modified")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			content, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(content, configTemplate) {
				t.Error("written file differs from the template")
			}
			if !strings.Contains(out.String(), path) {
				t.Errorf("output does not name the file: %q", out.String())
			}

			if runtime.GOOS != "windows" {
				info, err := os.Stat(path)
				if err != nil {
					t.Fatal(err)
				}
				if tt.preexist {
					return
				}
				if perm := info.Mode().Perm(); perm != 0600 {
					t.Errorf("permissions %o, want 600", perm)
				}
			}
		})
	}
}

func TestRunInitCmdStdout(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cmd := NewInitCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--stdout", "-o", filepath.Join(dir, ".rootscan")})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.String() != string(configTemplate) {
		t.Error("stdout does not carry the template")
	}
	if _, err := os.Stat(filepath.Join(dir, ".rootscan")); !os.IsNotExist(err) {
		t.Error("--stdout must not write a file")
	}
}

// The template documents the defaults, so loading it must change nothing.
func TestConfigTemplate(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".rootscan")
	if err := os.WriteFile(path, configTemplate, 0600); err != nil {
		t.Fatal(err)
	}

	file, err := config.LoadConfigFile(path)
	if err != nil {
		t.Fatalf("template does not parse: %v", err)
	}

	cfg := config.NewConfig()
	defaults := *cfg
	file.Apply(cfg)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("template config is invalid: %v", err)
	}

	if cfg.Lo != defaults.Lo || cfg.Hi != defaults.Hi || cfg.Step != defaults.Step {
		t.Errorf("domain = [%v, %v] step %v, want defaults [%v, %v] step %v",
			cfg.Lo, cfg.Hi, cfg.Step, defaults.Lo, defaults.Hi, defaults.Step)
	}
	if cfg.Capacity != defaults.Capacity {
		t.Errorf("capacity = %d, want %d", cfg.Capacity, defaults.Capacity)
	}
	if cfg.Tolerance != defaults.Tolerance || cfg.MaxIterations != defaults.MaxIterations {
		t.Errorf("solver = %v/%d, want %v/%d",
			cfg.Tolerance, cfg.MaxIterations, defaults.Tolerance, defaults.MaxIterations)
	}
	if cfg.SweepFrom != defaults.SweepFrom || cfg.SweepTo != defaults.SweepTo {
		t.Errorf("sweep = %d..%d, want %d..%d", cfg.SweepFrom, cfg.SweepTo, defaults.SweepFrom, defaults.SweepTo)
	}
	if _, ok := file.Plots["f3"]; !ok {
		t.Error("expected a plots entry for f3")
	}
}

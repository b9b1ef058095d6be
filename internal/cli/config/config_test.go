package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "interop.yml"), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
}

func TestLoad(t *testing.T) {
	// No config file, defaults apply
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	os.Chdir(tmpDir)
	defer os.Chdir(oldWd)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error loading defaults, got %v", err)
	}
	if cfg == nil {
		t.Fatal("expected config to be non-nil")
	}

	if !cfg.AdditionalBuiltins {
		t.Error("expected additional builtins to default to true")
	}
	if cfg.Workers != 4 {
		t.Errorf("expected default workers 4, got %d", cfg.Workers)
	}
	if cfg.Output.Format != "text" {
		t.Errorf("expected default format 'text', got %s", cfg.Output.Format)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected default log level 'info', got %s", cfg.Log.Level)
	}
	if len(cfg.Classpath) != 0 {
		t.Errorf("expected empty classpath, got %v", cfg.Classpath)
	}
}

func TestLoadFromWithConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `
classpath:
  - lib/stdlib
  - /opt/platform
  - mem://localhost/records
additional_builtins: false
workers: 8
output:
  format: json
log:
  level: debug
  development: true
`)

	cfg, err := LoadFrom(tmpDir)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	want := []string{filepath.Join(tmpDir, "lib/stdlib"), "/opt/platform", "mem://localhost/records"}
	if len(cfg.Classpath) != len(want) {
		t.Fatalf("expected classpath %v, got %v", want, cfg.Classpath)
	}
	for i := range want {
		if cfg.Classpath[i] != want[i] {
			t.Errorf("classpath[%d]: expected %s, got %s", i, want[i], cfg.Classpath[i])
		}
	}
	if cfg.AdditionalBuiltins {
		t.Error("expected additional builtins to be disabled")
	}
	if cfg.Workers != 8 {
		t.Errorf("expected workers 8, got %d", cfg.Workers)
	}
	if cfg.Output.Format != "json" {
		t.Errorf("expected format 'json', got %s", cfg.Output.Format)
	}
	if cfg.Log.Level != "debug" || !cfg.Log.Development {
		t.Errorf("unexpected log config: %+v", cfg.Log)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, "workers: 2\n")

	t.Setenv("INTEROP_WORKERS", "6")
	t.Setenv("INTEROP_OUTPUT_FORMAT", "json")

	cfg, err := LoadFrom(tmpDir)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Workers != 6 {
		t.Errorf("expected INTEROP_WORKERS to win, got %d", cfg.Workers)
	}
	if cfg.Output.Format != "json" {
		t.Errorf("expected format from environment, got %s", cfg.Output.Format)
	}
}

func TestLoadFromClasspathEnvironment(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, "classpath: [a]\n")
	t.Setenv("INTEROP_CLASSPATH", "/x, /y")

	cfg, err := LoadFrom(tmpDir)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(cfg.Classpath) != 2 || cfg.Classpath[0] != "/x" || cfg.Classpath[1] != "/y" {
		t.Errorf("expected [/x /y], got %v", cfg.Classpath)
	}
}

func TestLoadFromInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"format", "output:\n  format: xml\n"},
		{"workers", "workers: 0\n"},
		{"level", "log:\n  level: loud\n"},
		{"empty classpath entry", "classpath: ['']\n"},
		{"malformed yaml", "classpath: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			writeConfig(t, tmpDir, tt.content)
			if _, err := LoadFrom(tmpDir); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestExists(t *testing.T) {
	tmpDir := t.TempDir()
	if Exists(tmpDir) {
		t.Error("expected no config in empty directory")
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "interop.yaml"), []byte("workers: 1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if !Exists(tmpDir) {
		t.Error("expected interop.yaml to be found")
	}
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(LogConfig{Level: "warn"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if logger.Core().Enabled(-1) {
		t.Error("expected debug to be disabled at warn level")
	}

	dev, err := NewLogger(LogConfig{Level: "debug", Development: true})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !dev.Core().Enabled(-1) {
		t.Error("expected debug to be enabled")
	}

	if _, err := NewLogger(LogConfig{Level: "loud"}); err == nil {
		t.Error("expected an error for unknown level")
	}
}

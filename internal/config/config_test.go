package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"apiextract/internal/errors"
	"apiextract/internal/paths"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.IncludeMembersDefault {
		t.Error("includeMembersDefault should default to true")
	}
	if cfg.Annotations.Include != "apiextract.annotations.PublicApi" {
		t.Errorf("Annotations.Include = %q", cfg.Annotations.Include)
	}
	if cfg.Output.Location != "API_OUTPUT" {
		t.Errorf("Output.Location = %q", cfg.Output.Location)
	}
	if !cfg.Ledger.Enabled {
		t.Error("ledger should be enabled by default")
	}
	if err := cfg.Validate(); !errors.Is(err, errors.ConfigInvalid) {
		t.Errorf("defaults without basePackages should be invalid, got %v", err)
	}
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir(), "")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if !reflect.DeepEqual(cfg.Annotations, DefaultConfig().Annotations) || cfg.Output != DefaultConfig().Output {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadConfig_ExplicitFileMustExist(t *testing.T) {
	_, err := LoadConfig(t.TempDir(), filepath.Join(t.TempDir(), "nope.toml"))
	if !errors.Is(err, errors.ConfigInvalid) {
		t.Errorf("expected CONFIG_INVALID, got %v", err)
	}
}

func TestLoadConfig_File(t *testing.T) {
	root := t.TempDir()
	if _, err := paths.EnsureStateDir(root); err != nil {
		t.Fatal(err)
	}
	content := `
basePackages = ["com.example.api", "com.example.spi"]
excludePackages = ["com.example.api.internal"]
includeMembersDefault = false
warnDoc = true

[output]
jar = "build/api.jar"

[emit]
workers = 4
`
	if err := os.WriteFile(paths.ConfigPath(root), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(root, "")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if !reflect.DeepEqual(cfg.BasePackages, []string{"com.example.api", "com.example.spi"}) {
		t.Errorf("BasePackages = %v", cfg.BasePackages)
	}
	if cfg.IncludeMembersDefault {
		t.Error("includeMembersDefault should be false")
	}
	if !cfg.WarnDoc || cfg.Emit.Workers != 4 || cfg.Output.Jar != "build/api.jar" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	// Untouched keys keep their defaults.
	if cfg.Output.Dir != "build/api-classes" || cfg.Output.Location != "API_OUTPUT" {
		t.Errorf("Output = %+v", cfg.Output)
	}
	if !reflect.DeepEqual(cfg.DocBasePackages(), cfg.BasePackages) {
		t.Errorf("DocBasePackages = %v", cfg.DocBasePackages())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("APIEXTRACT_BASEPACKAGES", "com.a,com.b")
	t.Setenv("APIEXTRACT_EMIT_WORKERS", "2")

	cfg, err := LoadConfig(t.TempDir(), "")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if !reflect.DeepEqual(cfg.BasePackages, []string{"com.a", "com.b"}) {
		t.Errorf("BasePackages = %v", cfg.BasePackages)
	}
	if cfg.Emit.Workers != 2 {
		t.Errorf("Workers = %d", cfg.Emit.Workers)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	root := t.TempDir()
	cfg := DefaultConfig()
	cfg.BasePackages = []string{"org.acme"}
	cfg.Output.Jar = "out/api.jar"
	if err := cfg.Save(root); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(paths.ConfigPath(root))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "# apiextract configuration.") {
		t.Errorf("missing header:\n%s", data)
	}

	loaded, err := LoadConfig(root, "")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if !reflect.DeepEqual(loaded.BasePackages, cfg.BasePackages) || loaded.Output != cfg.Output ||
		loaded.Logging != cfg.Logging || loaded.Annotations != cfg.Annotations {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, cfg)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"no base packages", func(c *Config) { c.BasePackages = nil }, "basePackages"},
		{"bad package", func(c *Config) { c.BasePackages = []string{"com..x"} }, "basePackages"},
		{"bad exclude", func(c *Config) { c.ExcludePackages = []string{"1com"} }, "excludePackages"},
		{"same markers", func(c *Config) { c.Annotations.Exclude = c.Annotations.Include }, "annotations.exclude"},
		{"empty marker", func(c *Config) { c.Annotations.Include = "" }, "annotations.include"},
		{"no location", func(c *Config) { c.Output.Location = "" }, "output.location"},
		{"negative workers", func(c *Config) { c.Emit.Workers = -1 }, "emit.workers"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.BasePackages = []string{"com.example"}
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, errors.ConfigInvalid) {
				t.Fatalf("expected CONFIG_INVALID, got %v", err)
			}
			if !strings.Contains(err.Error(), "'"+tt.wantErr+"'") {
				t.Errorf("error should mention %s: %v", tt.wantErr, err)
			}
		})
	}
}

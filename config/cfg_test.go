package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfigurationDefaults(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration(): %v", err)
	}
	if cfg.Version != 1 {
		t.Errorf("version = %d, want 1", cfg.Version)
	}
	if cfg.Compiler.Variant != VariantProduction {
		t.Errorf("default variant = %s, want production", cfg.Compiler.Variant)
	}
	if !cfg.Compiler.SplitOversized {
		t.Error("oversized run splitting is off by default")
	}
	if cfg.Compiler.MaxTextRun != 200 || cfg.Compiler.MaxOpaqueRun != 200 {
		t.Errorf("default run limits = %d/%d, want 200/200", cfg.Compiler.MaxTextRun, cfg.Compiler.MaxOpaqueRun)
	}
	if cfg.Validator.Workers != 0 {
		t.Errorf("default workers = %d, want 0", cfg.Validator.Workers)
	}
}

func TestLoadConfigurationFile(t *testing.T) {
	path := writeConfig(t, `
version: 1
compiler:
  variant: debug
  max_text_run: 100
validator:
  workers: 4
`)
	cfg, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration(): %v", err)
	}
	if cfg.Compiler.Variant != VariantDebug {
		t.Errorf("variant = %s, want debug", cfg.Compiler.Variant)
	}
	if cfg.Compiler.MaxTextRun != 100 {
		t.Errorf("max_text_run = %d, want 100", cfg.Compiler.MaxTextRun)
	}
	if cfg.Validator.Workers != 4 {
		t.Errorf("workers = %d, want 4", cfg.Validator.Workers)
	}
	// untouched values keep template defaults
	if cfg.Compiler.MaxOpaqueRun != 200 {
		t.Errorf("max_opaque_run = %d, want 200", cfg.Compiler.MaxOpaqueRun)
	}
}

func TestLoadConfigurationRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		yml  string
	}{
		{"unknown field", "version: 1\nnonsense: true\n"},
		{"bad variant", "version: 1\ncompiler:\n  variant: turbo\n"},
		{"bad version", "version: 2\n"},
		{"run limit too small", "version: 1\ncompiler:\n  max_text_run: 1\n"},
		{"negative workers", "version: 1\nvalidator:\n  workers: -1\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := LoadConfiguration(writeConfig(t, tc.yml)); err == nil {
				t.Fatal("LoadConfiguration() accepted bad configuration")
			}
		})
	}
}

func TestDump(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration(): %v", err)
	}
	data, err := Dump(cfg)
	if err != nil {
		t.Fatalf("Dump(): %v", err)
	}
	if !strings.Contains(string(data), "variant: production") {
		t.Errorf("dumped configuration misses variant:\n%s", data)
	}
}

func TestVariant(t *testing.T) {
	if VariantDebug.Header() != [2]byte{0x00, 0x01} || VariantProduction.Header() != [2]byte{0x40, 0x01} {
		t.Error("variant headers are wrong")
	}
	if VariantDebug.Ext() != ".dbg.bin" || VariantProduction.Ext() != ".bin" {
		t.Error("variant extensions are wrong")
	}
	for _, name := range VariantNames() {
		v, err := ParseVariant(name)
		if err != nil {
			t.Errorf("ParseVariant(%s): %v", name, err)
		}
		if v.String() != name {
			t.Errorf("String() = %s, want %s", v.String(), name)
		}
	}
	if _, err := ParseVariant("turbo"); err == nil {
		t.Error("ParseVariant() accepted unknown name")
	}
}

func writeConfig(t *testing.T, yml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yml), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

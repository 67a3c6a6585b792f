package atoms

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBuiltinLookup(t *testing.T) {
	tbl := Builtin()

	def, ok := tbl.Lookup("uni_start_stream")
	if !ok {
		t.Fatal("uni_start_stream not in builtin table")
	}
	if def.WireCode() != 0x0001 {
		t.Errorf("uni_start_stream wire code = %#04x, want 0x0001", def.WireCode())
	}
	if len(def.Args) != 1 || def.Args[0] != ArgHexByte {
		t.Errorf("uni_start_stream signature = %v", def.Args)
	}

	if _, ok := tbl.Lookup("UNI_START_STREAM"); ok {
		t.Error("lookup is not case-sensitive")
	}
	if _, ok := tbl.Lookup("foo_bar"); ok {
		t.Error("unknown mnemonic resolved")
	}
}

func TestBuiltinCodeRoundTrip(t *testing.T) {
	tbl := Builtin()
	for _, name := range []string{"man_start_object", "mat_object_id", "de_ez_send_form", "xfer_end"} {
		def, ok := tbl.Lookup(name)
		if !ok {
			t.Fatalf("%s not in builtin table", name)
		}
		back, ok := tbl.LookupCode(def.WireCode())
		if !ok || back.Mnemonic != name {
			t.Errorf("LookupCode(%#04x) = %v, want %s", def.WireCode(), back, name)
		}
	}
}

func TestBuiltinEnums(t *testing.T) {
	tbl := Builtin()
	code, ok := tbl.Enum("independent")
	if !ok || code != 0x01 {
		t.Fatalf("Enum(independent) = %#02x, %t", code, ok)
	}
	name, ok := tbl.EnumName(0x01)
	if !ok || name != "independent" {
		t.Fatalf("EnumName(0x01) = %q, %t", name, ok)
	}
	if _, ok := tbl.Enum("banana"); ok {
		t.Error("unknown enum resolved")
	}
}

func TestLoadExtensions(t *testing.T) {
	path := writeExtensions(t, `
atoms:
  - mnemonic: ext_custom_data
    proto: 30
    code: 1
    args: [string, integer]
enums:
  fancy_class: 0x42
`)

	tbl, err := Load(path)
	if err != nil {
		t.Fatalf("Load(): %v", err)
	}
	if tbl.Len() != Builtin().Len()+1 {
		t.Errorf("extended table has %d atoms, builtin %d", tbl.Len(), Builtin().Len())
	}

	def, ok := tbl.Lookup("ext_custom_data")
	if !ok {
		t.Fatal("extension mnemonic not resolved")
	}
	if def.WireCode() != 0x1e01 {
		t.Errorf("extension wire code = %#04x, want 0x1e01", def.WireCode())
	}
	if len(def.Args) != 2 || def.Args[0] != ArgString || def.Args[1] != ArgInteger {
		t.Errorf("extension signature = %v", def.Args)
	}
	if code, ok := tbl.Enum("fancy_class"); !ok || code != 0x42 {
		t.Errorf("Enum(fancy_class) = %#02x, %t", code, ok)
	}

	// builtin table must stay untouched
	if _, ok := Builtin().Lookup("ext_custom_data"); ok {
		t.Error("Load() mutated the builtin table")
	}
}

func TestLoadRejectsRedefinition(t *testing.T) {
	tests := []struct {
		name string
		yml  string
		want string
	}{
		{"mnemonic", "atoms:\n  - mnemonic: uni_start_stream\n    proto: 30\n    code: 1\n", "redefines"},
		{"wire code", "atoms:\n  - mnemonic: ext_thing\n    proto: 0\n    code: 1\n", "reuses wire code"},
		{"enum", "enums:\n  independent: 0x66\n", "redefines"},
		{"bad arg type", "atoms:\n  - mnemonic: ext_thing\n    proto: 30\n    code: 1\n    args: [blob]\n", "not a valid"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeExtensions(t, tc.yml))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("Load() error = %v, want %q", err, tc.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Load() succeeded on missing file")
	}
}

func writeExtensions(t *testing.T, yml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "atoms.yaml")
	if err := os.WriteFile(path, []byte(yml), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

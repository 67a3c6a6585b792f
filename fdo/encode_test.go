package fdo

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"fdoc/config"
	"fdoc/fdo/atoms"
)

func mustParse(t *testing.T, src string) *Tree {
	t.Helper()
	tree, err := Parse(src, atoms.Builtin())
	if err != nil {
		t.Fatalf("Parse(): %v", err)
	}
	return tree
}

func TestEncodeScenarioVerbose(t *testing.T) {
	tree := mustParse(t, scenarioSrc)

	out, err := NewEncoder(atoms.Builtin()).Encode(tree, config.VariantDebug)
	if err != nil {
		t.Fatalf("Encode(): %v", err)
	}

	want := []byte{
		0x00, 0x01, // header
		0x00, 0x01, 0x00, 0x13, // uni_start_stream, 19 payload bytes
		0x00,                   // <00x>
		0x01, 0x01, 0x00, 0x0e, // man_start_object, 14 payload bytes
		0x01,                // independent
		0x04, 'T', 'e', 's', 't',
		0x02, 0x01, 0x00, 0x04, // mat_object_id, 4 payload bytes
		0x00, 0x20, 0x00, 0x01, // 32-1
		0x00, 0x02, 0x00, 0x01, // uni_end_stream, 1 payload byte
		0x00, // <00x>
	}
	if !bytes.Equal(out.Bytes(), want) {
		t.Fatalf("stream bytes\n got %x\nwant %x", out.Bytes(), want)
	}
}

func TestEncodeHeaders(t *testing.T) {
	tree := mustParse(t, scenarioSrc)
	enc := NewEncoder(atoms.Builtin())

	for v, want := range map[config.Variant][2]byte{
		config.VariantDebug:      {0x00, 0x01},
		config.VariantProduction: {0x40, 0x01},
	} {
		out, err := enc.Encode(tree, v)
		if err != nil {
			t.Fatalf("Encode(%s): %v", v, err)
		}
		if out.Header != want || !bytes.HasPrefix(out.Bytes(), want[:]) {
			t.Errorf("Encode(%s) header = %x, want %x", v, out.Header, want)
		}
		got, ok := DetectVariant(out.Bytes())
		if !ok || got != v {
			t.Errorf("DetectVariant() = %s, %t", got, ok)
		}
	}
}

func TestEncodeDeterminism(t *testing.T) {
	tree := mustParse(t, streamSrc(t))
	enc := NewEncoder(atoms.Builtin())

	for _, v := range []config.Variant{config.VariantDebug, config.VariantProduction} {
		a, err := enc.Encode(tree, v)
		if err != nil {
			t.Fatalf("Encode(%s): %v", v, err)
		}
		b, err := enc.Encode(tree, v)
		if err != nil {
			t.Fatalf("Encode(%s): %v", v, err)
		}
		if !bytes.Equal(a.Bytes(), b.Bytes()) {
			t.Errorf("Encode(%s) is not deterministic", v)
		}
	}
}

func TestEncodeCompactNeverLarger(t *testing.T) {
	sources := []string{
		scenarioSrc,
		streamSrc(t),
		"uni_start_stream <00x>\nuni_end_stream <00x>\n",
	}
	enc := NewEncoder(atoms.Builtin())
	for i, src := range sources {
		tree := mustParse(t, src)
		dbg, err := enc.Encode(tree, config.VariantDebug)
		if err != nil {
			t.Fatalf("case %d debug: %v", i, err)
		}
		prod, err := enc.Encode(tree, config.VariantProduction)
		if err != nil {
			t.Fatalf("case %d production: %v", i, err)
		}
		if prod.Len() > dbg.Len() {
			t.Errorf("case %d: production %d bytes > debug %d bytes", i, prod.Len(), dbg.Len())
		}
	}
}

// Max-width numeric values cost a prefix byte on top of their fixed form, an
// atom stacking several of them must not outgrow its debug encoding.
func TestEncodeWideValuesNeverExpand(t *testing.T) {
	yml := `
atoms:
  - mnemonic: ext_wide_pairs
    proto: 30
    code: 1
    args: [gid, gid, gid, gid]
  - mnemonic: ext_wide_ints
    proto: 30
    code: 2
    args: [integer, integer]
`
	path := filepath.Join(t.TempDir(), "atoms.yaml")
	if err := os.WriteFile(path, []byte(yml), 0600); err != nil {
		t.Fatal(err)
	}
	tbl, err := atoms.Load(path)
	if err != nil {
		t.Fatalf("Load(): %v", err)
	}

	src := `uni_start_stream <00x>
ext_wide_pairs <700-700, 700-700, 700-700, 700-700>
ext_wide_ints <100000, -100000>
uni_end_stream <00x>
`
	tree, err := Parse(src, tbl)
	if err != nil {
		t.Fatalf("Parse(): %v", err)
	}

	enc := NewEncoder(tbl)
	dbg, err := enc.Encode(tree, config.VariantDebug)
	if err != nil {
		t.Fatalf("Encode(debug): %v", err)
	}
	prod, err := enc.Encode(tree, config.VariantProduction)
	if err != nil {
		t.Fatalf("Encode(production): %v", err)
	}
	if prod.Len() > dbg.Len() {
		t.Errorf("production %d bytes > debug %d bytes", prod.Len(), dbg.Len())
	}

	back, _, err := NewDecoder(tbl).Decode(prod.Bytes())
	if err != nil {
		t.Fatalf("Decode(): %v", err)
	}
	if !tree.Equal(back, tbl) {
		t.Errorf("wide value stream does not round-trip:\n%s", Decompile(back))
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tree := mustParse(t, streamSrc(t))
	enc := NewEncoder(atoms.Builtin())
	dec := NewDecoder(atoms.Builtin())

	for _, v := range []config.Variant{config.VariantDebug, config.VariantProduction} {
		out, err := enc.Encode(tree, v)
		if err != nil {
			t.Fatalf("Encode(%s): %v", v, err)
		}
		back, got, err := dec.Decode(out.Bytes())
		if err != nil {
			t.Fatalf("Decode(%s): %v", v, err)
		}
		if got != v {
			t.Errorf("Decode() variant = %s, want %s", got, v)
		}
		if !tree.Equal(back, atoms.Builtin()) {
			t.Errorf("Decode(Encode(%s)) tree differs:\n%s", v, Decompile(back))
		}
	}
}

func TestStringInterning(t *testing.T) {
	src := "uni_start_stream <00x>\n" +
		"man_append_data <\"repeat me\">\n" +
		"man_append_data <\"repeat me\">\n" +
		"man_append_data <\"repeat me\">\n" +
		"uni_end_stream <00x>\n"
	tree := mustParse(t, src)
	enc := NewEncoder(atoms.Builtin())

	prod, err := enc.Encode(tree, config.VariantProduction)
	if err != nil {
		t.Fatalf("Encode(): %v", err)
	}
	// one full literal plus two 2-byte back-references
	if n := bytes.Count(prod.Bytes(), []byte("repeat me")); n != 1 {
		t.Errorf("literal occurs %d times in compact stream, want 1", n)
	}
	if n := bytes.Count(prod.Bytes(), []byte{0xff, 0x00}); n != 2 {
		t.Errorf("back-reference occurs %d times, want 2", n)
	}

	back, _, err := NewDecoder(atoms.Builtin()).Decode(prod.Bytes())
	if err != nil {
		t.Fatalf("Decode(): %v", err)
	}
	if !tree.Equal(back, atoms.Builtin()) {
		t.Errorf("interned stream does not round-trip:\n%s", Decompile(back))
	}
}

func TestEncodeArgumentErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"bad hex byte", "mat_bool_writeable <zzx>"},
		{"hex byte too long", "mat_bool_writeable <001x>"},
		{"unquoted string", "man_append_data <hello>"},
		{"unknown enum", "man_start_object <banana, \"x\">"},
		{"bad gid", "mat_object_id <32>"},
		{"gid half too large", "mat_object_id <70000-1>"},
		{"integer overflow", "mat_precise_x <4294967296>"},
		{"odd opaque digits", "idb_append_data <012>"},
		{"missing argument", "mat_orientation"},
		{"extra argument", "mat_orientation <vff, vcc>"},
	}
	enc := NewEncoder(atoms.Builtin())
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tree := mustParse(t, "uni_start_stream <00x>\n"+tc.line+"\nuni_end_stream <00x>\n")
			_, err := enc.Encode(tree, config.VariantDebug)
			var afe *ArgumentFormatError
			if !errors.As(err, &afe) {
				t.Fatalf("Encode() error = %v (%T), want ArgumentFormatError", err, err)
			}
			if afe.Line != 2 {
				t.Errorf("error line = %d, want 2", afe.Line)
			}
		})
	}
}

func TestTokenizeArgsSpacedSeparators(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{`<"a" , "b">`, []string{`"a"`, `"b"`}},
		{`<"a"	,"b">`, []string{`"a"`, `"b"`}},
		{`<window , "x">`, []string{"window", `"x"`}},
	}
	for _, tc := range tests {
		got, err := tokenizeArgs(tc.raw, len(tc.want))
		if err != nil {
			t.Errorf("tokenizeArgs(%q): %v", tc.raw, err)
			continue
		}
		if !slices.Equal(got, tc.want) {
			t.Errorf("tokenizeArgs(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestEncodeEmptyTree(t *testing.T) {
	enc := NewEncoder(atoms.Builtin())
	for _, tree := range []*Tree{nil, {}} {
		var ee *EncodingError
		if _, err := enc.Encode(tree, config.VariantDebug); !errors.As(err, &ee) {
			t.Errorf("Encode(%v) error = %v, want EncodingError", tree, err)
		}
	}
}

// streamSrc builds a source exercising every argument type, nesting and a
// repeated string literal.
func streamSrc(t *testing.T) string {
	t.Helper()
	return fmt.Sprintf(`uni_start_stream <00x>
man_start_object <window, "Main Window">
  mat_object_id <32-105>
  mat_orientation <vcc>
  mat_precise_width <%d>
  mat_precise_height <-12>
  mat_title <"Main Window">
  mat_object_color <00FF00>
  act_replace_select_action <0102030405>
man_end_object
man_append_data <"says \"hi\" politely">
sm_send_k1 <41-3>
de_ez_send_form
uni_end_stream <00x>
`, 640)
}

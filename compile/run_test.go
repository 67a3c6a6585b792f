package compile

import (
	"errors"
	"strings"
	"testing"

	"fdoc/config"
	"fdoc/fdo"
	"fdoc/fdo/atoms"
	"fdoc/state"
)

func testEnv(t *testing.T) *state.LocalEnv {
	t.Helper()
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration(): %v", err)
	}
	return &state.LocalEnv{Cfg: cfg, Atoms: atoms.Builtin()}
}

func TestCompilePipeline(t *testing.T) {
	env := testEnv(t)
	src := `uni_start_stream <00x>
man_start_object <independent, "Test">
mat_object_id <32-1>
uni_end_stream <00x>
`
	for _, v := range []config.Variant{config.VariantDebug, config.VariantProduction} {
		out, err := Compile(src, v, env)
		if err != nil {
			t.Fatalf("Compile(%s): %v", v, err)
		}
		h := v.Header()
		if out.Bytes()[0] != h[0] || out.Bytes()[1] != h[1] {
			t.Errorf("Compile(%s) header = %x", v, out.Bytes()[:2])
		}
	}
}

func TestCompileSplitsOversizedRuns(t *testing.T) {
	env := testEnv(t)
	env.Cfg.Compiler.MaxTextRun = 50

	long := strings.Repeat("word ", 60) // 300 chars, over the wire cap
	src := "uni_start_stream <00x>\n" +
		"man_append_data <\"" + strings.TrimSpace(long) + "\">\n" +
		"uni_end_stream <00x>\n"

	out, err := Compile(src, config.VariantDebug, env)
	if err != nil {
		t.Fatalf("Compile(): %v", err)
	}
	tree, _, err := fdo.NewDecoder(env.Atoms).Decode(out.Bytes())
	if err != nil {
		t.Fatalf("Decode(): %v", err)
	}
	// stream, several data runs, end stream
	if n := tree.Count(); n < 5 {
		t.Errorf("atom count = %d, want oversized text split into several runs", n)
	}

	env.Cfg.Compiler.SplitOversized = false
	if _, err := Compile(src, config.VariantDebug, env); err == nil {
		t.Error("Compile() accepted oversized run with splitting disabled")
	}
}

func TestCompileErrors(t *testing.T) {
	env := testEnv(t)

	var se *fdo.StructuralError
	if _, err := Compile("", config.VariantDebug, env); !errors.As(err, &se) {
		t.Errorf("Compile(empty) error = %v, want StructuralError", err)
	}
	var le *fdo.LookupError
	if _, err := Compile("foo_bar\n", config.VariantDebug, env); !errors.As(err, &le) {
		t.Errorf("Compile(unknown atom) error = %v, want LookupError", err)
	}
}

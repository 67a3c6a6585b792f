package fdo

import (
	"errors"
	"strings"
	"testing"

	"fdoc/fdo/atoms"
)

const scenarioSrc = `uni_start_stream <00x>
man_start_object <independent, "Test">
mat_object_id <32-1>
uni_end_stream <00x>
`

func TestParseScenario(t *testing.T) {
	tree, err := Parse(scenarioSrc, atoms.Builtin())
	if err != nil {
		t.Fatalf("Parse(): %v", err)
	}
	if got := tree.Count(); got != 4 {
		t.Fatalf("atom count = %d, want 4", got)
	}
	if len(tree.Nodes) != 2 {
		t.Fatalf("top level atoms = %d, want 2 (stream and its close)", len(tree.Nodes))
	}

	stream := tree.Nodes[0]
	if stream.Def.Mnemonic != "uni_start_stream" || len(stream.Children) != 1 {
		t.Fatalf("stream = %s with %d children", stream.Def.Mnemonic, len(stream.Children))
	}
	obj := stream.Children[0]
	if obj.Def.Mnemonic != "man_start_object" || len(obj.Children) != 1 {
		t.Fatalf("object = %s with %d children", obj.Def.Mnemonic, len(obj.Children))
	}
	if attr := obj.Children[0]; attr.Def.Mnemonic != "mat_object_id" || attr.RawArgs != "<32-1>" {
		t.Fatalf("attribute = %s %q", attr.Def.Mnemonic, attr.RawArgs)
	}
	if tree.Nodes[1].Def.Mnemonic != "uni_end_stream" {
		t.Fatalf("last top level atom = %s, want uni_end_stream", tree.Nodes[1].Def.Mnemonic)
	}
}

func TestParseCommentsAndLineEndings(t *testing.T) {
	src := "< header comment\r\n" +
		"uni_start_stream <00x>\r\n" +
		"\r\n" +
		"  < indented comment\r\n" +
		"man_append_data <\"hi\">\r\n" +
		"uni_end_stream <00x>\r\n"

	tree, err := Parse(src, atoms.Builtin())
	if err != nil {
		t.Fatalf("Parse(): %v", err)
	}
	if got := tree.Count(); got != 3 {
		t.Fatalf("atom count = %d, want 3", got)
	}
}

func TestParseIndentNesting(t *testing.T) {
	src := `uni_start_stream <00x>
  man_start_object <window, "Outer">
    mat_orientation <vff>
    act_replace_select_action <0102>
      act_set_criterion <0304>
  man_end_object
uni_end_stream <00x>
`
	tree, err := Parse(src, atoms.Builtin())
	if err != nil {
		t.Fatalf("Parse(): %v", err)
	}

	stream := tree.Nodes[0]
	obj := stream.Children[0]
	if len(obj.Children) != 2 {
		t.Fatalf("object children = %d, want 2", len(obj.Children))
	}
	action := obj.Children[1]
	if action.Def.Mnemonic != "act_replace_select_action" || len(action.Children) != 1 {
		t.Fatalf("action = %s with %d children", action.Def.Mnemonic, len(action.Children))
	}
	if nested := action.Children[0]; nested.Def.Mnemonic != "act_set_criterion" || nested.Depth != 3 {
		t.Fatalf("nested = %s at depth %d", nested.Def.Mnemonic, nested.Depth)
	}
	// close marker is a sibling of its opener, not a child
	if end := stream.Children[1]; end.Def.Mnemonic != "man_end_object" || end.Depth != 1 {
		t.Fatalf("man_end_object attached as %s at depth %d", end.Def.Mnemonic, end.Depth)
	}
}

func TestParseEndStreamClosesOpenObjects(t *testing.T) {
	tree, err := Parse(scenarioSrc, atoms.Builtin())
	if err != nil {
		t.Fatalf("Parse(): %v", err)
	}
	if end := tree.Nodes[len(tree.Nodes)-1]; end.Depth != 0 {
		t.Fatalf("uni_end_stream depth = %d, want 0", end.Depth)
	}
}

func TestParseErrors(t *testing.T) {
	structural := func(err error) bool { var e *StructuralError; return errors.As(err, &e) }

	tests := []struct {
		name string
		src  string
		want func(error) bool
	}{
		{"empty input", "", structural},
		{"comments only", "< nothing here\n\n", structural},
		{"missing end stream", "uni_start_stream <00x>\nman_append_data <\"x\">\n", structural},
		{"atom before stream", "man_append_data <\"x\">\nuni_start_stream <00x>\nuni_end_stream <00x>\n", structural},
		{"atom after stream", scenarioSrc + "man_append_data <\"x\">\n", structural},
		{"second stream", "uni_start_stream <00x>\nuni_start_stream <00x>\nuni_end_stream <00x>\n", structural},
		{"end stream without open", "uni_end_stream <00x>\n", structural},
		{"stray end object", "uni_start_stream <00x>\nman_end_object\nuni_end_stream <00x>\n", structural},
		{"unknown mnemonic", "uni_start_stream <00x>\nfoo_bar <1>\nuni_end_stream <00x>\n", func(err error) bool {
			var e *LookupError
			return errors.As(err, &e) && e.Line == 2 && e.Mnemonic == "foo_bar"
		}},
		{"tab indentation", "uni_start_stream <00x>\n\tman_end_context\nuni_end_stream <00x>\n", func(err error) bool {
			var e *ParseError
			return errors.As(err, &e) && e.Line == 2
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.src, atoms.Builtin())
			if err == nil {
				t.Fatal("Parse() succeeded, want error")
			}
			if !tc.want(err) {
				t.Fatalf("Parse() error = %v (%T)", err, err)
			}
		})
	}
}

func TestDecompileRoundTrip(t *testing.T) {
	tree, err := Parse(scenarioSrc, atoms.Builtin())
	if err != nil {
		t.Fatalf("Parse(): %v", err)
	}

	src := Decompile(tree)
	if !strings.Contains(src, "man_start_object <independent, \"Test\">") {
		t.Fatalf("Decompile() output:\n%s", src)
	}

	again, err := Parse(src, atoms.Builtin())
	if err != nil {
		t.Fatalf("Parse(Decompile()): %v", err)
	}
	if !tree.Equal(again, atoms.Builtin()) {
		t.Fatalf("reparsed tree differs:\n%s", src)
	}
}

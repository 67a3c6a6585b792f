package fdo

import (
	"strings"

	"fdoc/fdo/atoms"
)

// Mnemonics with structural meaning to the parser. Everything else nests by
// indentation alone.
const (
	mnemStartStream = "uni_start_stream"
	mnemEndStream   = "uni_end_stream"
	mnemStartObject = "man_start_object"
	mnemEndObject   = "man_end_object"
)

type scopeKind int

const (
	scopeNone scopeKind = iota
	scopeStream
	scopeObject
)

// frame is one open level of the nesting stack.
type frame struct {
	indent int
	node   *Node
	kind   scopeKind
}

// Parse turns atom stream source text into a tree. Lines use LF or CRLF
// endings, blank lines and lines starting with "<" after trimming are
// ignored. Leading spaces select the nesting level, a scope opener also
// adopts following atoms written at its own indent. The stream must open
// with uni_start_stream, close with uni_end_stream and contain no atoms
// outside that pair. uni_end_stream closes any object still open, an
// explicit man_end_object without an open object is an error.
func Parse(text string, table *atoms.Table) (*Tree, error) {
	p := parser{table: table, text: text}
	return p.run()
}

type parser struct {
	table *atoms.Table
	text  string

	tree   Tree
	frames []frame
	opened bool // uni_start_stream seen
	closed bool // uni_end_stream seen
}

func (p *parser) run() (*Tree, error) {
	lines := strings.Split(strings.ReplaceAll(p.text, "\r\n", "\n"), "\n")
	for i, line := range lines {
		no := i + 1

		trimmed := strings.TrimSpace(line)
		if len(trimmed) == 0 || trimmed[0] == '<' {
			continue
		}

		indent, err := countIndent(line, no)
		if err != nil {
			return nil, err
		}
		mnemonic, rawArgs, _ := strings.Cut(trimmed, " ")
		def, ok := p.table.Lookup(mnemonic)
		if !ok {
			return nil, &LookupError{Line: no, Mnemonic: mnemonic}
		}

		if err := p.accept(def, strings.TrimSpace(rawArgs), indent, no); err != nil {
			return nil, err
		}
	}

	if !p.opened {
		return nil, &StructuralError{Reason: "no atoms, stream never started"}
	}
	if !p.closed {
		return nil, &StructuralError{Line: len(lines), Reason: "stream is not closed with " + mnemEndStream}
	}
	return &p.tree, nil
}

func (p *parser) accept(def *atoms.AtomDefinition, rawArgs string, indent, line int) error {
	if p.closed {
		return &StructuralError{Line: line, Reason: "atom after end of stream"}
	}

	switch def.Mnemonic {
	case mnemEndStream:
		if !p.opened {
			return &StructuralError{Line: line, Reason: mnemEndStream + " without open stream"}
		}
		// implicitly closes objects still open
		p.frames = p.frames[:0]
		p.attach(def, rawArgs, line)
		p.closed = true
		return nil

	case mnemEndObject:
		at := -1
		for i := len(p.frames) - 1; i >= 0; i-- {
			if p.frames[i].kind == scopeObject {
				at = i
				break
			}
		}
		if at < 0 {
			return &StructuralError{Line: line, Reason: mnemEndObject + " without open object"}
		}
		p.frames = p.frames[:at]
		p.attach(def, rawArgs, line)
		return nil
	}

	if !p.opened {
		if def.Mnemonic != mnemStartStream {
			return &StructuralError{Line: line, Reason: "atom before " + mnemStartStream}
		}
	} else if def.Mnemonic == mnemStartStream {
		return &StructuralError{Line: line, Reason: "stream is already open"}
	}

	p.pop(indent)
	node := p.attach(def, rawArgs, line)

	kind := scopeNone
	switch def.Mnemonic {
	case mnemStartStream:
		kind = scopeStream
		p.opened = true
	case mnemStartObject:
		kind = scopeObject
	}
	p.frames = append(p.frames, frame{indent: indent, node: node, kind: kind})
	return nil
}

// pop unwinds the stack down to the frame the new line nests under. A plain
// guess would pop on equal indent, but scope openers keep adopting atoms
// written at their own indent until their close marker arrives.
func (p *parser) pop(indent int) {
	for len(p.frames) > 0 {
		top := p.frames[len(p.frames)-1]
		if top.indent < indent || (top.indent == indent && top.kind != scopeNone) {
			return
		}
		p.frames = p.frames[:len(p.frames)-1]
	}
}

func (p *parser) attach(def *atoms.AtomDefinition, rawArgs string, line int) *Node {
	node := &Node{Def: def, RawArgs: rawArgs, Depth: len(p.frames), Line: line}
	if len(p.frames) == 0 {
		p.tree.Nodes = append(p.tree.Nodes, node)
		return node
	}
	parent := p.frames[len(p.frames)-1].node
	parent.Children = append(parent.Children, node)
	return node
}

func countIndent(line string, no int) (int, error) {
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case ' ':
		case '\t':
			return 0, &ParseError{Line: no, Text: line, Reason: "tab in indentation, use spaces"}
		default:
			return i, nil
		}
	}
	return len(line), nil
}

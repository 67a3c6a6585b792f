package fdo

import (
	"strings"
	"sync"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"

	"fdoc/fdo/atoms"
)

// splitter finds sentence boundaries in run text, built once from the
// embedded English training data. Stream text is Latin-1 and the original
// sources are English, one model is enough.
var splitter = sync.OnceValue(func() *sentences.DefaultSentenceTokenizer {
	tok, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil
	}
	return tok
})

// SplitOversized rewrites atoms whose single text or opaque argument does
// not fit one wire run into several consecutive atoms of the same kind.
// The original sources carried man_append_data text up to maxText characters
// per atom and idb_append_data hex up to 2*maxOpaque digits per atom, the
// receiver concatenates adjacent runs. Only atoms with exactly one string or
// one opaque argument and no children are touched. Limits above the wire cap
// are clamped to it.
func SplitOversized(tree *Tree, maxText, maxOpaque int) error {
	if maxText <= 0 || maxText > maxRunBytes {
		maxText = maxRunBytes
	}
	if maxOpaque <= 0 || maxOpaque > maxRunBytes {
		maxOpaque = maxRunBytes
	}
	var err error
	tree.Nodes, err = splitNodes(tree.Nodes, maxText, maxOpaque)
	return err
}

func splitNodes(nodes []*Node, maxText, maxOpaque int) ([]*Node, error) {
	out := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		var err error
		if n.Children, err = splitNodes(n.Children, maxText, maxOpaque); err != nil {
			return nil, err
		}
		parts, err := splitNode(n, maxText, maxOpaque)
		if err != nil {
			return nil, err
		}
		out = append(out, parts...)
	}
	return out, nil
}

func splitNode(n *Node, maxText, maxOpaque int) ([]*Node, error) {
	if len(n.Children) > 0 || len(n.Def.Args) != 1 {
		return []*Node{n}, nil
	}

	switch n.Def.Args[0] {
	case atoms.ArgString:
		tokens, err := tokenizeArgs(n.RawArgs, 1)
		if err != nil {
			return nil, &ArgumentFormatError{Mnemonic: n.Def.Mnemonic, Line: n.Line, Literal: n.RawArgs, Reason: err.Error()}
		}
		token := tokens[0]
		if len(token) < 2 || token[0] != '"' || token[len(token)-1] != '"' {
			return []*Node{n}, nil
		}
		text := token[1 : len(token)-1]
		if textRunLen(text) <= maxText {
			return []*Node{n}, nil
		}
		return replaceRuns(n, splitText(text, maxText), func(s string) string {
			return `<"` + s + `">`
		}), nil

	case atoms.ArgOpaque:
		hex := strings.TrimSpace(stripGroup(n.RawArgs))
		if len(hex) <= 2*maxOpaque {
			return []*Node{n}, nil
		}
		if len(hex)%2 != 0 {
			return nil, &ArgumentFormatError{Mnemonic: n.Def.Mnemonic, Line: n.Line, Literal: n.RawArgs, Reason: "odd number of hex digits"}
		}
		var runs []string
		for len(hex) > 2*maxOpaque {
			runs = append(runs, hex[:2*maxOpaque])
			hex = hex[2*maxOpaque:]
		}
		runs = append(runs, hex)
		return replaceRuns(n, runs, func(s string) string {
			return "<" + s + ">"
		}), nil
	}
	return []*Node{n}, nil
}

func replaceRuns(n *Node, runs []string, render func(string) string) []*Node {
	out := make([]*Node, len(runs))
	for i, r := range runs {
		out[i] = &Node{Def: n.Def, RawArgs: render(r), Depth: n.Depth, Line: n.Line}
	}
	return out
}

// textRunLen counts source characters net of escape backslashes, the length
// that matters for the wire run.
func textRunLen(text string) int {
	return len(strings.ReplaceAll(text, `\"`, `"`))
}

// splitText cuts quoted text into runs of at most max characters, preferring
// a cut at a sentence boundary, then after a space, then a hard cut. A cut
// never lands between a backslash and its escaped quote.
func splitText(text string, max int) []string {
	var runs []string
	for textRunLen(text) > max {
		cut := runEnd(text, max)
		if at := lastBoundary(text[:cut]); at > 0 {
			cut = at
		}
		runs = append(runs, text[:cut])
		text = text[cut:]
	}
	return append(runs, text)
}

// runEnd finds the byte offset covering max net characters.
func runEnd(text string, max int) int {
	n := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\\' && i+1 < len(text) && text[i+1] == '"' {
			i++
		}
		n++
		if n == max {
			return i + 1
		}
	}
	return len(text)
}

// lastBoundary returns the byte offset just past the last sentence boundary
// in s, falling back to the last word break, 0 when there is neither. The
// tokenizer attaches boundary whitespace to the following sentence, here it
// is folded back into the earlier run so the receiver side concatenation
// reads naturally.
func lastBoundary(s string) int {
	if tok := splitter(); tok != nil {
		if parts := tok.Tokenize(s); len(parts) > 1 {
			cut := len(s) - len(parts[len(parts)-1].Text)
			for cut < len(s) && s[cut] == ' ' {
				cut++
			}
			if cut > 0 && cut < len(s) {
				if s[cut] == '"' && s[cut-1] == '\\' {
					cut--
				}
				if cut > 0 {
					return cut
				}
			}
		}
	}
	if at := strings.LastIndexByte(s, ' '); at > 0 {
		return at + 1
	}
	return 0
}

// stripGroup removes one outer <...> wrapper when present.
func stripGroup(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "<") && strings.HasSuffix(raw, ">") && len(raw) >= 2 {
		return raw[1 : len(raw)-1]
	}
	return raw
}

package fdo

import (
	"fdoc/utils/debug"
)

// Decompile renders a tree back into source text, two spaces per nesting
// level. Parsing the result yields a tree Equal to the input.
func Decompile(tree *Tree) string {
	tw := debug.NewTreeWriter()
	for _, n := range tree.Nodes {
		writeNode(tw, n)
	}
	return tw.String()
}

func writeNode(tw *debug.TreeWriter, n *Node) {
	if len(n.RawArgs) == 0 {
		tw.Line(n.Depth, "%s", n.Def.Mnemonic)
	} else {
		tw.Line(n.Depth, "%s %s", n.Def.Mnemonic, n.RawArgs)
	}
	for _, c := range n.Children {
		writeNode(tw, c)
	}
}

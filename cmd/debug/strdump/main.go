// strdump reads compiled FDO atom streams, recognizes the layout from the
// two byte header and prints the decompiled source text. With -tree it
// prints an annotated atom listing instead: wire codes, nesting and raw
// argument text, which is easier to diff against encoder changes than
// binary.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fdoc/fdo"
	"fdoc/fdo/atoms"
	"fdoc/utils/debug"
)

func main() {
	tree := flag.Bool("tree", false, "print annotated atom listing instead of source text")
	extensions := flag.String("atoms", "", "load additional atom definitions from YAML `file`")
	out := flag.String("o", "", "write output to `file` instead of stdout")
	overwrite := flag.Bool("overwrite", false, "overwrite existing output")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: strdump [-tree] [-atoms file] [-o file] [-overwrite] <file.bin|file.dbg.bin>\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	path := flag.Arg(0)

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read %s: %v\n", path, err)
		os.Exit(1)
	}

	table := atoms.Builtin()
	if len(*extensions) > 0 {
		if table, err = atoms.Load(*extensions); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
	}

	parsed, variant, err := fdo.NewDecoder(table).Decode(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "decode %s: %v\n", path, err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "%s: %s stream, %d atoms, %d bytes\n", filepath.Base(path), variant, parsed.Count(), len(data))

	var text string
	if *tree {
		text = listing(parsed)
	} else {
		text = fdo.Decompile(parsed)
	}

	if len(*out) == 0 {
		fmt.Print(text)
		return
	}
	if _, err := os.Stat(*out); err == nil && !*overwrite {
		fmt.Fprintf(os.Stderr, "output file already exists: %s (use -overwrite)\n", *out)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, []byte(text), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", *out, err)
		os.Exit(1)
	}
}

// argColumn is how much argument text still fits the atom line, longer
// values move to a quoted block of their own.
const argColumn = 60

func listing(tree *fdo.Tree) string {
	tw := debug.NewTreeWriter()
	_ = tree.Walk(func(n *fdo.Node) error {
		sig := make([]string, len(n.Def.Args))
		for i, a := range n.Def.Args {
			sig[i] = a.String()
		}
		if len(n.RawArgs) > argColumn {
			tw.Line(n.Depth, "[%04x] %s (%s)", n.Def.WireCode(), n.Def.Mnemonic, strings.Join(sig, ", "))
			tw.TextBlock(n.Depth+1, "args", n.RawArgs)
			return nil
		}
		args := n.RawArgs
		if len(args) > 0 {
			args = " " + args
		}
		tw.Line(n.Depth, "[%04x] %s%s (%s)", n.Def.WireCode(), n.Def.Mnemonic, args, strings.Join(sig, ", "))
		return nil
	})
	return tw.String()
}

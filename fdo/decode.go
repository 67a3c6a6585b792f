package fdo

import (
	"encoding/binary"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"fdoc/config"
	"fdoc/fdo/atoms"
)

// Decoder turns compiled binary streams back into atom trees.
type Decoder struct {
	table   *atoms.Table
	compact CompactStrategy
}

// NewDecoder creates a decoder over the given symbol table. The compact
// strategy must match the one the stream was produced with, see NewEncoder.
func NewDecoder(table *atoms.Table, opts ...DecoderOption) *Decoder {
	d := &Decoder{table: table, compact: HouseStrategy()}
	for _, o := range opts {
		o(d)
	}
	return d
}

type DecoderOption func(*Decoder)

// DecodeWithCompactStrategy replaces the production layout implementation.
func DecodeWithCompactStrategy(s CompactStrategy) DecoderOption {
	return func(d *Decoder) { d.compact = s }
}

// Decode recognizes the stream variant by its header and rebuilds the atom
// tree. Decoded nodes carry canonical argument text and no source lines.
func (d *Decoder) Decode(data []byte) (*Tree, config.Variant, error) {
	v, ok := DetectVariant(data)
	if !ok {
		return nil, v, fmt.Errorf("not a compiled atom stream, no known header")
	}

	var (
		tree *Tree
		err  error
	)
	switch v {
	case config.VariantDebug:
		tree, err = d.decodeVerboseBody(data[2:])
	case config.VariantProduction:
		tree, err = d.compact.DecodeBody(data[2:], d.table)
	}
	if err != nil {
		return nil, v, fmt.Errorf("malformed %s stream: %w", v, err)
	}
	return tree, v, nil
}

func (d *Decoder) decodeVerboseBody(data []byte) (*Tree, error) {
	nodes, err := decodeVerboseNodes(data, d.table, 0)
	if err != nil {
		return nil, err
	}
	return &Tree{Nodes: nodes}, nil
}

func decodeVerboseNodes(data []byte, table *atoms.Table, depth int) ([]*Node, error) {
	var nodes []*Node
	for len(data) > 0 {
		if len(data) < 4 {
			return nil, fmt.Errorf("truncated verbose frame")
		}
		code := binary.BigEndian.Uint16(data[0:2])
		size := int(binary.BigEndian.Uint16(data[2:4]))
		if len(data) < 4+size {
			return nil, fmt.Errorf("truncated verbose frame")
		}
		def, ok := table.LookupCode(code)
		if !ok {
			return nil, fmt.Errorf("unknown atom code %#04x", code)
		}

		node, err := decodePayload(def, data[4:4+size], table, verboseRules, verboseRules, depth)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
		data = data[4+size:]
	}
	return nodes, nil
}

// decodePayload consumes the declared arguments from the payload and treats
// whatever remains as nested atom frames. Argument and child layout rules
// differ for compact frames carrying fixed width values.
func decodePayload(def *atoms.AtomDefinition, payload []byte, table *atoms.Table, argRules, childRules VariantRules, depth int) (*Node, error) {
	tokens, rest, err := decodeArgs(def, payload, table, argRules)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", def.Mnemonic, err)
	}

	node := &Node{Def: def, RawArgs: renderArgs(tokens), Depth: depth}
	if len(rest) > 0 {
		var children []*Node
		if childRules.IntWidth > 0 {
			children, err = decodeVerboseNodes(rest, table, depth+1)
		} else {
			children, err = decodeCompactNodes(rest, table, childRules, depth+1)
		}
		if err != nil {
			return nil, err
		}
		node.Children = children
	}
	return node, nil
}

// decodeArgs reads declared argument values and renders them back as
// canonical source literals.
func decodeArgs(def *atoms.AtomDefinition, data []byte, table *atoms.Table, rules VariantRules) ([]string, []byte, error) {
	var tokens []string
	for _, t := range def.Args {
		var (
			token string
			err   error
		)
		token, data, err = decodeArg(t, data, table, rules)
		if err != nil {
			return nil, nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, data, nil
}

func decodeArg(t atoms.ArgType, data []byte, table *atoms.Table, rules VariantRules) (string, []byte, error) {
	short := fmt.Errorf("argument bytes truncated")
	switch t {
	case atoms.ArgHexByte:
		if len(data) < 1 {
			return "", nil, short
		}
		return fmt.Sprintf("%02xx", data[0]), data[1:], nil

	case atoms.ArgInteger:
		w := rules.IntWidth
		if w == 0 {
			if len(data) < 1 {
				return "", nil, short
			}
			w = int(data[0])
			if w != 1 && w != 2 && w != 4 {
				return "", nil, fmt.Errorf("bad integer width %d", w)
			}
			data = data[1:]
		}
		if len(data) < w {
			return "", nil, short
		}
		var v int64
		switch w {
		case 1:
			v = int64(int8(data[0]))
		case 2:
			v = int64(int16(binary.BigEndian.Uint16(data)))
		default:
			v = int64(int32(binary.BigEndian.Uint32(data)))
		}
		return fmt.Sprintf("%d", v), data[w:], nil

	case atoms.ArgString:
		if len(data) < 1 {
			return "", nil, short
		}
		if rules.Intern != nil && data[0] == 0xff {
			if len(data) < 2 {
				return "", nil, short
			}
			text, ok := rules.Intern.at(int(data[1]))
			if !ok {
				return "", nil, fmt.Errorf("bad intern back-reference %d", data[1])
			}
			return quoteString(text), data[2:], nil
		}
		size := int(data[0])
		if len(data) < 1+size {
			return "", nil, short
		}
		raw, err := charmap.ISO8859_1.NewDecoder().Bytes(data[1 : 1+size])
		if err != nil {
			return "", nil, fmt.Errorf("bad Latin-1 text: %w", err)
		}
		text := string(raw)
		if rules.Intern != nil {
			rules.Intern.put(text)
		}
		return quoteString(text), data[1+size:], nil

	case atoms.ArgGID:
		if rules.PairWidth > 0 {
			if len(data) < 2*rules.PairWidth {
				return "", nil, short
			}
			gid := binary.BigEndian.Uint16(data[0:2])
			rid := binary.BigEndian.Uint16(data[2:4])
			return fmt.Sprintf("%d-%d", gid, rid), data[4:], nil
		}
		if len(data) < 1 {
			return "", nil, short
		}
		wg, wr := int(data[0]>>4), int(data[0]&0x0f)
		if wg < 1 || wg > 2 || wr < 1 || wr > 2 {
			return "", nil, fmt.Errorf("bad gid width prefix %#02x", data[0])
		}
		data = data[1:]
		if len(data) < wg+wr {
			return "", nil, short
		}
		gid := readUint(data[:wg])
		rid := readUint(data[wg : wg+wr])
		return fmt.Sprintf("%d-%d", gid, rid), data[wg+wr:], nil

	case atoms.ArgEnum:
		if len(data) < 1 {
			return "", nil, short
		}
		name, ok := table.EnumName(data[0])
		if !ok {
			return "", nil, fmt.Errorf("unknown enum code %#02x", data[0])
		}
		return name, data[1:], nil

	case atoms.ArgOpaque:
		if len(data) < 1 {
			return "", nil, short
		}
		size := int(data[0])
		if len(data) < 1+size {
			return "", nil, short
		}
		return strings.ToUpper(fmt.Sprintf("%x", data[1:1+size])), data[1+size:], nil

	default:
		// this should never happen
		panic("unsupported argument type")
	}
}

func readUint(b []byte) uint16 {
	var v uint16
	for _, c := range b {
		v = v<<8 | uint16(c)
	}
	return v
}

func quoteString(text string) string {
	return `"` + strings.ReplaceAll(text, `"`, `\"`) + `"`
}

func renderArgs(tokens []string) string {
	if len(tokens) == 0 {
		return ""
	}
	return "<" + strings.Join(tokens, ", ") + ">"
}

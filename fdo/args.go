package fdo

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"golang.org/x/text/encoding/charmap"

	"fdoc/fdo/atoms"
)

// Arguments of variable length are framed with a single length byte on the
// wire, which limits every text or opaque run to maxRunBytes. Oversized
// source arguments are expected to be split before parsing (see
// SplitOversized). The 0xff length value is reserved for intern
// back-references in the compact layout.
const maxRunBytes = 0xfe

// VariantRules describes how numeric argument values are laid out by the
// active stream variant.
type VariantRules struct {
	// IntWidth is a fixed integer width in bytes, 0 selects the minimal
	// width preceded by a width byte.
	IntWidth int
	// PairWidth is a fixed width of each gid pair half, 0 selects minimal
	// widths packed into a single prefix byte.
	PairWidth int
	// Intern, when set, replaces repeated string literals with two byte
	// back-references into the table.
	Intern *internTable
}

type internTable struct {
	index map[string]int
	vals  []string
}

func newInternTable() *internTable {
	return &internTable{index: make(map[string]int)}
}

func (it *internTable) lookup(s string) (int, bool) {
	i, ok := it.index[s]
	return i, ok
}

func (it *internTable) put(s string) {
	if len(it.vals) > maxRunBytes {
		// table is full, stop collecting
		return
	}
	if _, ok := it.index[s]; !ok {
		it.index[s] = len(it.vals)
		it.vals = append(it.vals, s)
	}
}

// mark returns the current table size, truncate drops every literal
// collected after the matching mark.
func (it *internTable) mark() int {
	return len(it.vals)
}

func (it *internTable) truncate(mark int) {
	for _, s := range it.vals[mark:] {
		delete(it.index, s)
	}
	it.vals = it.vals[:mark]
}

func (it *internTable) at(i int) (string, bool) {
	if i < 0 || i >= len(it.vals) {
		return "", false
	}
	return it.vals[i], true
}

// tokenizeArgs splits raw argument text into one token per declared slot. An
// optional outer <...> group is stripped first, tokens are separated by top
// level commas, quoting is honored.
func tokenizeArgs(raw string, want int) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "<") && strings.HasSuffix(raw, ">") && len(raw) >= 2 {
		raw = raw[1 : len(raw)-1]
	}
	raw = strings.TrimSpace(raw)
	if len(raw) == 0 {
		if want == 0 {
			return nil, nil
		}
		return nil, fmt.Errorf("expected %d argument(s), got none", want)
	}

	var (
		tokens []string
		in     = parse.NewInputString(raw)
	)
	for {
		// skip leading spaces
		for in.Peek(0) == ' ' || in.Peek(0) == '\t' {
			in.Move(1)
		}
		in.Shift()

		if in.Peek(0) == '"' {
			in.Move(1)
			for {
				c := in.Peek(0)
				if c == 0 && in.Err() != nil {
					return nil, fmt.Errorf("unterminated string literal")
				}
				if c == '\\' && in.Peek(1) == '"' {
					in.Move(2)
					continue
				}
				in.Move(1)
				if c == '"' {
					break
				}
			}
		} else {
			for {
				c := in.Peek(0)
				if c == ',' || (c == 0 && in.Err() != nil) {
					break
				}
				in.Move(1)
			}
		}
		tokens = append(tokens, strings.TrimSpace(string(in.Shift())))

		// a closed quote may be separated from its comma by spaces
		for in.Peek(0) == ' ' || in.Peek(0) == '\t' {
			in.Move(1)
		}
		in.Shift()
		if in.Peek(0) == ',' {
			in.Move(1)
			in.Shift()
			continue
		}
		break
	}

	if len(tokens) != want {
		return nil, fmt.Errorf("expected %d argument(s), got %d", want, len(tokens))
	}
	return tokens, nil
}

// encodeArgs converts the raw argument text of a node into wire bytes
// according to the declared signature and the variant rules.
func encodeArgs(n *Node, table *atoms.Table, rules VariantRules) ([]byte, error) {
	tokens, err := tokenizeArgs(n.RawArgs, len(n.Def.Args))
	if err != nil {
		return nil, &ArgumentFormatError{Mnemonic: n.Def.Mnemonic, Line: n.Line, Literal: n.RawArgs, Reason: err.Error()}
	}

	var out []byte
	for i, t := range n.Def.Args {
		b, err := encodeArg(tokens[i], t, table, rules)
		if err != nil {
			return nil, &ArgumentFormatError{Mnemonic: n.Def.Mnemonic, Line: n.Line, Literal: tokens[i], Reason: err.Error()}
		}
		out = append(out, b...)
	}
	return out, nil
}

func encodeArg(token string, t atoms.ArgType, table *atoms.Table, rules VariantRules) ([]byte, error) {
	switch t {
	case atoms.ArgHexByte:
		return encodeHexByte(token)
	case atoms.ArgInteger:
		return encodeInteger(token, rules)
	case atoms.ArgString:
		return encodeString(token, rules)
	case atoms.ArgGID:
		return encodeGID(token, rules)
	case atoms.ArgEnum:
		code, ok := table.Enum(token)
		if !ok {
			return nil, fmt.Errorf("not a known enum value")
		}
		return []byte{code}, nil
	case atoms.ArgOpaque:
		return encodeOpaque(token)
	default:
		// this should never happen
		panic("unsupported argument type")
	}
}

func encodeHexByte(token string) ([]byte, error) {
	if len(token) != 3 || (token[2] != 'x' && token[2] != 'X') {
		return nil, fmt.Errorf("hex byte literal must look like NNx")
	}
	v, err := strconv.ParseUint(token[:2], 16, 8)
	if err != nil {
		return nil, fmt.Errorf("hex byte literal must look like NNx")
	}
	return []byte{byte(v)}, nil
}

func encodeInteger(token string, rules VariantRules) ([]byte, error) {
	v, err := strconv.ParseInt(token, 10, 64)
	if err != nil || v > math.MaxInt32 || v < math.MinInt32 {
		return nil, fmt.Errorf("not a 32-bit integer")
	}
	if rules.IntWidth > 0 {
		out := make([]byte, rules.IntWidth)
		binary.BigEndian.PutUint32(out, uint32(int32(v)))
		return out, nil
	}
	w := minIntWidth(int32(v))
	out := make([]byte, 1, 1+w)
	out[0] = byte(w)
	for i := w - 1; i >= 0; i-- {
		out = append(out, byte(v>>(8*i)))
	}
	return out, nil
}

// minIntWidth returns the smallest of 1, 2 or 4 bytes which can hold the
// value in two's complement.
func minIntWidth(v int32) int {
	switch {
	case v >= math.MinInt8 && v <= math.MaxInt8:
		return 1
	case v >= math.MinInt16 && v <= math.MaxInt16:
		return 2
	default:
		return 4
	}
}

func encodeString(token string, rules VariantRules) ([]byte, error) {
	if len(token) < 2 || token[0] != '"' || token[len(token)-1] != '"' {
		return nil, fmt.Errorf("string literal must be quoted")
	}
	text := strings.ReplaceAll(token[1:len(token)-1], `\"`, `"`)

	if rules.Intern != nil {
		if idx, ok := rules.Intern.lookup(text); ok {
			return []byte{0xff, byte(idx)}, nil
		}
	}

	raw, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("text is not representable in Latin-1")
	}
	if len(raw) > maxRunBytes {
		return nil, fmt.Errorf("text run exceeds %d bytes", maxRunBytes)
	}
	if rules.Intern != nil {
		rules.Intern.put(text)
	}
	return append([]byte{byte(len(raw))}, raw...), nil
}

func encodeGID(token string, rules VariantRules) ([]byte, error) {
	a, b, ok := strings.Cut(token, "-")
	if !ok {
		return nil, fmt.Errorf("gid literal must look like A-B")
	}
	gid, err := strconv.ParseUint(strings.TrimSpace(a), 10, 16)
	if err != nil {
		return nil, fmt.Errorf("gid half is not a 16-bit integer")
	}
	rid, err := strconv.ParseUint(strings.TrimSpace(b), 10, 16)
	if err != nil {
		return nil, fmt.Errorf("record half is not a 16-bit integer")
	}
	if rules.PairWidth > 0 {
		out := make([]byte, 0, 2*rules.PairWidth)
		out = binary.BigEndian.AppendUint16(out, uint16(gid))
		out = binary.BigEndian.AppendUint16(out, uint16(rid))
		return out, nil
	}
	wg, wr := minUintWidth(uint16(gid)), minUintWidth(uint16(rid))
	out := []byte{byte(wg<<4 | wr)}
	out = appendUint(out, uint16(gid), wg)
	out = appendUint(out, uint16(rid), wr)
	return out, nil
}

func minUintWidth(v uint16) int {
	if v <= math.MaxUint8 {
		return 1
	}
	return 2
}

func appendUint(out []byte, v uint16, w int) []byte {
	if w == 2 {
		out = append(out, byte(v>>8))
	}
	return append(out, byte(v))
}

func encodeOpaque(token string) ([]byte, error) {
	raw, err := hex.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("opaque literal must be hex digit pairs")
	}
	if len(raw) > maxRunBytes {
		return nil, fmt.Errorf("opaque run exceeds %d bytes", maxRunBytes)
	}
	return append([]byte{byte(len(raw))}, raw...), nil
}

package fdo

import (
	"bytes"
	"fmt"

	"fdoc/fdo/atoms"
)

// CompactStrategy implements the production stream layout. The byte level
// compaction rule of the original system was never documented and is known
// only through the golden corpus, so the layout is kept behind an interface:
// a strategy is correct exactly to the degree the differential validator says
// it is, and a corpus mismatch is a reason to refine the strategy rather
// than a reason to distrust the corpus.
type CompactStrategy interface {
	// Name identifies the strategy in reports and logs.
	Name() string
	// EncodeBody produces the production body (without the stream header).
	EncodeBody(tree *Tree, table *atoms.Table) ([]byte, error)
	// DecodeBody reverses EncodeBody.
	DecodeBody(data []byte, table *atoms.Table) (*Tree, error)
}

// Atom frame tags of the house strategy. Low five bits carry the protocol,
// high three bits select the frame form.
const (
	tagShort     = 0x20 // proto, code, 1-byte payload length, payload
	tagFixed     = 0x40 // like tagShort, argument values in fixed widths
	tagEmpty     = 0x60 // proto, code, no payload
	tagLong      = 0xa0 // proto, code, 2-byte payload length, payload
	tagFixedLong = 0xc0 // like tagLong, argument values in fixed widths
	tagMask      = 0xe0
	protoCap     = 0x1f
)

// houseStrategy is the current best understanding of the production layout:
// two byte frames for atoms without payload, single byte payload lengths
// where they fit, minimal integer widths and back-reference interning of
// repeated string literals. Width prefixes make a max-width value one byte
// wider than its fixed form, so when minimal widths do not pay off for an
// atom its arguments are emitted in fixed widths under a dedicated frame
// tag; a production stream is therefore never longer than its debug twin.
// Confirmed only as far as the golden corpus agrees with it.
type houseStrategy struct{}

// HouseStrategy returns the default production layout implementation.
func HouseStrategy() CompactStrategy {
	return houseStrategy{}
}

func (houseStrategy) Name() string { return "house" }

func (houseStrategy) EncodeBody(tree *Tree, table *atoms.Table) ([]byte, error) {
	var buf bytes.Buffer
	rules := VariantRules{Intern: newInternTable()}
	for _, n := range tree.Nodes {
		if err := encodeCompactNode(&buf, n, table, rules); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func encodeCompactNode(buf *bytes.Buffer, n *Node, table *atoms.Table, rules VariantRules) error {
	if n.Def.Proto > protoCap {
		return &EncodingError{Mnemonic: n.Def.Mnemonic, Reason: "protocol does not fit compact frame tag"}
	}

	mark := 0
	if rules.Intern != nil {
		mark = rules.Intern.mark()
	}
	payload, err := encodeArgs(n, table, rules)
	if err != nil {
		return err
	}

	// minimal widths cost a prefix byte each, fall back to fixed widths
	// when that turns out cheaper for this atom
	short, long := byte(tagShort), byte(tagLong)
	if len(n.Def.Args) > 0 {
		fixed, err := encodeArgs(n, table, verboseRules)
		if err != nil {
			return err
		}
		if len(fixed) < len(payload) {
			if rules.Intern != nil {
				rules.Intern.truncate(mark)
			}
			payload = fixed
			short, long = tagFixed, tagFixedLong
		}
	}

	var nested bytes.Buffer
	for _, c := range n.Children {
		if err := encodeCompactNode(&nested, c, table, rules); err != nil {
			return err
		}
	}
	payload = append(payload, nested.Bytes()...)

	switch {
	case len(payload) == 0:
		buf.WriteByte(tagEmpty | n.Def.Proto)
		buf.WriteByte(n.Def.Code)
	case len(payload) < 256:
		buf.WriteByte(short | n.Def.Proto)
		buf.WriteByte(n.Def.Code)
		buf.WriteByte(byte(len(payload)))
		buf.Write(payload)
	case len(payload) <= 0xffff:
		buf.WriteByte(long | n.Def.Proto)
		buf.WriteByte(n.Def.Code)
		buf.WriteByte(byte(len(payload) >> 8))
		buf.WriteByte(byte(len(payload)))
		buf.Write(payload)
	default:
		return &EncodingError{Mnemonic: n.Def.Mnemonic, Reason: "payload exceeds 65535 bytes"}
	}
	return nil
}

func (houseStrategy) DecodeBody(data []byte, table *atoms.Table) (*Tree, error) {
	rules := VariantRules{Intern: newInternTable()}
	nodes, err := decodeCompactNodes(data, table, rules, 0)
	if err != nil {
		return nil, err
	}
	return &Tree{Nodes: nodes}, nil
}

func decodeCompactNodes(data []byte, table *atoms.Table, rules VariantRules, depth int) ([]*Node, error) {
	var nodes []*Node
	for len(data) > 0 {
		if len(data) < 2 {
			return nil, fmt.Errorf("truncated compact frame")
		}
		var (
			tag   = data[0] & tagMask
			proto = data[0] & protoCap
			code  = data[1]
		)

		var payload []byte
		switch tag {
		case tagEmpty:
			data = data[2:]
		case tagShort, tagFixed:
			if len(data) < 3 || len(data) < 3+int(data[2]) {
				return nil, fmt.Errorf("truncated compact frame")
			}
			payload = data[3 : 3+int(data[2])]
			data = data[3+int(data[2]):]
		case tagLong, tagFixedLong:
			if len(data) < 4 {
				return nil, fmt.Errorf("truncated compact frame")
			}
			size := int(data[2])<<8 | int(data[3])
			if len(data) < 4+size {
				return nil, fmt.Errorf("truncated compact frame")
			}
			payload = data[4 : 4+size]
			data = data[4+size:]
		default:
			return nil, fmt.Errorf("unknown compact frame tag %#02x", data[0])
		}

		def, ok := table.LookupCode(uint16(proto)<<8 | uint16(code))
		if !ok {
			return nil, fmt.Errorf("unknown atom code %#04x", uint16(proto)<<8|uint16(code))
		}

		argRules := rules
		if tag == tagFixed || tag == tagFixedLong {
			argRules = verboseRules
		}
		node, err := decodePayload(def, payload, table, argRules, rules, depth)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

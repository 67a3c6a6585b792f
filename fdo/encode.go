package fdo

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"fdoc/config"
	"fdoc/fdo/atoms"
)

// Stream is a compiled atom stream. Header is always exactly two bytes and
// uniquely identifies the variant, see config.Variant.Header.
type Stream struct {
	Variant config.Variant
	Header  [2]byte
	Body    []byte
}

// Bytes returns the full wire form, header followed by body.
func (s *Stream) Bytes() []byte {
	out := make([]byte, 0, 2+len(s.Body))
	out = append(out, s.Header[0], s.Header[1])
	return append(out, s.Body...)
}

// Len returns the total stream length in bytes.
func (s *Stream) Len() int {
	return 2 + len(s.Body)
}

// DetectVariant recognizes the layout of compiled stream bytes by the two
// byte header.
func DetectVariant(data []byte) (config.Variant, bool) {
	if len(data) < 2 {
		return config.VariantDebug, false
	}
	for _, v := range []config.Variant{config.VariantDebug, config.VariantProduction} {
		h := v.Header()
		if data[0] == h[0] && data[1] == h[1] {
			return v, true
		}
	}
	return config.VariantDebug, false
}

// Encoder turns atom trees into binary streams. Encoding is a pure function
// of the tree and the requested variant, the encoder itself carries no state
// between calls and is safe for concurrent use.
type Encoder struct {
	table   *atoms.Table
	compact CompactStrategy
}

// NewEncoder creates an encoder over the given symbol table. By default the
// production layout is produced by the house compact strategy, see
// WithCompactStrategy.
func NewEncoder(table *atoms.Table, opts ...EncoderOption) *Encoder {
	e := &Encoder{table: table, compact: HouseStrategy()}
	for _, o := range opts {
		o(e)
	}
	return e
}

type EncoderOption func(*Encoder)

// WithCompactStrategy replaces the production layout implementation. The
// exact compaction rule of the original system is established empirically
// against the golden corpus, so it stays swappable.
func WithCompactStrategy(s CompactStrategy) EncoderOption {
	return func(e *Encoder) { e.compact = s }
}

// Encode compiles the tree into a binary stream of the requested variant.
func (e *Encoder) Encode(tree *Tree, v config.Variant) (*Stream, error) {
	if tree == nil || len(tree.Nodes) == 0 {
		return nil, &EncodingError{Reason: "empty tree"}
	}

	var (
		body []byte
		err  error
	)
	switch v {
	case config.VariantDebug:
		body, err = e.encodeVerboseBody(tree)
	case config.VariantProduction:
		body, err = e.compact.EncodeBody(tree, e.table)
	default:
		return nil, &EncodingError{Reason: fmt.Sprintf("unsupported variant %d", int(v))}
	}
	if err != nil {
		return nil, err
	}
	return &Stream{Variant: v, Header: v.Header(), Body: body}, nil
}

// verboseRules describes the fixed argument widths of the debug layout.
var verboseRules = VariantRules{IntWidth: 4, PairWidth: 2}

// encodeVerboseBody produces the debug layout: for every atom in document
// order a fixed width wire code, an explicit payload byte count and the
// payload itself. Nested atoms travel inside the payload of their parent,
// after its declared arguments.
func (e *Encoder) encodeVerboseBody(tree *Tree) ([]byte, error) {
	var buf bytes.Buffer
	for _, n := range tree.Nodes {
		if err := e.encodeVerboseNode(&buf, n); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func (e *Encoder) encodeVerboseNode(buf *bytes.Buffer, n *Node) error {
	payload, err := encodeArgs(n, e.table, verboseRules)
	if err != nil {
		return err
	}
	var nested bytes.Buffer
	for _, c := range n.Children {
		if err := e.encodeVerboseNode(&nested, c); err != nil {
			return err
		}
	}
	payload = append(payload, nested.Bytes()...)
	if len(payload) > 0xffff {
		return &EncodingError{Mnemonic: n.Def.Mnemonic, Reason: "payload exceeds 65535 bytes"}
	}

	var hdr [4]byte
	binary.BigEndian.PutUint16(hdr[0:2], n.Def.WireCode())
	binary.BigEndian.PutUint16(hdr[2:4], uint16(len(payload)))
	buf.Write(hdr[:])
	buf.Write(payload)
	return nil
}

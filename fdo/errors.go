package fdo

import "fmt"

// ParseError reports a malformed source line.
type ParseError struct {
	Line   int // 1-based
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d: %s (%q)", e.Line, e.Reason, e.Text)
}

// LookupError reports a mnemonic missing from the symbol table.
type LookupError struct {
	Line     int // 1-based
	Mnemonic string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("unknown atom %q at line %d", e.Mnemonic, e.Line)
}

// ArgumentFormatError reports an argument literal which does not match the
// declared type of its slot.
type ArgumentFormatError struct {
	Mnemonic string
	Line     int // 1-based
	Literal  string
	Reason   string
}

func (e *ArgumentFormatError) Error() string {
	return fmt.Sprintf("bad argument %q for %s at line %d: %s", e.Literal, e.Mnemonic, e.Line, e.Reason)
}

// StructuralError reports unbalanced stream or object nesting.
type StructuralError struct {
	Line   int // 1-based, 0 when the problem is end-of-input
	Reason string
}

func (e *StructuralError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("structural error at line %d: %s", e.Line, e.Reason)
	}
	return "structural error: " + e.Reason
}

// EncodingError reports an internal invariant violation during stream
// encoding, typically a value too large for a width-limited field.
type EncodingError struct {
	Mnemonic string
	Reason   string
}

func (e *EncodingError) Error() string {
	if len(e.Mnemonic) > 0 {
		return fmt.Sprintf("encoding error in %s: %s", e.Mnemonic, e.Reason)
	}
	return "encoding error: " + e.Reason
}

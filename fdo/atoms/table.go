// Package atoms holds the symbol table for the atom stream description
// language: mnemonic to wire code mapping together with the declared argument
// signature of every known atom.
//
// The table is built once at process start and never mutated afterwards, it
// is safe for concurrent reads from any number of compilations.
package atoms

// AtomDefinition is a single row of the symbol table.
type AtomDefinition struct {
	Mnemonic string
	Proto    byte
	Code     byte
	Args     []ArgType
}

// WireCode returns the 16-bit atom code as it travels on the wire.
func (d *AtomDefinition) WireCode() uint16 {
	return uint16(d.Proto)<<8 | uint16(d.Code)
}

// Table is an immutable mnemonic registry. Use Builtin or Load to obtain one.
type Table struct {
	byName map[string]*AtomDefinition
	byCode map[uint16]*AtomDefinition

	enums     map[string]byte
	enumNames map[byte]string
}

// Lookup resolves a mnemonic with an exact case-sensitive match.
func (t *Table) Lookup(mnemonic string) (*AtomDefinition, bool) {
	def, ok := t.byName[mnemonic]
	return def, ok
}

// LookupCode resolves a wire code back to its definition.
func (t *Table) LookupCode(code uint16) (*AtomDefinition, bool) {
	def, ok := t.byCode[code]
	return def, ok
}

// Enum resolves a symbolic enum literal to its wire byte.
func (t *Table) Enum(name string) (byte, bool) {
	code, ok := t.enums[name]
	return code, ok
}

// EnumName resolves a wire byte back to its symbolic enum literal.
func (t *Table) EnumName(code byte) (string, bool) {
	name, ok := t.enumNames[code]
	return name, ok
}

// Len reports the number of known atoms.
func (t *Table) Len() int {
	return len(t.byName)
}

func newTable() *Table {
	return &Table{
		byName:    make(map[string]*AtomDefinition),
		byCode:    make(map[uint16]*AtomDefinition),
		enums:     make(map[string]byte),
		enumNames: make(map[byte]string),
	}
}

func (t *Table) add(def AtomDefinition) {
	d := def
	t.byName[d.Mnemonic] = &d
	t.byCode[d.WireCode()] = &d
}

func (t *Table) addEnum(name string, code byte) {
	t.enums[name] = code
	t.enumNames[code] = name
}

func (t *Table) clone() *Table {
	n := newTable()
	for _, d := range t.byName {
		n.add(*d)
	}
	for name, code := range t.enums {
		n.addEnum(name, code)
	}
	return n
}

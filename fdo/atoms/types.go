package atoms

import "fmt"

// Specification of a single argument slot in an atom signature.
// ENUM(integer, hex_byte, string, gid, enum, opaque)
type ArgType int

const (
	// ArgInteger is a decimal integer, width depends on the stream variant.
	ArgInteger ArgType = iota
	// ArgHexByte is a single byte literal written as NNx.
	ArgHexByte
	// ArgString is a quoted string, stored as Latin-1 bytes.
	ArgString
	// ArgGID is a global-record identifier pair written as A-B.
	ArgGID
	// ArgEnum is a symbolic name resolved through the enum table.
	ArgEnum
	// ArgOpaque is a run of hex digit pairs stored verbatim.
	ArgOpaque
)

var argTypeNames = map[ArgType]string{
	ArgInteger: "integer",
	ArgHexByte: "hex_byte",
	ArgString:  "string",
	ArgGID:     "gid",
	ArgEnum:    "enum",
	ArgOpaque:  "opaque",
}

func (a ArgType) String() string {
	if s, ok := argTypeNames[a]; ok {
		return s
	}
	return fmt.Sprintf("ArgType(%d)", int(a))
}

// ParseArgType attempts to convert a string to an ArgType.
func ParseArgType(name string) (ArgType, error) {
	for t, s := range argTypeNames {
		if s == name {
			return t, nil
		}
	}
	return ArgType(0), fmt.Errorf("%s is not a valid ArgType", name)
}

// UnmarshalYAML implements yaml.Unmarshaler interface.
func (a *ArgType) UnmarshalYAML(unmarshal func(any) error) error {
	var name string
	if err := unmarshal(&name); err != nil {
		return err
	}
	parsed, err := ParseArgType(name)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler interface.
func (a ArgType) MarshalYAML() (any, error) {
	return a.String(), nil
}

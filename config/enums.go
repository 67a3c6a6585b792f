package config

import "fmt"

// Specification of the binary stream layout to produce.
// ENUM(debug, production)
type Variant int

const (
	// VariantDebug is the verbose layout, header 0x00 0x01.
	VariantDebug Variant = iota
	// VariantProduction is the compact layout, header 0x40 0x01.
	VariantProduction
)

var variantNames = map[Variant]string{
	VariantDebug:      "debug",
	VariantProduction: "production",
}

func (v Variant) String() string {
	if s, ok := variantNames[v]; ok {
		return s
	}
	return fmt.Sprintf("Variant(%d)", int(v))
}

// VariantNames returns a list of possible string values of Variant.
func VariantNames() []string {
	return []string{variantNames[VariantDebug], variantNames[VariantProduction]}
}

// ParseVariant attempts to convert a string to a Variant.
func ParseVariant(name string) (Variant, error) {
	for v, s := range variantNames {
		if s == name {
			return v, nil
		}
	}
	return Variant(0), fmt.Errorf("%s is not a valid Variant, try one of [debug, production]", name)
}

// Header returns the two byte stream prefix which uniquely identifies the
// variant on the wire.
func (v Variant) Header() [2]byte {
	switch v {
	case VariantDebug:
		return [2]byte{0x00, 0x01}
	case VariantProduction:
		return [2]byte{0x40, 0x01}
	default:
		// this should never happen
		panic("unsupported variant requested")
	}
}

// Ext returns default file extension for compiled streams of the variant.
func (v Variant) Ext() string {
	switch v {
	case VariantDebug:
		return ".dbg.bin"
	case VariantProduction:
		return ".bin"
	default:
		// this should never happen
		panic("unsupported variant requested")
	}
}

// MarshalYAML implements yaml.Marshaler interface.
func (v Variant) MarshalYAML() (any, error) {
	return v.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler interface.
func (v *Variant) UnmarshalYAML(unmarshal func(any) error) error {
	var name string
	if err := unmarshal(&name); err != nil {
		return err
	}
	parsed, err := ParseVariant(name)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

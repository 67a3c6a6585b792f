package atoms

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"
)

type (
	extensionRow struct {
		Mnemonic string    `yaml:"mnemonic"`
		Proto    byte      `yaml:"proto"`
		Code     byte      `yaml:"code"`
		Args     []ArgType `yaml:"args,omitempty"`
	}

	extensionFile struct {
		Atoms []extensionRow  `yaml:"atoms,omitempty"`
		Enums map[string]byte `yaml:"enums,omitempty"`
	}
)

// Load returns a new table with definitions from the YAML file at path merged
// over the builtin registry. The builtin table itself is never modified.
// Redefinition of a builtin mnemonic or wire code is rejected, extending the
// language must not silently change the meaning of existing streams.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read atom extensions: %w", err)
	}

	var ext extensionFile
	if err := yaml.Unmarshal(data, &ext); err != nil {
		return nil, fmt.Errorf("unable to parse atom extensions %q: %w", path, err)
	}

	t := Builtin().clone()
	for _, row := range ext.Atoms {
		if len(row.Mnemonic) == 0 {
			return nil, fmt.Errorf("atom extension without mnemonic in %q", path)
		}
		if _, exists := t.byName[row.Mnemonic]; exists {
			return nil, fmt.Errorf("atom extension %q redefines builtin mnemonic", row.Mnemonic)
		}
		def := AtomDefinition{Mnemonic: row.Mnemonic, Proto: row.Proto, Code: row.Code, Args: row.Args}
		if _, exists := t.byCode[def.WireCode()]; exists {
			return nil, fmt.Errorf("atom extension %q reuses wire code %#04x", row.Mnemonic, def.WireCode())
		}
		t.add(def)
	}
	for name, code := range ext.Enums {
		if _, exists := t.enums[name]; exists {
			return nil, fmt.Errorf("enum extension %q redefines builtin value", name)
		}
		t.addEnum(name, code)
	}
	return t, nil
}

// Package golden drives the stream encoder over a corpus of reference
// fixtures and reports byte-exact matches and divergences. The corpus is the
// only authority on the production layout, mismatches are data to refine the
// encoder with, not exceptions.
package golden

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/maruel/natural"

	"fdoc/config"
)

// Fixture is one corpus entry: source text with one reference binary per
// covered variant.
type Fixture struct {
	Name     string
	TextPath string
	// Bins maps a variant to the path of its reference binary.
	Bins map[config.Variant]string
}

// Discover scans dir for fixture pairs: <name>.txt with <name>.bin
// (production reference) and/or <name>.dbg.bin (debug reference). Source
// files without any reference binary are ignored, they cannot be validated.
// The result is ordered by natural name comparison so reports are stable.
func Discover(dir string) ([]Fixture, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("unable to read fixture corpus %q: %w", dir, err)
	}

	byName := make(map[string]*Fixture)
	fixture := func(name string) *Fixture {
		f, ok := byName[name]
		if !ok {
			f = &Fixture{Name: name, Bins: make(map[config.Variant]string)}
			byName[name] = f
		}
		return f
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		full := filepath.Join(dir, e.Name())
		switch {
		case strings.HasSuffix(e.Name(), ".txt"):
			fixture(strings.TrimSuffix(e.Name(), ".txt")).TextPath = full
		case strings.HasSuffix(e.Name(), config.VariantDebug.Ext()):
			fixture(strings.TrimSuffix(e.Name(), config.VariantDebug.Ext())).Bins[config.VariantDebug] = full
		case strings.HasSuffix(e.Name(), config.VariantProduction.Ext()):
			fixture(strings.TrimSuffix(e.Name(), config.VariantProduction.Ext())).Bins[config.VariantProduction] = full
		}
	}

	var out []Fixture
	for _, f := range byName {
		if len(f.TextPath) == 0 || len(f.Bins) == 0 {
			continue
		}
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return natural.Less(out[i].Name, out[j].Name) })
	return out, nil
}

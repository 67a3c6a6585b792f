package golden

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"fdoc/config"
	"fdoc/fdo"
	"fdoc/fdo/atoms"
)

// ctxWindow is how many bytes around the first divergence are captured for
// the report.
const ctxWindow = 8

// Comparison is the outcome of checking one fixture against one reference
// binary.
type Comparison struct {
	Variant config.Variant
	Match   bool
	WantLen int
	GotLen  int
	// Offset of the first diverging byte, -1 on exact match. Equal prefixes
	// of different length diverge at the end of the shorter stream.
	Offset int
	// WantCtx and GotCtx hold up to 2*ctxWindow reference and produced bytes
	// around Offset.
	WantCtx []byte
	GotCtx  []byte
	// Accuracy is the share of positions holding identical bytes, in percent
	// of the longer stream.
	Accuracy float64
}

// Result is the outcome of one fixture: either a compile failure or one
// comparison per covered variant.
type Result struct {
	Name string
	// Err is a parse or encoding failure of the fixture source. Mismatches
	// never surface here, they are data in Comparisons.
	Err         error
	Comparisons []Comparison
}

// Matched reports whether every covered variant matched byte for byte.
func (r *Result) Matched() bool {
	if r.Err != nil || len(r.Comparisons) == 0 {
		return false
	}
	for _, c := range r.Comparisons {
		if !c.Match {
			return false
		}
	}
	return true
}

// Report aggregates a validation run. Results keep the discovery order
// regardless of worker completion order.
type Report struct {
	Results []Result
	Total   int
	Matched int
	// Accuracy is the byte accuracy over all comparisons, in percent.
	Accuracy float64
}

// Validator compiles fixtures and compares the output against reference
// binaries over a bounded worker pool.
type Validator struct {
	table   *atoms.Table
	enc     *fdo.Encoder
	workers int
}

// NewValidator creates a validator over the given symbol table. Workers
// limits fixture parallelism, zero or less selects the number of cores.
func NewValidator(table *atoms.Table, workers int, opts ...fdo.EncoderOption) *Validator {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Validator{table: table, enc: fdo.NewEncoder(table, opts...), workers: workers}
}

// Run validates every fixture in the corpus directory. Fixture I/O failures
// abort the run, compile failures and mismatches do not. On cancellation the
// report covers everything finished so far.
func (v *Validator) Run(ctx context.Context, fixtures []Fixture) (*Report, error) {
	results := make([]Result, len(fixtures))

	var eg errgroup.Group
	eg.SetLimit(v.workers)
	for i := range fixtures {
		// cancellation takes effect between fixtures, finished results stay
		// valid
		if err := ctx.Err(); err != nil {
			break
		}
		eg.Go(func() error {
			r, err := v.check(fixtures[i])
			results[i] = r
			return err
		})
	}
	err := eg.Wait()

	report := &Report{}
	for _, r := range results {
		if len(r.Name) == 0 {
			continue // never ran
		}
		report.Results = append(report.Results, r)
		report.Total++
		if r.Matched() {
			report.Matched++
		}
	}
	report.Accuracy = overallAccuracy(report.Results)

	if err != nil {
		return report, err
	}
	return report, ctx.Err()
}

func (v *Validator) check(f Fixture) (Result, error) {
	res := Result{Name: f.Name}

	text, err := os.ReadFile(f.TextPath)
	if err != nil {
		return res, multierr.Append(fmt.Errorf("fixture %q", f.Name), err)
	}

	tree, err := fdo.Parse(string(text), v.table)
	if err != nil {
		res.Err = err
		return res, nil
	}

	for _, variant := range []config.Variant{config.VariantDebug, config.VariantProduction} {
		path, ok := f.Bins[variant]
		if !ok {
			continue
		}
		want, err := os.ReadFile(path)
		if err != nil {
			return res, multierr.Append(fmt.Errorf("fixture %q", f.Name), err)
		}

		out, err := v.enc.Encode(tree, variant)
		if err != nil {
			res.Err = err
			return res, nil
		}
		res.Comparisons = append(res.Comparisons, compare(variant, want, out.Bytes()))
	}
	return res, nil
}

// compare diffs the produced stream against the reference. A length mismatch
// is always a failure even when the shorter stream is a prefix of the longer
// one.
func compare(variant config.Variant, want, got []byte) Comparison {
	c := Comparison{Variant: variant, WantLen: len(want), GotLen: len(got), Offset: -1}

	limit := min(len(want), len(got))
	same := 0
	for i := 0; i < limit; i++ {
		if want[i] == got[i] {
			same++
		} else if c.Offset < 0 {
			c.Offset = i
		}
	}
	if c.Offset < 0 && len(want) != len(got) {
		c.Offset = limit
	}

	longer := max(len(want), len(got))
	if longer == 0 {
		c.Accuracy = 100
	} else {
		c.Accuracy = float64(same) / float64(longer) * 100
	}

	if c.Offset < 0 {
		c.Match = true
		return c
	}
	c.WantCtx = window(want, c.Offset)
	c.GotCtx = window(got, c.Offset)
	return c
}

func window(data []byte, off int) []byte {
	lo := max(off-ctxWindow, 0)
	hi := min(off+ctxWindow, len(data))
	if lo >= hi {
		return nil
	}
	return data[lo:hi]
}

func overallAccuracy(results []Result) float64 {
	var sum float64
	var n int
	for _, r := range results {
		for _, c := range r.Comparisons {
			sum += c.Accuracy
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

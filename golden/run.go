package golden

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"fdoc/state"
)

// Run implements the validate command: compile every fixture in the corpus
// directory and compare against the stored reference binaries.
func Run(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("validate")

	dir := cmd.Args().Get(0)
	if len(dir) == 0 {
		return errors.New("no fixture corpus directory has been specified")
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	if cmd.Args().Len() > 1 {
		log.Warn("Malformed command line, too many arguments", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	fixtures, err := Discover(dir)
	if err != nil {
		return err
	}
	if len(fixtures) == 0 {
		log.Warn("Fixture corpus is empty, nothing to validate", zap.String("corpus", dir))
		return nil
	}

	workers := env.Cfg.Validator.Workers
	log.Info("Validation starting", zap.String("corpus", dir), zap.Int("fixtures", len(fixtures)), zap.Int("workers", workers))
	start := time.Now()

	report, err := NewValidator(env.Atoms, workers).Run(ctx, fixtures)
	logReport(log, report)
	storeDivergences(env, fixtures, report)
	if err != nil {
		return err
	}

	log.Info("Validation completed",
		zap.Int("fixtures", report.Total),
		zap.Int("matched", report.Matched),
		zap.Float64("accuracy", report.Accuracy),
		zap.Duration("elapsed", time.Since(start)))

	if report.Matched != report.Total {
		return fmt.Errorf("%d of %d fixture(s) diverge from the reference", report.Total-report.Matched, report.Total)
	}
	return nil
}

// storeDivergences puts sources and reference binaries of problematic
// fixtures into the debug report, along with a short summary of each
// divergence.
func storeDivergences(env *state.LocalEnv, fixtures []Fixture, report *Report) {
	if env.Rpt == nil {
		return
	}

	byName := make(map[string]Fixture, len(fixtures))
	for _, f := range fixtures {
		byName[f.Name] = f
	}

	for _, r := range report.Results {
		bad := r.Err != nil
		var summary bytes.Buffer
		if r.Err != nil {
			fmt.Fprintf(&summary, "compile error: %v\n", r.Err)
		}
		for _, c := range r.Comparisons {
			if c.Match {
				continue
			}
			bad = true
			fmt.Fprintf(&summary, "%s: want %d byte(s), got %d, first divergence at offset %d\nwant: % x\ngot:  % x\n",
				c.Variant, c.WantLen, c.GotLen, c.Offset, c.WantCtx, c.GotCtx)
		}
		if !bad {
			continue
		}

		f, ok := byName[r.Name]
		if !ok {
			continue
		}
		env.Rpt.StoreData(fmt.Sprintf("validate/%s.diverge.txt", r.Name), summary.Bytes())
		env.Rpt.Store(fmt.Sprintf("validate/%s", filepath.Base(f.TextPath)), f.TextPath)
		for _, bin := range f.Bins {
			env.Rpt.Store(fmt.Sprintf("validate/%s", filepath.Base(bin)), bin)
		}
	}
}

func logReport(log *zap.Logger, report *Report) {
	for _, r := range report.Results {
		if r.Err != nil {
			log.Error("Fixture does not compile", zap.String("fixture", r.Name), zap.Error(r.Err))
			continue
		}
		for _, c := range r.Comparisons {
			if c.Match {
				log.Debug("Fixture matches",
					zap.String("fixture", r.Name),
					zap.Stringer("variant", c.Variant),
					zap.Int("bytes", c.GotLen))
				continue
			}
			log.Warn("Fixture diverges",
				zap.String("fixture", r.Name),
				zap.Stringer("variant", c.Variant),
				zap.Int("want_len", c.WantLen),
				zap.Int("got_len", c.GotLen),
				zap.Int("offset", c.Offset),
				zap.String("want_ctx", fmt.Sprintf("% x", c.WantCtx)),
				zap.String("got_ctx", fmt.Sprintf("% x", c.GotCtx)),
				zap.Float64("accuracy", c.Accuracy))
		}
	}
}

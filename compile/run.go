// Package compile implements the compile and decompile commands: source text
// to binary atom stream and back.
package compile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"fdoc/config"
	"fdoc/fdo"
	"fdoc/state"
)

// Run implements the compile command.
func Run(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("compile")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	src, err := filepath.Abs(src)
	if err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	variant := env.Cfg.Compiler.Variant
	if v := cmd.String("variant"); len(v) > 0 {
		if variant, err = config.ParseVariant(v); err != nil {
			return err
		}
	}
	env.Overwrite = cmd.Bool("overwrite")

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		dst = strings.TrimSuffix(src, filepath.Ext(src)) + variant.Ext()
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if !env.Overwrite {
		if _, err := os.Stat(dst); err == nil {
			return fmt.Errorf("destination %q already exists, use --overwrite", dst)
		}
	}

	log.Info("Compilation starting", zap.String("source", src), zap.String("destination", dst), zap.Stringer("variant", variant))
	defer func(start time.Time) {
		log.Info("Compilation completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	text, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("unable to read source: %w", err)
	}
	if env.Rpt != nil {
		env.Rpt.StoreData(fmt.Sprintf("input/%s", filepath.Base(src)), text)
	}

	out, err := Compile(string(text), variant, env)
	if err != nil {
		return err
	}

	if err := os.WriteFile(dst, out.Bytes(), 0644); err != nil {
		return fmt.Errorf("unable to write stream: %w", err)
	}
	if env.Rpt != nil {
		env.Rpt.StoreData(fmt.Sprintf("output/%s", filepath.Base(dst)), out.Bytes())
	}
	log.Info("Stream written", zap.Int("bytes", out.Len()))
	return nil
}

// Compile runs the full source to stream pipeline with the environment's
// symbol table and compiler settings. No partial output is ever produced, an
// error from any stage leaves nothing behind.
func Compile(text string, variant config.Variant, env *state.LocalEnv) (*fdo.Stream, error) {
	tree, err := fdo.Parse(text, env.Atoms)
	if err != nil {
		return nil, err
	}
	if env.Cfg.Compiler.SplitOversized {
		if err := fdo.SplitOversized(tree, env.Cfg.Compiler.MaxTextRun, env.Cfg.Compiler.MaxOpaqueRun); err != nil {
			return nil, err
		}
	}
	return fdo.NewEncoder(env.Atoms).Encode(tree, variant)
}

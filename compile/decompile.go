package compile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"fdoc/fdo"
	"fdoc/state"
)

// RunDecompile implements the decompile command: binary atom stream back to
// source text. The variant is recognized from the stream header.
func RunDecompile(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("decompile")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input stream has been specified")
	}
	src, err := filepath.Abs(src)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("unable to read stream: %w", err)
	}

	tree, variant, err := fdo.NewDecoder(env.Atoms).Decode(data)
	if err != nil {
		return err
	}
	text := fdo.Decompile(tree)

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		_, err = os.Stdout.WriteString(text)
		return err
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if !cmd.Bool("overwrite") {
		if _, err := os.Stat(dst); err == nil {
			return fmt.Errorf("destination %q already exists, use --overwrite", dst)
		}
	}
	if err := os.WriteFile(dst, []byte(text), 0644); err != nil {
		return fmt.Errorf("unable to write source: %w", err)
	}

	log.Info("Stream decompiled",
		zap.String("source", src),
		zap.String("destination", dst),
		zap.Stringer("variant", variant),
		zap.Int("atoms", tree.Count()),
		zap.Int("lines", strings.Count(text, "\n")))
	return nil
}

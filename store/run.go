package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"fdoc/config"
	"fdoc/fdo"
	"fdoc/state"
)

// parseKey reads a global-record identifier pair written as A-B, the same
// form gid arguments take in stream source text.
func parseKey(key string) (uint16, uint16, error) {
	a, b, ok := strings.Cut(key, "-")
	if !ok {
		return 0, 0, fmt.Errorf("record key %q must look like GID-RID", key)
	}
	gid, err := strconv.ParseUint(strings.TrimSpace(a), 10, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("record key %q must look like GID-RID", key)
	}
	rid, err := strconv.ParseUint(strings.TrimSpace(b), 10, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("record key %q must look like GID-RID", key)
	}
	return uint16(gid), uint16(rid), nil
}

func openFromEnv(ctx context.Context) (*Store, *zap.Logger, error) {
	env := state.EnvFromContext(ctx)
	log := env.Log.Named("db")

	s, err := Open(env.Cfg.Store.Path)
	if err != nil {
		return nil, nil, err
	}
	return s, log, nil
}

// RunPut implements "db put": store a compiled stream file under a key. The
// variant tag is taken from the stream header.
func RunPut(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, path := cmd.Args().Get(0), cmd.Args().Get(1)
	if len(key) == 0 || len(path) == 0 {
		return errors.New("both record key and stream file must be specified")
	}
	gid, rid, err := parseKey(key)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("unable to read stream file: %w", err)
	}
	variant, ok := fdo.DetectVariant(data)
	if !ok {
		return fmt.Errorf("%q is not a compiled atom stream", path)
	}

	s, log, err := openFromEnv(ctx)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, s.Close()) }()

	if err := s.Put(Record{GID: gid, RID: rid, Variant: variant, Data: data}); err != nil {
		return err
	}
	log.Info("Stream stored", zap.String("key", key), zap.Stringer("variant", variant), zap.Int("bytes", len(data)))
	return nil
}

// RunGet implements "db get": write a stored stream to a file or stdout.
func RunGet(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	env := state.EnvFromContext(ctx)

	key := cmd.Args().Get(0)
	if len(key) == 0 {
		return errors.New("no record key has been specified")
	}
	gid, rid, err := parseKey(key)
	if err != nil {
		return err
	}
	variant := env.Cfg.Compiler.Variant
	if v := cmd.String("variant"); len(v) > 0 {
		if variant, err = config.ParseVariant(v); err != nil {
			return err
		}
	}

	s, log, err := openFromEnv(ctx)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, s.Close()) }()

	data, err := s.Get(gid, rid, variant)
	if err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(dst, data, 0644); err != nil {
		return fmt.Errorf("unable to write stream file: %w", err)
	}
	log.Info("Stream fetched", zap.String("key", key), zap.Stringer("variant", variant), zap.String("destination", dst), zap.Int("bytes", len(data)))
	return nil
}

// RunDelete implements "db del": drop all variants stored under a key.
func RunDelete(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := cmd.Args().Get(0)
	if len(key) == 0 {
		return errors.New("no record key has been specified")
	}
	gid, rid, err := parseKey(key)
	if err != nil {
		return err
	}

	s, log, err := openFromEnv(ctx)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, s.Close()) }()

	n, err := s.Delete(gid, rid)
	if err != nil {
		return err
	}
	if n == 0 {
		log.Warn("Nothing stored under key", zap.String("key", key))
		return nil
	}
	log.Info("Stream(s) deleted", zap.String("key", key), zap.Int("records", n))
	return nil
}

// RunList implements "db list": print every stored record.
func RunList(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	s, log, err := openFromEnv(ctx)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, s.Close()) }()

	infos, err := s.List()
	if err != nil {
		return err
	}
	for _, i := range infos {
		fmt.Fprintf(os.Stdout, "%5d-%-5d %-10s %d bytes\n", i.GID, i.RID, i.Variant, i.Size)
	}
	log.Debug("Container listed", zap.Int("records", len(infos)))
	return nil
}

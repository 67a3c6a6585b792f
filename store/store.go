// Package store is an indexed on-disk container for compiled atom streams,
// keyed by the global-record identifier pair and the stream variant. Streams
// are stored byte-exact, the container applies no transformation of its own.
package store

import (
	"errors"
	"fmt"
	"sync"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"fdoc/config"
	"fdoc/fdo"
)

// ErrNotFound is returned by Get for keys the container does not hold.
var ErrNotFound = errors.New("record not found")

const schema = `
CREATE TABLE IF NOT EXISTS streams (
	gid     INTEGER NOT NULL,
	rid     INTEGER NOT NULL,
	variant INTEGER NOT NULL,
	data    BLOB    NOT NULL,
	PRIMARY KEY (gid, rid, variant)
) WITHOUT ROWID;
`

// Record is one stored stream with its key.
type Record struct {
	GID     uint16
	RID     uint16
	Variant config.Variant
	Data    []byte
}

func (r *Record) Key() string {
	return fmt.Sprintf("%d-%d", r.GID, r.RID)
}

// Store wraps a single sqlite connection. A connection is not safe for
// concurrent use, the store serializes access internally.
type Store struct {
	mu   sync.Mutex
	conn *sqlite.Conn
}

// Open opens or creates the container at path. An empty path selects a
// transient in-memory container.
func Open(path string) (*Store, error) {
	flags := sqlite.OpenReadWrite | sqlite.OpenCreate
	if len(path) == 0 {
		path, flags = ":memory:", flags|sqlite.OpenMemory
	}
	conn, err := sqlite.OpenConn(path, flags)
	if err != nil {
		return nil, fmt.Errorf("unable to open stream container %q: %w", path, err)
	}
	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("unable to prepare stream container %q: %w", path, err)
	}
	return &Store{conn: conn}, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close()
}

// Put stores a stream, replacing any previous stream under the same key. The
// data must carry a recognizable variant header matching the record's
// variant tag.
func (s *Store) Put(r Record) error {
	v, ok := fdo.DetectVariant(r.Data)
	if !ok {
		return fmt.Errorf("record %s: data is not a compiled atom stream", r.Key())
	}
	if v != r.Variant {
		return fmt.Errorf("record %s: data is a %s stream, tagged %s", r.Key(), v, r.Variant)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return sqlitex.Execute(s.conn,
		`INSERT OR REPLACE INTO streams (gid, rid, variant, data) VALUES (?, ?, ?, ?);`,
		&sqlitex.ExecOptions{
			Args: []any{int64(r.GID), int64(r.RID), int64(r.Variant), r.Data},
		})
}

// Get fetches the stream stored under the key, or ErrNotFound.
func (s *Store) Get(gid, rid uint16, v config.Variant) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var data []byte
	err := sqlitex.Execute(s.conn,
		`SELECT data FROM streams WHERE gid = ? AND rid = ? AND variant = ?;`,
		&sqlitex.ExecOptions{
			Args: []any{int64(gid), int64(rid), int64(v)},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				data = make([]byte, stmt.ColumnLen(0))
				stmt.ColumnBytes(0, data)
				return nil
			},
		})
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("record %d-%d (%s): %w", gid, rid, v, ErrNotFound)
	}
	return data, nil
}

// Delete removes all variants stored under the identifier pair and reports
// how many records went away.
func (s *Store) Delete(gid, rid uint16) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := sqlitex.Execute(s.conn,
		`DELETE FROM streams WHERE gid = ? AND rid = ?;`,
		&sqlitex.ExecOptions{Args: []any{int64(gid), int64(rid)}})
	if err != nil {
		return 0, err
	}
	return s.conn.Changes(), nil
}

// Info describes a stored record without its data.
type Info struct {
	GID     uint16
	RID     uint16
	Variant config.Variant
	Size    int
}

// List returns every stored record, ordered by key.
func (s *Store) List() ([]Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Info
	err := sqlitex.Execute(s.conn,
		`SELECT gid, rid, variant, length(data) FROM streams ORDER BY gid, rid, variant;`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				out = append(out, Info{
					GID:     uint16(stmt.ColumnInt64(0)),
					RID:     uint16(stmt.ColumnInt64(1)),
					Variant: config.Variant(stmt.ColumnInt64(2)),
					Size:    int(stmt.ColumnInt64(3)),
				})
				return nil
			},
		})
	if err != nil {
		return nil, err
	}
	return out, nil
}

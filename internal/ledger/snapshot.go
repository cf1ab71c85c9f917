package ledger

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// snapshot is an isolated, read-only copy of the ledger database, valid for
// one check. The backing store is written concurrently by the host messaging
// application, so it is never opened in place; each check copies the file
// into a private temp dir and queries the copy.
type snapshot struct {
	dir string
	db  *sql.DB
}

// openSnapshot copies src into a fresh temp dir and opens the copy.
// The temp dir is removed on any failure path.
func openSnapshot(src string) (*snapshot, error) {
	dir, err := os.MkdirTemp("", "bluefall-ledger-")
	if err != nil {
		return nil, fmt.Errorf("snapshot dir: %w", err)
	}

	dst := filepath.Join(dir, "ledger_copy.db")
	if err := copyFile(src, dst); err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("snapshot copy: %w", err)
	}

	db, err := sql.Open("sqlite3", "file:"+dst+"?mode=ro")
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("snapshot open: %w", err)
	}

	return &snapshot{dir: dir, db: db}, nil
}

// Close releases the database handle and deletes the copy. Safe to call on
// every exit path; the copy must never survive into the next poll iteration.
func (s *snapshot) Close() error {
	var first error
	if s.db != nil {
		first = s.db.Close()
	}
	if err := os.RemoveAll(s.dir); err != nil && first == nil {
		first = err
	}
	return first
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

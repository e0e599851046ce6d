package store

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"
)

// fixedClock is a minimal clock.Clock stand-in for deterministic Prune
// tests, since we can't rely on any particular mocking helper from
// fwojciec/clock existing in every version.
type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Create(filepath.Join(dir, "catalog.db"), 30*24*time.Hour, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// withTx runs fn inside a transaction and fails the test on any error,
// for tests exercising the row-level helpers that take an execer.
func withTx(t *testing.T, s *Store, fn func(tx *sql.Tx) error) {
	t.Helper()
	if err := s.WithTx(fn); err != nil {
		t.Fatalf("WithTx: %v", err)
	}
}

func TestCreateSeedsRoots(t *testing.T) {
	s := newTestStore(t)

	v, err := s.Version()
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if v != schemaVersion {
		t.Fatalf("Version() = %d, want %d", v, schemaVersion)
	}

	withTx(t, s, func(tx *sql.Tx) error {
		row, ok, err := FindFolder(tx, RootID, "")
		if err != nil {
			return err
		}
		if !ok || row.ID != RootID || row.Parent != RootID {
			t.Fatalf("root folder row = %+v, ok=%v", row, ok)
		}
		return nil
	})
}

func TestCreateTwiceFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.db")
	s, err := Create(path, time.Hour, nil)
	if err != nil {
		t.Fatalf("first Create: %v", err)
	}
	defer s.Close()

	if _, err := Create(path, time.Hour, nil); err == nil {
		t.Fatal("second Create succeeded, want AlreadyExistsError")
	} else if _, ok := err.(*AlreadyExistsError); !ok {
		t.Fatalf("second Create error = %T, want *AlreadyExistsError", err)
	}
}

func TestOpenMissingFails(t *testing.T) {
	dir := t.TempDir()
	if _, err := Open(filepath.Join(dir, "nope.db"), time.Hour, nil); err == nil {
		t.Fatal("Open of missing file succeeded, want *NotFoundError")
	} else if _, ok := err.(*NotFoundError); !ok {
		t.Fatalf("Open error = %T, want *NotFoundError", err)
	}
}

func TestInsertFindRestoreFolder(t *testing.T) {
	s := newTestStore(t)
	var id int32

	withTx(t, s, func(tx *sql.Tx) error {
		var err error
		id, err = InsertFolder(tx, RootID, "Albums")
		return err
	})

	withTx(t, s, func(tx *sql.Tx) error {
		row, ok, err := FindFolder(tx, RootID, "Albums")
		if err != nil {
			return err
		}
		if !ok || row.ID != id {
			t.Fatalf("FindFolder = %+v, ok=%v", row, ok)
		}
		return nil
	})

	withTx(t, s, func(tx *sql.Tx) error {
		return SoftDeleteFolder(tx, id, time.Now())
	})

	withTx(t, s, func(tx *sql.Tx) error {
		row, ok, err := FindFolder(tx, RootID, "Albums")
		if err != nil {
			return err
		}
		if !ok || !row.Deleted.Valid {
			t.Fatalf("after soft-delete: row=%+v ok=%v", row, ok)
		}
		return nil
	})

	withTx(t, s, func(tx *sql.Tx) error {
		return RestoreFolder(tx, id)
	})

	withTx(t, s, func(tx *sql.Tx) error {
		row, _, err := FindFolder(tx, RootID, "Albums")
		if err != nil {
			return err
		}
		if row.Deleted.Valid {
			t.Fatal("folder still deleted after RestoreFolder")
		}
		return nil
	})
}

func TestPruneRemovesOldSoftDeletes(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s, err := Create(filepath.Join(dir, "catalog.db"), 24*time.Hour, fixedClock(now))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer s.Close()

	var id int32
	withTx(t, s, func(tx *sql.Tx) error {
		var err error
		id, err = InsertFolder(tx, RootID, "Gone")
		return err
	})
	withTx(t, s, func(tx *sql.Tx) error {
		return SoftDeleteFolder(tx, id, now.Add(-48*time.Hour))
	})

	if err := s.Prune(); err != nil {
		t.Fatalf("Prune: %v", err)
	}

	withTx(t, s, func(tx *sql.Tx) error {
		_, ok, err := FindFolder(tx, RootID, "Gone")
		if err != nil {
			return err
		}
		if ok {
			t.Fatal("pruned folder row still found")
		}
		return nil
	})
}

func TestReorderTagSameParent(t *testing.T) {
	s := newTestStore(t)
	var a, b, c int32

	withTx(t, s, func(tx *sql.Tx) error {
		var err error
		if a, err = InsertTag(tx, RootID, "a", 0); err != nil {
			return err
		}
		if b, err = InsertTag(tx, RootID, "b", 0); err != nil {
			return err
		}
		c, err = InsertTag(tx, RootID, "c", 0)
		return err
	})

	// a=0, b=1, c=2; move a to position 2 (after c)
	withTx(t, s, func(tx *sql.Tx) error {
		return ReorderTag(tx, a, RootID, 2)
	})

	want := map[int32]int32{b: 0, c: 1, a: 2}
	withTx(t, s, func(tx *sql.Tx) error {
		for id, pos := range want {
			row, ok, err := FindTag(tx, id)
			if err != nil {
				return err
			}
			if !ok {
				t.Fatalf("tag %d not found", id)
			}
			if row.Position != pos {
				t.Errorf("tag %d position = %d, want %d", id, row.Position, pos)
			}
		}
		return nil
	})
}

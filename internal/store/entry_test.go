package store

import (
	"database/sql"
	"testing"
	"time"
)

func TestInsertFindRestoreEntry(t *testing.T) {
	s := newTestStore(t)
	var id int32

	withTx(t, s, func(tx *sql.Tx) error {
		var err error
		id, err = InsertEntry(tx, RootID, "track.mp3")
		return err
	})

	withTx(t, s, func(tx *sql.Tx) error {
		row, ok, err := FindEntry(tx, RootID, "track.mp3")
		if err != nil {
			return err
		}
		if !ok || row.ID != id {
			t.Fatalf("FindEntry = %+v, ok=%v", row, ok)
		}
		return nil
	})

	withTx(t, s, func(tx *sql.Tx) error {
		return SoftDeleteEntry(tx, id, time.Now())
	})
	withTx(t, s, func(tx *sql.Tx) error {
		row, ok, err := FindEntry(tx, RootID, "track.mp3")
		if err != nil {
			return err
		}
		if !ok || !row.Deleted.Valid {
			t.Fatalf("after soft-delete: row=%+v ok=%v", row, ok)
		}
		return nil
	})

	withTx(t, s, func(tx *sql.Tx) error {
		return RestoreEntry(tx, id)
	})
	withTx(t, s, func(tx *sql.Tx) error {
		row, _, err := FindEntry(tx, RootID, "track.mp3")
		if err != nil {
			return err
		}
		if row.Deleted.Valid {
			t.Fatal("entry still deleted after RestoreEntry")
		}
		return nil
	})
}

func TestMoveEntryRenamesAndReparents(t *testing.T) {
	s := newTestStore(t)
	var folderID, entryID int32

	withTx(t, s, func(tx *sql.Tx) error {
		var err error
		if folderID, err = InsertFolder(tx, RootID, "Albums"); err != nil {
			return err
		}
		entryID, err = InsertEntry(tx, RootID, "track.mp3")
		return err
	})

	withTx(t, s, func(tx *sql.Tx) error {
		return MoveEntry(tx, entryID, folderID, "renamed.mp3")
	})

	withTx(t, s, func(tx *sql.Tx) error {
		if _, ok, err := FindEntry(tx, RootID, "track.mp3"); err != nil {
			return err
		} else if ok {
			t.Fatal("entry still found at its old (folder, name) key")
		}
		row, ok, err := FindEntry(tx, folderID, "renamed.mp3")
		if err != nil {
			return err
		}
		if !ok || row.ID != entryID {
			t.Fatalf("FindEntry at new location = %+v, ok=%v", row, ok)
		}
		return nil
	})
}

func TestEntryTagsAddAndRemove(t *testing.T) {
	s := newTestStore(t)
	var entryID, tagID int32

	withTx(t, s, func(tx *sql.Tx) error {
		var err error
		if entryID, err = InsertEntry(tx, RootID, "track.mp3"); err != nil {
			return err
		}
		tagID, err = InsertTag(tx, RootID, "rock", 0)
		return err
	})

	withTx(t, s, func(tx *sql.Tx) error {
		if err := AddEntryTag(tx, entryID, tagID); err != nil {
			return err
		}
		return AddEntryTag(tx, entryID, tagID) // idempotent
	})

	withTx(t, s, func(tx *sql.Tx) error {
		tags, err := EntryTags(tx, entryID)
		if err != nil {
			return err
		}
		if len(tags) != 1 || tags[0] != tagID {
			t.Fatalf("EntryTags = %v, want [%d]", tags, tagID)
		}
		return nil
	})

	withTx(t, s, func(tx *sql.Tx) error {
		return RemoveEntryTag(tx, entryID, tagID)
	})
	withTx(t, s, func(tx *sql.Tx) error {
		tags, err := EntryTags(tx, entryID)
		if err != nil {
			return err
		}
		if len(tags) != 0 {
			t.Fatalf("EntryTags after remove = %v, want empty", tags)
		}
		return nil
	})
}

func TestFoldersAndEntriesByParentsBatchedLookup(t *testing.T) {
	s := newTestStore(t)
	var a, b int32

	withTx(t, s, func(tx *sql.Tx) error {
		var err error
		if a, err = InsertFolder(tx, RootID, "A"); err != nil {
			return err
		}
		if b, err = InsertFolder(tx, RootID, "B"); err != nil {
			return err
		}
		if _, err = InsertFolder(tx, a, "Nested"); err != nil {
			return err
		}
		if _, err = InsertEntry(tx, a, "a1.mp3"); err != nil {
			return err
		}
		_, err = InsertEntry(tx, b, "b1.mp3")
		return err
	})

	withTx(t, s, func(tx *sql.Tx) error {
		folders, err := FoldersByParents(tx, []int32{a, b})
		if err != nil {
			return err
		}
		if len(folders) != 1 {
			t.Fatalf("FoldersByParents(a,b) = %+v, want 1 (Nested under a)", folders)
		}

		entries, err := EntriesByFolders(tx, []int32{a, b})
		if err != nil {
			return err
		}
		if len(entries) != 2 {
			t.Fatalf("EntriesByFolders(a,b) = %+v, want 2", entries)
		}
		return nil
	})
}

package store

import (
	"database/sql"
	"time"
)

// FindEntry looks up an entry by (folder_id, file_name), including
// soft-deleted rows.
func FindEntry(ex execer, folderID int32, fileName string) (EntryRow, bool, error) {
	var r EntryRow
	err := ex.QueryRow(
		`SELECT id, file_name, folder_id, deleted FROM entries WHERE folder_id = ? AND file_name = ?`,
		folderID, fileName,
	).Scan(&r.ID, &r.FileName, &r.FolderID, &r.Deleted)
	if err == sql.ErrNoRows {
		return EntryRow{}, false, nil
	}
	if err != nil {
		return EntryRow{}, false, err
	}
	return r, true, nil
}

// InsertEntry creates a new entry row and returns its assigned id.
func InsertEntry(ex execer, folderID int32, fileName string) (int32, error) {
	res, err := ex.Exec(`INSERT INTO entries (folder_id, file_name) VALUES (?, ?)`, folderID, fileName)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return int32(id), nil
}

// RestoreEntry clears an entry row's deleted timestamp, reviving it in
// place.
func RestoreEntry(ex execer, id int32) error {
	_, err := ex.Exec(`UPDATE entries SET deleted = NULL WHERE id = ?`, id)
	return err
}

// SoftDeleteEntry marks an entry row as deleted at t.
func SoftDeleteEntry(ex execer, id int32, t time.Time) error {
	_, err := ex.Exec(`UPDATE entries SET deleted = ? WHERE id = ?`, t, id)
	return err
}

// RenameEntry changes an entry's file name in place.
func RenameEntry(ex execer, id int32, fileName string) error {
	_, err := ex.Exec(`UPDATE entries SET file_name = ? WHERE id = ?`, fileName, id)
	return err
}

// MoveEntry reassigns an entry to a new folder, optionally renaming it in
// the same statement (used by move_file).
func MoveEntry(ex execer, id, newFolderID int32, fileName string) error {
	_, err := ex.Exec(`UPDATE entries SET folder_id = ?, file_name = ? WHERE id = ?`, newFolderID, fileName, id)
	return err
}

// ChildEntries returns the direct, non-deleted entries of a folder.
func ChildEntries(ex execer, folderID int32) ([]EntryRow, error) {
	rows, err := ex.Query(`SELECT id, file_name, folder_id, deleted FROM entries WHERE folder_id = ? AND deleted IS NULL`, folderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EntryRow
	for rows.Next() {
		var r EntryRow
		if err := rows.Scan(&r.ID, &r.FileName, &r.FolderID, &r.Deleted); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// EntriesByFolders is the batched counterpart to repeated FindEntry calls,
// used by the scanner once a directory's child count crosses the adaptive
// batching threshold (spec.md §4.3). Like FindEntry, it includes
// soft-deleted rows: the caller needs to see them to restore-on-reappear
// rather than insert a row that collides with one already there.
func EntriesByFolders(ex execer, folders []int32) ([]EntryRow, error) {
	if len(folders) == 0 {
		return nil, nil
	}
	query, args := inClause(
		`SELECT id, file_name, folder_id, deleted FROM entries WHERE folder_id IN (`,
		folders,
	)
	rows, err := ex.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EntryRow
	for rows.Next() {
		var r EntryRow
		if err := rows.Scan(&r.ID, &r.FileName, &r.FolderID, &r.Deleted); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// EntryTags returns the ids of the tags attached to entry.
func EntryTags(ex execer, entryID int32) ([]int32, error) {
	rows, err := ex.Query(`SELECT tag_id FROM entry_tag WHERE entry_id = ?`, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int32
	for rows.Next() {
		var id int32
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// AddEntryTag attaches tag to entry, idempotently.
func AddEntryTag(ex execer, entryID, tagID int32) error {
	_, err := ex.Exec(`INSERT OR IGNORE INTO entry_tag (entry_id, tag_id) VALUES (?, ?)`, entryID, tagID)
	return err
}

// RemoveEntryTag detaches tag from entry, idempotently.
func RemoveEntryTag(ex execer, entryID, tagID int32) error {
	_, err := ex.Exec(`DELETE FROM entry_tag WHERE entry_id = ? AND tag_id = ?`, entryID, tagID)
	return err
}

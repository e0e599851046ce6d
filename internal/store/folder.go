package store

import (
	"database/sql"
	"time"
)

// FindFolder looks up a folder by (parent, name), including soft-deleted
// rows, so callers can decide between restoring a deleted row and
// inserting a fresh one (spec.md §4.7's rename/recreate handling).
func FindFolder(ex execer, parent int32, name string) (FolderRow, bool, error) {
	var r FolderRow
	err := ex.QueryRow(
		`SELECT id, parent, name, deleted FROM folders WHERE parent = ? AND name = ?`,
		parent, name,
	).Scan(&r.ID, &r.Parent, &r.Name, &r.Deleted)
	if err == sql.ErrNoRows {
		return FolderRow{}, false, nil
	}
	if err != nil {
		return FolderRow{}, false, err
	}
	return r, true, nil
}

// InsertFolder creates a new folder row and returns its assigned id.
func InsertFolder(ex execer, parent int32, name string) (int32, error) {
	res, err := ex.Exec(`INSERT INTO folders (parent, name) VALUES (?, ?)`, parent, name)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return int32(id), nil
}

// RestoreFolder clears a folder row's deleted timestamp, reviving it in
// place (used when a rename/recreate observes the same path has the
// identity of a previously soft-deleted folder).
func RestoreFolder(ex execer, id int32) error {
	_, err := ex.Exec(`UPDATE folders SET deleted = NULL WHERE id = ?`, id)
	return err
}

// SoftDeleteFolder marks a folder row (and, via the parent/folder_id
// foreign keys with ON DELETE CASCADE being inapplicable to soft-delete,
// its caller-enumerated descendants) as deleted at t.
func SoftDeleteFolder(ex execer, id int32, t time.Time) error {
	_, err := ex.Exec(`UPDATE folders SET deleted = ? WHERE id = ?`, t, id)
	return err
}

// RenameFolder changes a folder's name in place.
func RenameFolder(ex execer, id int32, name string) error {
	_, err := ex.Exec(`UPDATE folders SET name = ? WHERE id = ?`, name, id)
	return err
}

// MoveFolder reparents a folder, optionally renaming it in the same
// statement (used when move_folder also changes the leaf name).
func MoveFolder(ex execer, id, newParent int32, name string) error {
	_, err := ex.Exec(`UPDATE folders SET parent = ?, name = ? WHERE id = ?`, newParent, name, id)
	return err
}

// ChildFolders returns the direct, non-deleted children of parent.
func ChildFolders(ex execer, parent int32) ([]FolderRow, error) {
	rows, err := ex.Query(`SELECT id, parent, name, deleted FROM folders WHERE parent = ? AND deleted IS NULL`, parent)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FolderRow
	for rows.Next() {
		var r FolderRow
		if err := rows.Scan(&r.ID, &r.Parent, &r.Name, &r.Deleted); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// FoldersByParents is the batched counterpart to repeated FindFolder
// calls: it loads every folder whose parent is in parents in one query,
// for the scanner's adaptive-batching threshold (spec.md §4.3). Like
// FindFolder, it includes soft-deleted rows: the caller needs to see
// them to restore-on-reappear rather than insert a row that collides
// with one already there.
func FoldersByParents(ex execer, parents []int32) ([]FolderRow, error) {
	if len(parents) == 0 {
		return nil, nil
	}
	query, args := inClause(
		`SELECT id, parent, name, deleted FROM folders WHERE parent IN (`,
		parents,
	)
	rows, err := ex.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FolderRow
	for rows.Next() {
		var r FolderRow
		if err := rows.Scan(&r.ID, &r.Parent, &r.Name, &r.Deleted); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

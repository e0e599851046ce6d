package store

import "database/sql"

// FolderRow is the persisted shape of a folders table row.
type FolderRow struct {
	ID      int32
	Parent  int32
	Name    string
	Deleted sql.NullTime
}

// EntryRow is the persisted shape of an entries table row.
type EntryRow struct {
	ID       int32
	FileName string
	FolderID int32
	Deleted  sql.NullTime
}

// TagRow is the persisted shape of a tags table row.
type TagRow struct {
	ID       int32
	Name     string
	Parent   int32
	Position int32
	Color    int32
	Deleted  sql.NullTime
}

// EntryTagRow is the persisted shape of an entry_tag association row.
type EntryTagRow struct {
	EntryID int32
	TagID   int32
}

// LoadFolders returns every non-deleted folder row, in id order. Used to
// rebuild the in-memory catalog model on startup.
func (s *Store) LoadFolders() ([]FolderRow, error) {
	rows, err := s.query(`SELECT id, parent, name, deleted FROM folders WHERE deleted IS NULL ORDER BY id`)
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

// LoadEntries returns every non-deleted entry row, in id order.
func (s *Store) LoadEntries() ([]EntryRow, error) {
	rows, err := s.query(`SELECT id, file_name, folder_id, deleted FROM entries WHERE deleted IS NULL ORDER BY id`)
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

// LoadTags returns every non-deleted tag row, ordered by parent then
// position so callers can rebuild the tag tree's sibling order directly.
func (s *Store) LoadTags() ([]TagRow, error) {
	rows, err := s.query(`SELECT id, name, parent, position, color, deleted FROM tags WHERE deleted IS NULL ORDER BY parent, position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TagRow
	for rows.Next() {
		var r TagRow
		if err := rows.Scan(&r.ID, &r.Name, &r.Parent, &r.Position, &r.Color, &r.Deleted); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LoadEntryTags returns every entry/tag association. Soft-deleting an
// entry or tag leaves its rows in place (they cascade away only when Prune
// removes that entry or tag), so rows naming a soft-deleted side are
// returned too.
func (s *Store) LoadEntryTags() ([]EntryTagRow, error) {
	rows, err := s.query(`SELECT entry_id, tag_id FROM entry_tag`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EntryTagRow
	for rows.Next() {
		var r EntryTagRow
		if err := rows.Scan(&r.EntryID, &r.TagID); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

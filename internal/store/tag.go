package store

import (
	"database/sql"
	"time"
)

// FindTag looks up a tag by id, including soft-deleted rows.
func FindTag(ex execer, id int32) (TagRow, bool, error) {
	var r TagRow
	err := ex.QueryRow(
		`SELECT id, name, parent, position, color, deleted FROM tags WHERE id = ?`, id,
	).Scan(&r.ID, &r.Name, &r.Parent, &r.Position, &r.Color, &r.Deleted)
	if err == sql.ErrNoRows {
		return TagRow{}, false, nil
	}
	if err != nil {
		return TagRow{}, false, err
	}
	return r, true, nil
}

// FindTagByName looks up a tag by name, including soft-deleted rows:
// tags.name is UNIQUE across the whole table regardless of deleted, so a
// caller creating or renaming a tag needs this to detect a collision with
// a soft-deleted row before it surfaces as a raw constraint violation.
func FindTagByName(ex execer, name string) (TagRow, bool, error) {
	var r TagRow
	err := ex.QueryRow(
		`SELECT id, name, parent, position, color, deleted FROM tags WHERE name = ?`, name,
	).Scan(&r.ID, &r.Name, &r.Parent, &r.Position, &r.Color, &r.Deleted)
	if err == sql.ErrNoRows {
		return TagRow{}, false, nil
	}
	if err != nil {
		return TagRow{}, false, err
	}
	return r, true, nil
}

// ChildTags returns the direct, non-deleted children of parent, in
// sibling (position) order.
func ChildTags(ex execer, parent int32) ([]TagRow, error) {
	rows, err := ex.Query(
		`SELECT id, name, parent, position, color, deleted FROM tags WHERE parent = ? AND deleted IS NULL ORDER BY position`,
		parent,
	)
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

// InsertTag creates a new tag as the last child of parent, assigning it
// the next contiguous sibling position.
func InsertTag(ex execer, parent int32, name string, color int32) (int32, error) {
	var count int
	if err := ex.QueryRow(`SELECT COUNT(*) FROM tags WHERE parent = ? AND id != parent AND deleted IS NULL`, parent).Scan(&count); err != nil {
		return 0, err
	}
	res, err := ex.Exec(
		`INSERT INTO tags (name, parent, position, color) VALUES (?, ?, ?, ?)`,
		name, parent, count, color,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return int32(id), nil
}

// RenameTag changes a tag's display name in place.
func RenameTag(ex execer, id int32, name string) error {
	_, err := ex.Exec(`UPDATE tags SET name = ? WHERE id = ?`, name, id)
	return err
}

// RecolorTag changes a tag's color in place.
func RecolorTag(ex execer, id int32, color int32) error {
	_, err := ex.Exec(`UPDATE tags SET color = ? WHERE id = ?`, color, id)
	return err
}

// SoftDeleteTagSubtree marks id and every non-deleted descendant of id as
// deleted at t. Soft-delete does not cascade at the schema level (that
// would also erase undo history), so the walk is explicit.
func SoftDeleteTagSubtree(ex execer, id int32, t time.Time) error {
	children, err := ChildTags(ex, id)
	if err != nil {
		return err
	}
	for _, c := range children {
		if err := SoftDeleteTagSubtree(ex, c.ID, t); err != nil {
			return err
		}
	}
	_, err = ex.Exec(`UPDATE tags SET deleted = ? WHERE id = ?`, t, id)
	return err
}

// ReorderTag moves tag id to position newPosition under newParent,
// shifting sibling positions so that each parent's children keep a
// contiguous 0..k-1 position sequence. The three cases mirror the
// original reorder_tag implementation this store's schema was ported
// from: same-parent move down, same-parent move up, and cross-parent
// move.
func ReorderTag(tx execer, id, newParent, newPosition int32) error {
	tag, ok, err := FindTag(tx, id)
	if err != nil {
		return err
	}
	if !ok {
		return &NotFoundError{Path: "tag"}
	}

	if tag.Parent == newParent {
		switch {
		case newPosition > tag.Position:
			if _, err := tx.Exec(
				`UPDATE tags SET position = position - 1 WHERE parent = ? AND position > ? AND position <= ?`,
				tag.Parent, tag.Position, newPosition,
			); err != nil {
				return err
			}
		case newPosition < tag.Position:
			if _, err := tx.Exec(
				`UPDATE tags SET position = position + 1 WHERE parent = ? AND position >= ? AND position < ?`,
				tag.Parent, newPosition, tag.Position,
			); err != nil {
				return err
			}
		default:
			return nil
		}
		_, err = tx.Exec(`UPDATE tags SET position = ? WHERE id = ?`, newPosition, id)
		return err
	}

	// cross-parent: close the gap left behind, then open one at the
	// destination.
	if _, err := tx.Exec(
		`UPDATE tags SET position = position - 1 WHERE parent = ? AND position > ?`,
		tag.Parent, tag.Position,
	); err != nil {
		return err
	}
	if _, err := tx.Exec(
		`UPDATE tags SET position = position + 1 WHERE parent = ? AND position >= ?`,
		newParent, newPosition,
	); err != nil {
		return err
	}
	_, err = tx.Exec(`UPDATE tags SET parent = ?, position = ? WHERE id = ?`, newParent, newPosition, id)
	return err
}

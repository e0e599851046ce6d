package catalog

import (
	"database/sql"

	"gitlab.com/fidelxyz/soundmanager/internal/store"
)

// NewTag creates a tag as the last child of the root tag (spec.md §4.4).
func (c *Catalog) NewTag(name string) (int32, error) {
	c.model.Lock()
	defer c.model.Unlock()

	if _, exists := c.model.tagNames[name]; exists {
		return 0, newError(TagAlreadyExists, "a tag named '%s' already exists", name)
	}

	var id int32
	err := c.store.WithTx(func(tx *sql.Tx) error {
		// tagNames above only tracks live names (removeTag drops a
		// deleted tag's name), but tags.name stays UNIQUE across
		// soft-deletes too, so a name freed in memory can still be
		// taken in the store.
		if _, ok, err := store.FindTagByName(tx, name); err != nil {
			return err
		} else if ok {
			return newError(TagAlreadyExists, "a tag named '%s' already exists", name)
		}
		var err error
		id, err = store.InsertTag(tx, RootID, name, 0)
		return err
	})
	if err != nil {
		return 0, err
	}

	root := c.model.tags[RootID]
	c.model.insertTag(id, RootID, name, int32(len(root.Children)), 0)
	return id, nil
}

// RenameTag changes a tag's name, failing with TagAlreadyExists on
// collision (spec.md §4.4).
func (c *Catalog) RenameTag(id int32, name string) error {
	c.model.Lock()
	defer c.model.Unlock()

	t := c.model.tags[id]
	if t == nil {
		return newError(Other, "tag %d not found", id)
	}
	if existing, exists := c.model.tagNames[name]; exists && existing != id {
		return newError(TagAlreadyExists, "a tag named '%s' already exists", name)
	}
	if t.Name == name {
		return nil
	}

	if err := c.store.WithTx(func(tx *sql.Tx) error {
		if row, ok, err := store.FindTagByName(tx, name); err != nil {
			return err
		} else if ok && row.ID != id {
			return newError(TagAlreadyExists, "a tag named '%s' already exists", name)
		}
		return store.RenameTag(tx, id, name)
	}); err != nil {
		return err
	}

	delete(c.model.tagNames, t.Name)
	t.Name = name
	c.model.tagNames[name] = id
	return nil
}

// SetTagColor changes a tag's color (spec.md §4.4).
func (c *Catalog) SetTagColor(id, color int32) error {
	c.model.Lock()
	defer c.model.Unlock()

	t := c.model.tags[id]
	if t == nil {
		return newError(Other, "tag %d not found", id)
	}
	if err := c.store.WithTx(func(tx *sql.Tx) error {
		return store.RecolorTag(tx, id, color)
	}); err != nil {
		return err
	}
	t.Color = color
	return nil
}

// DeleteTag recursively soft-deletes the tag and all descendants,
// removing those tag ids from every entry's TagIDs (spec.md §4.4).
func (c *Catalog) DeleteTag(id int32) error {
	c.model.Lock()
	defer c.model.Unlock()

	if c.model.tags[id] == nil {
		return newError(Other, "tag %d not found", id)
	}

	now := c.clk.Now()
	if err := c.store.WithTx(func(tx *sql.Tx) error {
		return store.SoftDeleteTagSubtree(tx, id, now)
	}); err != nil {
		return err
	}

	c.model.removeTag(id)
	return nil
}

// ReorderTag moves a tag to a new parent and position; toPos = -1 means
// append. No-op if parent and position are unchanged (spec.md §4.4).
func (c *Catalog) ReorderTag(id, toParent, toPos int32) error {
	c.model.Lock()
	defer c.model.Unlock()

	t := c.model.tags[id]
	if t == nil {
		return newError(Other, "tag %d not found", id)
	}
	parent := c.model.tags[toParent]
	if parent == nil {
		return newError(Other, "tag %d not found", toParent)
	}

	pos := toPos
	if pos < 0 {
		pos = int32(len(parent.Children))
		if t.ParentID == toParent {
			pos-- // appending among its own current siblings
		}
	}
	if t.ParentID == toParent && pos == t.Position {
		return nil
	}

	if err := c.store.WithTx(func(tx *sql.Tx) error {
		return store.ReorderTag(tx, id, toParent, pos)
	}); err != nil {
		return err
	}

	reorderModel(c.model, t, toParent, pos)
	return nil
}

// reorderModel mirrors store.ReorderTag's three cases against the
// in-memory tree, keeping every parent's children's Position values a
// contiguous 0..k sequence (spec.md §4.4, §8 invariant 3).
func reorderModel(m *Model, t *Tag, newParent, newPos int32) {
	oldParent := t.ParentID
	oldPos := t.Position

	if oldParent == newParent {
		for _, sib := range m.tags {
			if sib.ParentID != oldParent || sib.ID == t.ID {
				continue
			}
			switch {
			case newPos > oldPos && sib.Position > oldPos && sib.Position <= newPos:
				sib.Position--
			case newPos < oldPos && sib.Position >= newPos && sib.Position < oldPos:
				sib.Position++
			}
		}
		t.Position = newPos
		return
	}

	for _, sib := range m.tags {
		if sib.ParentID == oldParent && sib.Position > oldPos {
			sib.Position--
		}
		if sib.ParentID == newParent && sib.Position >= newPos {
			sib.Position++
		}
	}

	delete(m.tags[oldParent].Children, t.ID)
	m.tags[newParent].Children[t.ID] = struct{}{}
	t.ParentID = newParent
	t.Position = newPos
}

// AddTagForEntry attaches tag to entry, failing with
// TagAlreadyExistsForEntry on duplicate (spec.md §4.4).
func (c *Catalog) AddTagForEntry(entryID, tagID int32) error {
	c.model.Lock()
	defer c.model.Unlock()

	e := c.model.entries[entryID]
	if e == nil {
		return newError(Other, "entry %d not found", entryID)
	}
	if c.model.tags[tagID] == nil {
		return newError(Other, "tag %d not found", tagID)
	}
	if _, ok := e.TagIDs[tagID]; ok {
		return newError(TagAlreadyExistsForEntry, "entry %d already has tag %d", entryID, tagID)
	}

	if err := c.store.WithTx(func(tx *sql.Tx) error {
		return store.AddEntryTag(tx, entryID, tagID)
	}); err != nil {
		return err
	}
	e.TagIDs[tagID] = struct{}{}
	return nil
}

// RemoveTagForEntry detaches tag from entry (spec.md §4.4).
func (c *Catalog) RemoveTagForEntry(entryID, tagID int32) error {
	c.model.Lock()
	defer c.model.Unlock()

	e := c.model.entries[entryID]
	if e == nil {
		return newError(Other, "entry %d not found", entryID)
	}

	if err := c.store.WithTx(func(tx *sql.Tx) error {
		return store.RemoveEntryTag(tx, entryID, tagID)
	}); err != nil {
		return err
	}
	delete(e.TagIDs, tagID)
	return nil
}

// TagsForEntry returns the tag ids attached to entryID.
func (c *Catalog) TagsForEntry(entryID int32) []int32 {
	c.model.RLock()
	defer c.model.RUnlock()

	e := c.model.entries[entryID]
	if e == nil {
		return nil
	}
	out := make([]int32, 0, len(e.TagIDs))
	for id := range e.TagIDs {
		out = append(out, id)
	}
	return out
}

package catalog

import (
	"database/sql"
	"testing"

	"gitlab.com/fidelxyz/soundmanager/internal/store"
)

func TestNewTagRejectsDuplicateName(t *testing.T) {
	c := newTestCatalog(t)

	if _, err := c.NewTag("rock"); err != nil {
		t.Fatalf("NewTag: %v", err)
	}
	if _, err := c.NewTag("rock"); AsKind(err) != TagAlreadyExists {
		t.Fatalf("second NewTag error = %v, want TagAlreadyExists", err)
	}
}

func TestRenameTagRejectsCollision(t *testing.T) {
	c := newTestCatalog(t)

	rock, _ := c.NewTag("rock")
	c.NewTag("punk")

	if err := c.RenameTag(rock, "punk"); AsKind(err) != TagAlreadyExists {
		t.Fatalf("RenameTag error = %v, want TagAlreadyExists", err)
	}
	if err := c.RenameTag(rock, "classic-rock"); err != nil {
		t.Fatalf("RenameTag: %v", err)
	}
	if tag := c.Model().Tag(rock); tag.Name != "classic-rock" {
		t.Fatalf("tag name = %q, want classic-rock", tag.Name)
	}
}

// newChildTag inserts a tag directly under parent, bypassing NewTag
// (which always appends under the root), to build multi-level trees for
// tests.
func newChildTag(t *testing.T, c *Catalog, parent int32, name string) int32 {
	t.Helper()
	c.model.Lock()
	defer c.model.Unlock()

	p := c.model.tags[parent]
	var id int32
	err := c.store.WithTx(func(tx *sql.Tx) error {
		var err error
		id, err = store.InsertTag(tx, parent, name, 0)
		return err
	})
	if err != nil {
		t.Fatalf("InsertTag: %v", err)
	}
	c.model.insertTag(id, parent, name, int32(len(p.Children)), 0)
	return id
}

func TestDeleteTagSubtree(t *testing.T) {
	c := newTestCatalog(t)

	genreID, _ := c.NewTag("genre")
	rockID := newChildTag(t, c, genreID, "rock")

	writeFile(t, c.AbsPath("track.mp3"), "data")
	if err := c.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	entries := c.Model().Entries()
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	entryID := entries[0].ID

	if err := c.AddTagForEntry(entryID, rockID); err != nil {
		t.Fatalf("AddTagForEntry: %v", err)
	}

	if err := c.DeleteTag(genreID); err != nil {
		t.Fatalf("DeleteTag: %v", err)
	}
	if c.Model().Tag(genreID) != nil || c.Model().Tag(rockID) != nil {
		t.Fatal("tag or its descendant still present after DeleteTag")
	}
	if tags := c.TagsForEntry(entryID); len(tags) != 0 {
		t.Fatalf("entry still carries tags after DeleteTag: %v", tags)
	}
}

func TestNewTagAfterDeleteRejectsReuseWithTypedError(t *testing.T) {
	c := newTestCatalog(t)

	rock, err := c.NewTag("rock")
	if err != nil {
		t.Fatalf("NewTag: %v", err)
	}
	if err := c.DeleteTag(rock); err != nil {
		t.Fatalf("DeleteTag: %v", err)
	}

	// the store's tags.name UNIQUE constraint holds the name even though
	// the in-memory tagNames index dropped it on delete; recreating it
	// must surface the typed TagAlreadyExists error, not a raw
	// constraint-violation error from the driver.
	if _, err := c.NewTag("rock"); AsKind(err) != TagAlreadyExists {
		t.Fatalf("NewTag after delete error = %v, want TagAlreadyExists", err)
	}
}

func TestRenameTagAfterDeleteRejectsReuseWithTypedError(t *testing.T) {
	c := newTestCatalog(t)

	rock, err := c.NewTag("rock")
	if err != nil {
		t.Fatalf("NewTag: %v", err)
	}
	punk, err := c.NewTag("punk")
	if err != nil {
		t.Fatalf("NewTag: %v", err)
	}
	if err := c.DeleteTag(rock); err != nil {
		t.Fatalf("DeleteTag: %v", err)
	}

	if err := c.RenameTag(punk, "rock"); AsKind(err) != TagAlreadyExists {
		t.Fatalf("RenameTag to a deleted tag's name error = %v, want TagAlreadyExists", err)
	}
}

func TestReorderTagCrossParent(t *testing.T) {
	c := newTestCatalog(t)

	genreID, _ := c.NewTag("genre")
	moodID, _ := c.NewTag("mood")
	rockID := newChildTag(t, c, genreID, "rock")

	if err := c.ReorderTag(rockID, moodID, 0); err != nil {
		t.Fatalf("ReorderTag: %v", err)
	}

	if tag := c.Model().Tag(rockID); tag.ParentID != moodID {
		t.Fatalf("rock.ParentID = %d, want %d (mood)", tag.ParentID, moodID)
	}
	if children := c.Model().ChildTags(genreID); len(children) != 0 {
		t.Fatalf("genre still has children after reorder: %v", children)
	}
}

func TestAddTagForEntryRejectsDuplicate(t *testing.T) {
	c := newTestCatalog(t)
	tagID, _ := c.NewTag("rock")

	writeFile(t, c.AbsPath("track.mp3"), "data")
	if err := c.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	entryID := c.Model().Entries()[0].ID

	if err := c.AddTagForEntry(entryID, tagID); err != nil {
		t.Fatalf("AddTagForEntry: %v", err)
	}
	if err := c.AddTagForEntry(entryID, tagID); AsKind(err) != TagAlreadyExistsForEntry {
		t.Fatalf("second AddTagForEntry error = %v, want TagAlreadyExistsForEntry", err)
	}
}

package catalog

import (
	"os"
	"testing"
)

func TestRefreshDiscoversNewFilesAndFolders(t *testing.T) {
	c := newTestCatalog(t)

	writeFile(t, c.AbsPath("top.mp3"), "data")
	writeFile(t, c.AbsPath("Albums/Live/track.flac"), "data")
	writeFile(t, c.AbsPath("Albums/cover.jpg"), "not audio")
	writeFile(t, c.AbsPath(".hidden/ignored.mp3"), "data")

	if err := c.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	entries := c.Model().Entries()
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2 (non-audio and hidden files excluded)", len(entries))
	}

	if _, ok := c.Model().FolderByPath("Albums/Live"); !ok {
		t.Fatal("nested folder 'Albums/Live' not discovered")
	}
	if _, ok := c.Model().FolderByPath(".hidden"); ok {
		t.Fatal("hidden folder should not be discovered")
	}
}

func TestRefreshRemovesDeletedEntries(t *testing.T) {
	c := newTestCatalog(t)

	path := c.AbsPath("track.mp3")
	writeFile(t, path, "data")
	if err := c.Refresh(); err != nil {
		t.Fatalf("first Refresh: %v", err)
	}
	if len(c.Model().Entries()) != 1 {
		t.Fatal("expected entry to be discovered")
	}

	if err := os.Remove(path); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := c.Refresh(); err != nil {
		t.Fatalf("second Refresh: %v", err)
	}
	if len(c.Model().Entries()) != 0 {
		t.Fatal("expected entry to be removed after file deletion")
	}
}

func TestRefreshIsIdempotent(t *testing.T) {
	c := newTestCatalog(t)

	writeFile(t, c.AbsPath("track.mp3"), "data")
	if err := c.Refresh(); err != nil {
		t.Fatalf("first Refresh: %v", err)
	}
	first := c.Model().Entries()[0].ID

	if err := c.Refresh(); err != nil {
		t.Fatalf("second Refresh: %v", err)
	}
	entries := c.Model().Entries()
	if len(entries) != 1 || entries[0].ID != first {
		t.Fatalf("second Refresh changed entry identity: %+v", entries)
	}
}

func TestRefreshRestoresSoftDeletedOnRecreate(t *testing.T) {
	c := newTestCatalog(t)

	path := c.AbsPath("track.mp3")
	writeFile(t, path, "data")
	if err := c.Refresh(); err != nil {
		t.Fatalf("first Refresh: %v", err)
	}
	firstID := c.Model().Entries()[0].ID

	if err := os.Remove(path); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := c.Refresh(); err != nil {
		t.Fatalf("second Refresh: %v", err)
	}

	writeFile(t, path, "data-again")
	if err := c.Refresh(); err != nil {
		t.Fatalf("third Refresh: %v", err)
	}

	entries := c.Model().Entries()
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	if entries[0].ID != firstID {
		t.Fatalf("recreated entry got a new id %d, want restored id %d", entries[0].ID, firstID)
	}
}

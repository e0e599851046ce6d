package catalog

import "testing"

func TestNewModelSeedsRoots(t *testing.T) {
	m := newModel("Music")

	root := m.Folder(RootID)
	if root == nil || root.Name != "Music" || root.Path != "" {
		t.Fatalf("root folder = %+v", root)
	}
	if tag := m.Tag(RootID); tag == nil || tag.Name != "" {
		t.Fatalf("root tag = %+v", tag)
	}
}

func TestInsertFolderBuildsPath(t *testing.T) {
	m := newModel("Music")
	m.Lock()
	defer m.Unlock()

	albums := m.insertFolder(1, RootID, "Albums")
	if albums.Path != "Albums" {
		t.Fatalf("Albums.Path = %q, want %q", albums.Path, "Albums")
	}
	live := m.insertFolder(2, albums.ID, "Live")
	if live.Path != "Albums/Live" {
		t.Fatalf("Live.Path = %q, want %q", live.Path, "Albums/Live")
	}

	if f, ok := m.FolderByPath("Albums/Live"); !ok || f.ID != live.ID {
		t.Fatalf("FolderByPath(Albums/Live) = %+v, ok=%v", f, ok)
	}
}

func TestInsertEntryAndPath(t *testing.T) {
	m := newModel("Music")
	m.Lock()
	albums := m.insertFolder(1, RootID, "Albums")
	e := m.insertEntry(10, albums.ID, "track.mp3")
	m.Unlock()

	if got := m.EntryPath(e); got != "Albums/track.mp3" {
		t.Fatalf("EntryPath = %q, want %q", got, "Albums/track.mp3")
	}
	if got, ok := m.EntryByPath("Albums/track.mp3"); !ok || got.ID != e.ID {
		t.Fatalf("EntryByPath = %+v, ok=%v", got, ok)
	}
}

func TestRemoveFolderCascadesEntries(t *testing.T) {
	m := newModel("Music")
	m.Lock()
	albums := m.insertFolder(1, RootID, "Albums")
	m.insertEntry(10, albums.ID, "track.mp3")
	m.removeFolder(albums.ID)
	m.Unlock()

	if m.Folder(1) != nil {
		t.Fatal("folder still present after removeFolder")
	}
	if m.Entry(10) != nil {
		t.Fatal("entry still present after its folder was removed")
	}
	if _, ok := m.folders[RootID].SubFolders["Albums"]; ok {
		t.Fatal("root still references removed folder by name")
	}
}

func TestTagDescendants(t *testing.T) {
	m := newModel("Music")
	m.Lock()
	genre := m.insertTag(1, RootID, "genre", 0, 0)
	rock := m.insertTag(2, genre.ID, "rock", 0, 0)
	m.insertTag(3, rock.ID, "punk", 0, 0)
	m.Unlock()

	d := m.tagDescendants(genre.ID)
	for _, want := range []int32{1, 2, 3} {
		if _, ok := d[want]; !ok {
			t.Errorf("tagDescendants(genre) missing %d", want)
		}
	}
}

func TestRebuildPathsFollowsMove(t *testing.T) {
	m := newModel("Music")
	m.Lock()
	a := m.insertFolder(1, RootID, "A")
	b := m.insertFolder(2, RootID, "B")
	child := m.insertFolder(3, a.ID, "Child")

	delete(a.SubFolders, "Child")
	b.SubFolders["Child"] = child.ID
	child.ParentID = b.ID
	m.rebuildPaths(child.ID)
	m.Unlock()

	if child.Path != "B/Child" {
		t.Fatalf("child.Path = %q, want %q", child.Path, "B/Child")
	}
}

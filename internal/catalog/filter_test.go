package catalog

import "testing"

func containsID(ids []int32, want int32) bool {
	for _, id := range ids {
		if id == want {
			return true
		}
	}
	return false
}

func TestApplyEmptyFilterReturnsNoFilter(t *testing.T) {
	c := newTestCatalog(t)
	if got, ok := c.Apply(Filter{}); got != nil || ok {
		t.Fatalf("Apply(empty) = (%v, %v), want (nil, false)", got, ok)
	}
}

func TestApplyNonEmptyFilterMatchingNothingReturnsEmptyNotNoFilter(t *testing.T) {
	c := newTestCatalog(t)
	writeFile(t, c.AbsPath("track.mp3"), "data")
	if err := c.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	got, ok := c.Apply(Filter{Search: "no-such-match"})
	if !ok {
		t.Fatal("Apply(search=no-such-match) ok = false, want true (a real, empty result)")
	}
	if len(got) != 0 {
		t.Fatalf("Apply(search=no-such-match) = %v, want empty", got)
	}
}

func TestApplyTagFilterIsDisjunction(t *testing.T) {
	c := newTestCatalog(t)

	rock, _ := c.NewTag("rock")
	jazz, _ := c.NewTag("jazz")

	writeFile(t, c.AbsPath("a.mp3"), "data")
	writeFile(t, c.AbsPath("b.mp3"), "data")
	writeFile(t, c.AbsPath("c.mp3"), "data")
	if err := c.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	var a, b, cc int32
	for _, e := range c.Model().Entries() {
		switch e.FileName {
		case "a.mp3":
			a = e.ID
		case "b.mp3":
			b = e.ID
		case "c.mp3":
			cc = e.ID
		}
	}

	if err := c.AddTagForEntry(a, rock); err != nil {
		t.Fatalf("AddTagForEntry(a, rock): %v", err)
	}
	if err := c.AddTagForEntry(b, jazz); err != nil {
		t.Fatalf("AddTagForEntry(b, jazz): %v", err)
	}

	// an entry tagged "rock" and an entry tagged "jazz" both match a
	// filter listing both tags: the tag criterion is a union, not an
	// intersection requirement.
	got, ok := c.Apply(Filter{TagIDs: []int32{rock, jazz}})
	if !ok {
		t.Fatal("Apply(tags=[rock,jazz]) ok = false, want true")
	}
	if !containsID(got, a) || !containsID(got, b) {
		t.Fatalf("Apply(tags=[rock,jazz]) = %v, want to contain both a and b", got)
	}
	if containsID(got, cc) {
		t.Fatalf("Apply(tags=[rock,jazz]) unexpectedly matched untagged entry c")
	}
}

func TestApplySearchMatchesFileName(t *testing.T) {
	c := newTestCatalog(t)

	writeFile(t, c.AbsPath("interlude.mp3"), "data")
	writeFile(t, c.AbsPath("finale.mp3"), "data")
	if err := c.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	got, ok := c.Apply(Filter{Search: "lude"})
	if !ok {
		t.Fatal("Apply(search=lude) ok = false, want true")
	}
	if len(got) != 1 {
		t.Fatalf("Apply(search=lude) = %v, want exactly 1 match", got)
	}
}

func TestApplyFolderFilterIncludeSubfolders(t *testing.T) {
	c := newTestCatalog(t)

	writeFile(t, c.AbsPath("top.mp3"), "data")
	writeFile(t, c.AbsPath("Albums/nested.mp3"), "data")
	if err := c.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	albums, ok := c.Model().FolderByPath("Albums")
	if !ok {
		t.Fatal("Albums folder not found")
	}

	id := albums.ID
	got, ok := c.Apply(Filter{FolderID: &id, IncludeSubfolders: false})
	if !ok {
		t.Fatal("Apply(folder=Albums) ok = false, want true")
	}
	if len(got) != 1 {
		t.Fatalf("Apply(folder=Albums) = %v, want 1 (nested.mp3 only)", got)
	}

	root := RootID
	gotAll, ok := c.Apply(Filter{FolderID: &root, IncludeSubfolders: true})
	if !ok {
		t.Fatal("Apply(folder=root, includeSubfolders) ok = false, want true")
	}
	if len(gotAll) != 2 {
		t.Fatalf("Apply(folder=root, includeSubfolders) = %v, want 2", gotAll)
	}
}

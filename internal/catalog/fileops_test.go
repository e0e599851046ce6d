package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestImportFileCopiesIntoBase(t *testing.T) {
	c := newTestCatalog(t)

	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "import-me.mp3")
	writeFile(t, src, "data")

	id, err := c.ImportFile(src, false)
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}

	dest := c.AbsPath("import-me.mp3")
	if ok, _ := fileExistsForTest(dest); !ok {
		t.Fatalf("imported file not found at %q", dest)
	}
	if e := c.Model().Entry(id); e == nil || e.FileName != "import-me.mp3" {
		t.Fatalf("model entry = %+v", e)
	}
}

func TestImportFileRejectsCollisionWithoutForce(t *testing.T) {
	c := newTestCatalog(t)

	writeFile(t, c.AbsPath("existing.mp3"), "original")

	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "existing.mp3")
	writeFile(t, src, "new data")

	if _, err := c.ImportFile(src, false); AsKind(err) != FileAlreadyExists {
		t.Fatalf("ImportFile error = %v, want FileAlreadyExists", err)
	}
	if _, err := c.ImportFile(src, true); err != nil {
		t.Fatalf("ImportFile with force: %v", err)
	}
}

func TestDeleteFileMovesToTrashAndUpdatesModel(t *testing.T) {
	c := newTestCatalog(t)

	writeFile(t, c.AbsPath("track.mp3"), "data")
	if err := c.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	id := c.Model().Entries()[0].ID

	if err := c.DeleteFile(id); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	if c.Model().Entry(id) != nil {
		t.Fatal("entry still present after DeleteFile")
	}
	if ok, _ := fileExistsForTest(c.AbsPath("track.mp3")); ok {
		t.Fatal("file still present at its original path after DeleteFile")
	}
}

func TestMoveFileToAnotherFolder(t *testing.T) {
	c := newTestCatalog(t)

	writeFile(t, c.AbsPath("track.mp3"), "data")
	writeFile(t, c.AbsPath("Albums/.keep"), "")
	if err := c.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	var entryID int32
	for _, e := range c.Model().Entries() {
		if e.FileName == "track.mp3" {
			entryID = e.ID
		}
	}
	albums, ok := c.Model().FolderByPath("Albums")
	if !ok {
		t.Fatal("Albums folder not discovered")
	}

	if err := c.MoveFile(entryID, albums.ID, false); err != nil {
		t.Fatalf("MoveFile: %v", err)
	}

	e := c.Model().Entry(entryID)
	if e.FolderID != albums.ID {
		t.Fatalf("entry.FolderID = %d, want %d", e.FolderID, albums.ID)
	}
	if ok, _ := fileExistsForTest(c.AbsPath("Albums/track.mp3")); !ok {
		t.Fatal("file not found at its new path")
	}
	if ok, _ := fileExistsForTest(c.AbsPath("track.mp3")); ok {
		t.Fatal("file still present at its old path")
	}
}

func TestMoveFolderRewritesDescendantPaths(t *testing.T) {
	c := newTestCatalog(t)

	writeFile(t, c.AbsPath("Source/Nested/track.mp3"), "data")
	writeFile(t, c.AbsPath("Dest/.keep"), "")
	if err := c.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	source, _ := c.Model().FolderByPath("Source")
	dest, _ := c.Model().FolderByPath("Dest")

	if err := c.MoveFolder(source.ID, dest.ID); err != nil {
		t.Fatalf("MoveFolder: %v", err)
	}

	nested, ok := c.Model().FolderByPath("Dest/Source/Nested")
	if !ok {
		t.Fatal("nested folder path not rewritten after move")
	}
	if ok, _ := fileExistsForTest(c.AbsPath(filepath.Join(nested.Path, "track.mp3"))); !ok {
		t.Fatal("moved file not found at its rewritten path")
	}
}

func fileExistsForTest(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

package catalog

import (
	"database/sql"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"gitlab.com/fidelxyz/soundmanager/internal/fsutil"
	"gitlab.com/fidelxyz/soundmanager/internal/store"
	"gitlab.com/fidelxyz/soundmanager/internal/trash"
)

// ImportFile copies src into the base directory under the root folder,
// failing with FileAlreadyExists unless force is set (spec.md §4.6).
func (c *Catalog) ImportFile(srcAbsPath string, force bool) (int32, error) {
	name := filepath.Base(srcAbsPath)
	destAbs := filepath.Join(c.cfg.BasePath, name)

	exists, err := fsutil.Exists(destAbs)
	if err != nil {
		return 0, err
	}
	if exists && !force {
		return 0, newError(FileAlreadyExists, "'%s' already exists in the base directory", name)
	}
	if err := copyFileAtomic(srcAbsPath, destAbs); err != nil {
		return 0, errors.Wrapf(err, "could not import '%s'", srcAbsPath)
	}

	c.model.Lock()
	defer c.model.Unlock()

	var id int32
	err = c.store.WithTx(func(tx *sql.Tx) error {
		row, ok, err := store.FindEntry(tx, RootID, name)
		if err != nil {
			return err
		}
		if ok {
			id = row.ID
			return store.RestoreEntry(tx, id)
		}
		id, err = store.InsertEntry(tx, RootID, name)
		return err
	})
	if err != nil {
		return 0, err
	}

	e := c.model.insertEntry(id, RootID, name)
	e.Metadata, _ = ProbeMetadata(destAbs)
	return id, nil
}

// DeleteFile moves entryID's file to the OS trash and soft-deletes its
// catalog row (spec.md §4.6). On OS failure the model is untouched.
func (c *Catalog) DeleteFile(entryID int32) error {
	e := c.model.Entry(entryID)
	if e == nil {
		return newError(Other, "entry %d not found", entryID)
	}
	absPath := c.AbsPath(c.model.EntryPath(e))

	if _, err := trash.Move(absPath); err != nil {
		return errors.Wrapf(err, "could not move '%s' to trash", absPath)
	}

	now := c.clk.Now()
	c.model.Lock()
	defer c.model.Unlock()

	if err := c.store.WithTx(func(tx *sql.Tx) error {
		return store.SoftDeleteEntry(tx, entryID, now)
	}); err != nil {
		return err
	}
	c.model.removeEntry(entryID)
	return nil
}

// MoveFile renames entryID's file into destFolderID, preserving its file
// name; fails with FileAlreadyExists unless force (spec.md §4.6).
func (c *Catalog) MoveFile(entryID, destFolderID int32, force bool) error {
	e := c.model.Entry(entryID)
	if e == nil {
		return newError(Other, "entry %d not found", entryID)
	}
	destFolder := c.model.Folder(destFolderID)
	if destFolder == nil {
		return newError(Other, "folder %d not found", destFolderID)
	}

	srcAbs := c.AbsPath(c.model.EntryPath(e))
	destAbs := filepath.Join(c.cfg.BasePath, destFolder.Path, e.FileName)
	if srcAbs == destAbs {
		return nil
	}

	destExists, err := fsutil.Exists(destAbs)
	if err != nil {
		return err
	}
	if destExists && !force {
		return newError(FileAlreadyExists, "'%s' already exists in the target folder", e.FileName)
	}
	if err := os.Rename(srcAbs, destAbs); err != nil {
		return errors.Wrapf(err, "could not move '%s'", srcAbs)
	}

	now := c.clk.Now()
	c.model.Lock()
	defer c.model.Unlock()

	err = c.store.WithTx(func(tx *sql.Tx) error {
		if destExists {
			if existing, ok, err := store.FindEntry(tx, destFolderID, e.FileName); err != nil {
				return err
			} else if ok && existing.ID != entryID {
				if err := store.SoftDeleteEntry(tx, existing.ID, now); err != nil {
					return err
				}
			}
		}
		return store.MoveEntry(tx, entryID, destFolderID, e.FileName)
	})
	if err != nil {
		return err
	}

	if oldFolder := c.model.folders[e.FolderID]; oldFolder != nil {
		delete(oldFolder.Entries, e.FileName)
	}
	if conflictID, ok := destFolder.Entries[e.FileName]; ok && conflictID != entryID {
		c.model.removeEntry(conflictID)
	}
	e.FolderID = destFolderID
	destFolder.Entries[e.FileName] = entryID
	return nil
}

// MoveFolder renames folderID's directory to be a child of newParentID,
// preserving its leaf name (spec.md §4.6). Any folder row already
// occupying the target (parent, name) key is soft-deleted first.
func (c *Catalog) MoveFolder(folderID, newParentID int32) error {
	folder := c.model.Folder(folderID)
	if folder == nil {
		return newError(Other, "folder %d not found", folderID)
	}
	newParent := c.model.Folder(newParentID)
	if newParent == nil {
		return newError(Other, "folder %d not found", newParentID)
	}

	srcAbs := c.AbsPath(folder.Path)
	destAbs := filepath.Join(c.cfg.BasePath, newParent.Path, folder.Name)
	if srcAbs == destAbs {
		return nil
	}
	if err := os.Rename(srcAbs, destAbs); err != nil {
		return errors.Wrapf(err, "could not move '%s'", srcAbs)
	}

	now := c.clk.Now()
	c.model.Lock()
	defer c.model.Unlock()

	err := c.store.WithTx(func(tx *sql.Tx) error {
		if existing, ok, err := store.FindFolder(tx, newParentID, folder.Name); err != nil {
			return err
		} else if ok && existing.ID != folderID {
			if err := store.SoftDeleteFolder(tx, existing.ID, now); err != nil {
				return err
			}
		}
		return store.MoveFolder(tx, folderID, newParentID, folder.Name)
	})
	if err != nil {
		return err
	}

	if oldParent := c.model.folders[folder.ParentID]; oldParent != nil {
		delete(oldParent.SubFolders, folder.Name)
	}
	if conflictID, ok := newParent.SubFolders[folder.Name]; ok && conflictID != folderID {
		c.model.removeFolder(conflictID)
	}
	folder.ParentID = newParentID
	newParent.SubFolders[folder.Name] = folderID
	c.model.rebuildPaths(folderID)
	return nil
}

// Spot optionally copies entryID's file to savePath and/or launches it
// (or the original) with openInApplication (spec.md §4.6).
func (c *Catalog) Spot(entryID int32, savePath, openInApplication *string, force bool) error {
	e := c.model.Entry(entryID)
	if e == nil {
		return newError(Other, "entry %d not found", entryID)
	}
	target := c.AbsPath(c.model.EntryPath(e))

	if savePath != nil {
		destAbs := filepath.Join(*savePath, e.FileName)
		exists, err := fsutil.Exists(destAbs)
		if err != nil {
			return err
		}
		if exists && !force {
			return newError(FileAlreadyExists, "'%s' already exists at '%s'", e.FileName, *savePath)
		}
		if err := copyFile(target, destAbs); err != nil {
			return errors.Wrapf(err, "could not copy '%s' to '%s'", target, destAbs)
		}
		target = destAbs
	}

	if openInApplication != nil {
		cmd := exec.Command(*openInApplication, target)
		if err := cmd.Start(); err != nil {
			return errors.Wrapf(err, "could not launch '%s'", *openInApplication)
		}
	}
	return nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

// copyFileAtomic copies src to a scratch name alongside dest, named with
// a uuid so concurrent imports never collide, then renames it into
// place — import_file's atomicity requirement.
func copyFileAtomic(src, dest string) error {
	scratch := dest + "." + uuid.NewString() + ".tmp"
	if err := copyFile(src, scratch); err != nil {
		os.Remove(scratch)
		return err
	}
	if err := os.Rename(scratch, dest); err != nil {
		os.Remove(scratch)
		return err
	}
	return nil
}

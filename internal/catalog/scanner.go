package catalog

import (
	"os"
	"path/filepath"

	l "github.com/sirupsen/logrus"

	"gitlab.com/fidelxyz/soundmanager/internal/config"
	"gitlab.com/fidelxyz/soundmanager/internal/fsutil"
)

var scanLog *l.Entry = l.WithFields(l.Fields{"component": "scanner"})

// NewFolder describes a directory observed on disk with no matching
// sub-folder in the model yet. ParentPath identifies its parent by
// base-relative path rather than id, since a new folder's own parent may
// itself be new and not yet assigned a persisted id (resolved by the
// engine applying NewFolders in the order they appear here, which is
// always parent-before-child).
type NewFolder struct {
	ParentPath string
	Name       string
	AbsPath    string
}

// NewEntry describes an audio file observed on disk with no matching
// entry in the model yet.
type NewEntry struct {
	ParentPath string
	Name       string
	AbsPath    string
}

// FileDiff is the set difference between the filesystem and the model
// under one folder's subtree (spec.md §4.3).
type FileDiff struct {
	NewFolders     []NewFolder
	DeletedFolders []*Folder
	NewEntries     []NewEntry
	DeletedEntries []*Entry
	// SurvivingEntries are entries present both in the model and on disk
	// under the scanned subtree; applying a diff re-reads their metadata
	// (spec.md §4.3 step 3), since a modified file keeps the same name.
	SurvivingEntries []*Entry
}

func (d *FileDiff) empty() bool {
	return len(d.NewFolders) == 0 && len(d.DeletedFolders) == 0 &&
		len(d.NewEntries) == 0 && len(d.DeletedEntries) == 0
}

// FolderDiff is the folders-only counterpart of FileDiff, used to rebuild
// folder structure cheaply when the watcher reports an untrustworthy
// folder-create event (spec.md §4.3).
type FolderDiff struct {
	NewFolders     []NewFolder
	DeletedFolders []*Folder
}

// Scan walks the directory tree rooted at folder (an absolute base path
// plus the folder's own relative path) and produces the FileDiff against
// the model's current view of that subtree (spec.md §4.3).
func (m *Model) Scan(basePath string, folder *Folder) *FileDiff {
	diff := &FileDiff{}
	m.mu.RLock()
	defer m.mu.RUnlock()
	scanDir(m, basePath, folder, folder.Path, true, diff)
	return diff
}

// ScanFolders is the folders-only scan mode (spec.md §4.3, "folders-only
// scan").
func (m *Model) ScanFolders(basePath string, folder *Folder) *FolderDiff {
	diff := &FileDiff{}
	m.mu.RLock()
	defer m.mu.RUnlock()
	scanDir(m, basePath, folder, folder.Path, false, diff)
	return &FolderDiff{NewFolders: diff.NewFolders, DeletedFolders: diff.DeletedFolders}
}

// scanDir walks one directory level. real is the model's folder node at
// relPath if one already exists, or nil if relPath was itself just
// discovered as a new folder (in which case nothing under it can be
// classified "deleted", since the model has no prior view of it at all).
func scanDir(m *Model, basePath string, real *Folder, relPath string, withEntries bool, diff *FileDiff) {
	absPath := filepath.Join(basePath, relPath)

	dirents, err := os.ReadDir(absPath)
	if err != nil {
		scanLog.Warnf("could not read directory '%s': %v", absPath, err)
		return
	}

	seenFolders := make(map[string]bool, len(dirents))
	seenEntries := make(map[string]bool, len(dirents))

	for _, de := range dirents {
		name := de.Name()
		if config.IsHiddenName(name) {
			continue
		}
		childAbs := filepath.Join(absPath, name)
		childRel := filepath.Join(relPath, name)

		if de.IsDir() {
			seenFolders[name] = true
			if real != nil {
				if existingID, ok := real.SubFolders[name]; ok {
					scanDir(m, basePath, m.folders[existingID], childRel, withEntries, diff)
					continue
				}
			}
			diff.NewFolders = append(diff.NewFolders, NewFolder{
				ParentPath: relPath,
				Name:       name,
				AbsPath:    childAbs,
			})
			scanDir(m, basePath, nil, childRel, withEntries, diff)
			continue
		}

		if !withEntries {
			continue
		}
		ext := fsutil.ExtLower(name)
		if !config.IsAudioExt(ext) {
			continue
		}
		seenEntries[name] = true
		if real != nil {
			if existingID, ok := real.Entries[name]; ok {
				diff.SurvivingEntries = append(diff.SurvivingEntries, m.entries[existingID])
				continue
			}
		}
		diff.NewEntries = append(diff.NewEntries, NewEntry{
			ParentPath: relPath,
			Name:       name,
			AbsPath:    childAbs,
		})
	}

	if real == nil {
		return // nothing pre-existing under a brand-new folder can be "deleted"
	}
	for name, id := range real.SubFolders {
		if !seenFolders[name] {
			diff.DeletedFolders = append(diff.DeletedFolders, m.folders[id])
		}
	}
	if withEntries {
		for name, id := range real.Entries {
			if !seenEntries[name] {
				diff.DeletedEntries = append(diff.DeletedEntries, m.entries[id])
			}
		}
	}
}

// countAudioFiles is a standalone, model-independent recursive count of
// the non-hidden audio files under basePath — the number the set of
// entries must match after a scan (spec.md §8 invariant 4). No test in
// this package calls it.
func countAudioFiles(basePath string) (int, error) {
	n := 0
	err := filepath.Walk(basePath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		name := info.Name()
		if config.IsHiddenName(name) && path != basePath {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			return nil
		}
		if config.IsAudioExt(fsutil.ExtLower(name)) {
			n++
		}
		return nil
	})
	return n, err
}

// Package catalog implements the in-memory catalog model and the catalog
// engine that mutates it in lock-step with the persistent store: the
// folder/entry/tag graph, scanning and diffing, tag operations, filtering,
// file operations, and the filesystem watcher (spec.md §4.2–§4.7).
package catalog

import (
	"path/filepath"
	"strings"
	"sync"
)

// RootID is the sentinel id shared by the folder and tag roots.
const RootID int32 = -1

// Folder is the in-memory representation of a directory under the base
// path (spec.md §3).
type Folder struct {
	ID         int32
	ParentID   int32
	Name       string
	Path       string // relative to the base path; "" for the root
	SubFolders map[string]int32
	Entries    map[string]int32
}

// Entry is the in-memory representation of exactly one audio file on disk
// (spec.md §3).
type Entry struct {
	ID       int32
	FolderID int32
	FileName string
	Metadata *Metadata
	TagIDs   map[int32]struct{}
}

// pathIn reconstructs the entry's path relative to the base path from its
// folder's path and file name: paths are never persisted independently
// of folder_id + file_name, so they are always recomputed, never cached
// stale.
func (e *Entry) pathIn(m *Model) string {
	f := m.folders[e.FolderID]
	if f == nil {
		return e.FileName
	}
	return filepath.Join(f.Path, e.FileName)
}

// Tag is a user-defined labeling node in a tree rooted at RootID
// (spec.md §3).
type Tag struct {
	ID       int32
	ParentID int32
	Name     string
	Position int32
	Color    int32
	Children map[int32]struct{}
}

// Model is the in-memory folder/entry/tag graph plus the model guard —
// the many-readers/one-writer lock every catalog read and mutation
// acquires (spec.md §5).
type Model struct {
	mu sync.RWMutex

	folders map[int32]*Folder
	entries map[int32]*Entry
	tags    map[int32]*Tag

	tagNames map[string]int32 // name -> id, for O(1) uniqueness checks
}

// newModel creates an empty model with its folder and tag root sentinels
// seeded, per spec.md §4.2 ("created at open time").
func newModel(rootFolderName string) *Model {
	m := &Model{
		folders:  make(map[int32]*Folder),
		entries:  make(map[int32]*Entry),
		tags:     make(map[int32]*Tag),
		tagNames: make(map[string]int32),
	}
	m.folders[RootID] = &Folder{
		ID:         RootID,
		ParentID:   RootID,
		Name:       rootFolderName,
		Path:       "",
		SubFolders: make(map[string]int32),
		Entries:    make(map[string]int32),
	}
	m.tags[RootID] = &Tag{
		ID:       RootID,
		ParentID: RootID,
		Name:     "",
		Position: 0,
		Children: make(map[int32]struct{}),
	}
	return m
}

// Lock/Unlock/RLock/RUnlock expose the model guard directly to the engine,
// which must hold it across a mutation's model AND store writes (lock
// order model → store, spec.md §5).
func (m *Model) Lock()    { m.mu.Lock() }
func (m *Model) Unlock()  { m.mu.Unlock() }
func (m *Model) RLock()   { m.mu.RLock() }
func (m *Model) RUnlock() { m.mu.RUnlock() }

// Folder returns the folder with the given id, or nil if absent.
func (m *Model) Folder(id int32) *Folder {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.folders[id]
}

// Entry returns the entry with the given id, or nil if absent.
func (m *Model) Entry(id int32) *Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.entries[id]
}

// Tag returns the tag with the given id, or nil if absent.
func (m *Model) Tag(id int32) *Tag {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tags[id]
}

// EntryPath returns e's path relative to the base path.
func (m *Model) EntryPath(e *Entry) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return e.pathIn(m)
}

// Entries returns every entry in the model, in no particular order.
func (m *Model) Entries() []*Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	return out
}

// ChildFolders returns the direct sub-folders of parent.
func (m *Model) ChildFolders(parent int32) []*Folder {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f := m.folders[parent]
	if f == nil {
		return nil
	}
	out := make([]*Folder, 0, len(f.SubFolders))
	for _, id := range f.SubFolders {
		out = append(out, m.folders[id])
	}
	return out
}

// ChildEntries returns the direct entries of folder.
func (m *Model) ChildEntries(folder int32) []*Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f := m.folders[folder]
	if f == nil {
		return nil
	}
	out := make([]*Entry, 0, len(f.Entries))
	for _, id := range f.Entries {
		out = append(out, m.entries[id])
	}
	return out
}

// ChildTags returns the children of a tag, ordered by position.
func (m *Model) ChildTags(parent int32) []*Tag {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t := m.tags[parent]
	if t == nil {
		return nil
	}
	out := make([]*Tag, 0, len(t.Children))
	for id := range t.Children {
		out = append(out, m.tags[id])
	}
	sortTagsByPosition(out)
	return out
}

func sortTagsByPosition(tags []*Tag) {
	for i := 1; i < len(tags); i++ {
		for j := i; j > 0 && tags[j].Position < tags[j-1].Position; j-- {
			tags[j], tags[j-1] = tags[j-1], tags[j]
		}
	}
}

// FolderByPath resolves a base-relative path to a folder by walking path
// components from the root, per spec.md §4.2.
func (m *Model) FolderByPath(relPath string) (*Folder, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cur := m.folders[RootID]
	if relPath == "" || relPath == "." {
		return cur, true
	}
	for _, comp := range strings.Split(filepath.ToSlash(relPath), "/") {
		if comp == "" {
			continue
		}
		id, ok := cur.SubFolders[comp]
		if !ok {
			return nil, false
		}
		cur = m.folders[id]
		if cur == nil {
			return nil, false
		}
	}
	return cur, true
}

// EntryByPath resolves a base-relative file path to an entry.
func (m *Model) EntryByPath(relPath string) (*Entry, bool) {
	dir, file := filepath.Split(filepath.ToSlash(relPath))
	dir = strings.TrimSuffix(dir, "/")

	m.mu.RLock()
	defer m.mu.RUnlock()

	cur := m.folders[RootID]
	if dir != "" {
		for _, comp := range strings.Split(dir, "/") {
			if comp == "" {
				continue
			}
			id, ok := cur.SubFolders[comp]
			if !ok {
				return nil, false
			}
			cur = m.folders[id]
			if cur == nil {
				return nil, false
			}
		}
	}
	id, ok := cur.Entries[file]
	if !ok {
		return nil, false
	}
	return m.entries[id], true
}

// tagDescendants returns the transitive closure of tag ids under (and
// including) root, used by both delete_tag and the filter's
// include_child_tags expansion.
func (m *Model) tagDescendants(root int32) map[int32]struct{} {
	out := map[int32]struct{}{root: {}}
	var walk func(int32)
	walk = func(id int32) {
		t := m.tags[id]
		if t == nil {
			return
		}
		for child := range t.Children {
			if _, seen := out[child]; seen {
				continue
			}
			out[child] = struct{}{}
			walk(child)
		}
	}
	walk(root)
	return out
}

// folderDescendants returns the transitive closure of folder ids under
// (and including) root, used by move/delete and the filter's
// include_subfolders expansion.
func (m *Model) folderDescendants(root int32) map[int32]struct{} {
	out := map[int32]struct{}{root: {}}
	var walk func(int32)
	walk = func(id int32) {
		f := m.folders[id]
		if f == nil {
			return
		}
		for _, child := range f.SubFolders {
			if _, seen := out[child]; seen {
				continue
			}
			out[child] = struct{}{}
			walk(child)
		}
	}
	walk(root)
	return out
}

// insertFolder adds a new folder node to the model. Caller must hold the
// write lock and must have already persisted the row and obtained its id.
func (m *Model) insertFolder(id, parentID int32, name string) *Folder {
	parent := m.folders[parentID]
	f := &Folder{
		ID:         id,
		ParentID:   parentID,
		Name:       name,
		Path:       filepath.Join(parent.Path, name),
		SubFolders: make(map[string]int32),
		Entries:    make(map[string]int32),
	}
	m.folders[id] = f
	parent.SubFolders[name] = id
	return f
}

// removeFolder detaches a folder (and, recursively, its descendants) from
// its parent and from the model's maps. Caller must hold the write lock.
func (m *Model) removeFolder(id int32) {
	f := m.folders[id]
	if f == nil {
		return
	}
	for _, childID := range f.SubFolders {
		m.removeFolder(childID)
	}
	for _, entryID := range f.Entries {
		m.removeEntry(entryID)
	}
	if parent := m.folders[f.ParentID]; parent != nil {
		delete(parent.SubFolders, f.Name)
	}
	delete(m.folders, id)
}

// insertEntry adds a new entry node to the model.
func (m *Model) insertEntry(id, folderID int32, fileName string) *Entry {
	e := &Entry{
		ID:       id,
		FolderID: folderID,
		FileName: fileName,
		TagIDs:   make(map[int32]struct{}),
	}
	m.entries[id] = e
	if f := m.folders[folderID]; f != nil {
		f.Entries[fileName] = id
	}
	return e
}

// removeEntry detaches an entry from its folder and from the model.
func (m *Model) removeEntry(id int32) {
	e := m.entries[id]
	if e == nil {
		return
	}
	if f := m.folders[e.FolderID]; f != nil {
		delete(f.Entries, e.FileName)
	}
	delete(m.entries, id)
}

// insertTag adds a new tag node as a child of parentID.
func (m *Model) insertTag(id, parentID int32, name string, position, color int32) *Tag {
	t := &Tag{
		ID:       id,
		ParentID: parentID,
		Name:     name,
		Position: position,
		Color:    color,
		Children: make(map[int32]struct{}),
	}
	m.tags[id] = t
	m.tagNames[name] = id
	if parent := m.tags[parentID]; parent != nil {
		parent.Children[id] = struct{}{}
	}
	return t
}

// removeTag detaches a tag (and recursively its descendants) from its
// parent and from every entry's tag set.
func (m *Model) removeTag(id int32) {
	t := m.tags[id]
	if t == nil {
		return
	}
	for childID := range t.Children {
		m.removeTag(childID)
	}
	if parent := m.tags[t.ParentID]; parent != nil {
		delete(parent.Children, id)
	}
	delete(m.tagNames, t.Name)
	delete(m.tags, id)
	for _, e := range m.entries {
		delete(e.TagIDs, id)
	}
}

// nearestFolder returns the model folder at relDir, or (walking upward)
// the nearest ancestor directory that is present in the model. Used by
// the watcher to find a safe rescan root when an event names a path the
// model doesn't know about yet (spec.md §4.7).
func (m *Model) nearestFolder(relDir string) *Folder {
	for {
		if f, ok := m.FolderByPath(relDir); ok {
			return f
		}
		if relDir == "" || relDir == "." {
			return m.Folder(RootID)
		}
		relDir = filepath.Dir(relDir)
		if relDir == "." {
			relDir = ""
		}
	}
}

// pathIndex builds a relative-path -> folder-id map of the current model,
// used by the engine to resolve a FileDiff's ParentPath references while
// applying new folders top-down. Caller must hold the lock.
func (m *Model) pathIndex() map[string]int32 {
	out := make(map[string]int32, len(m.folders))
	for id, f := range m.folders {
		out[f.Path] = id
	}
	return out
}

// rebuildPaths recomputes Path for folder id and every descendant,
// following a move. Must be called with the model write lock held.
func (m *Model) rebuildPaths(id int32) {
	f := m.folders[id]
	if f == nil {
		return
	}
	parent := m.folders[f.ParentID]
	if parent != nil && id != RootID {
		f.Path = filepath.Join(parent.Path, f.Name)
	}
	for _, childID := range f.SubFolders {
		m.rebuildPaths(childID)
	}
}

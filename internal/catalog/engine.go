package catalog

import (
	"database/sql"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/fwojciec/clock"
	l "github.com/sirupsen/logrus"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"gitlab.com/fidelxyz/soundmanager/internal/config"
	"gitlab.com/fidelxyz/soundmanager/internal/emitter"
	"gitlab.com/fidelxyz/soundmanager/internal/store"
)

var engineLog *l.Entry = l.WithFields(l.Fields{"component": "catalog"})

// Catalog wires the in-memory model, the persistent store, the metadata
// probe and the filesystem watcher together (spec.md §2's "Catalog
// Engine", SPEC_FULL.md §5.2's engine.go).
type Catalog struct {
	cfg   config.Cfg
	clk   clock.Clock
	model *Model
	store *store.Store
	em    *emitter.Coalescer

	watcher *watcher
}

// Create initializes a brand-new store at cfg.BasePath and opens it.
func Create(cfg config.Cfg, em emitter.Emitter, clk clock.Clock) (*Catalog, error) {
	return open(cfg, em, clk, true)
}

// Open opens an existing store at cfg.BasePath.
func Open(cfg config.Cfg, em emitter.Emitter, clk clock.Clock) (*Catalog, error) {
	return open(cfg, em, clk, false)
}

func open(cfg config.Cfg, em emitter.Emitter, clk clock.Clock, create bool) (*Catalog, error) {
	if clk == nil {
		clk = clock.New()
	}
	dbPath := filepath.Join(cfg.BasePath, config.DatabaseFileName)

	var s *store.Store
	var err error
	if create {
		s, err = store.Create(dbPath, cfg.Store.Retention, clk)
	} else {
		s, err = store.Open(dbPath, cfg.Store.Retention, clk)
	}
	if err != nil {
		return nil, err
	}

	if err := s.Prune(); err != nil {
		engineLog.Warnf("prune on open failed: %v", err)
	}

	model, err := loadModel(s, filepath.Base(cfg.BasePath))
	if err != nil {
		s.Close()
		return nil, err
	}

	c := &Catalog{
		cfg:   cfg,
		clk:   clk,
		model: model,
		store: s,
		em:    emitter.NewCoalescer(em, cfg.Watcher.Quiescence),
	}

	// spec.md §3 lifecycle: "on next open the model is repopulated from
	// the filesystem, and any store row without a matching filesystem
	// artifact is marked deleted" — reconcile immediately.
	if err := c.Refresh(); err != nil {
		engineLog.Warnf("initial refresh failed: %v", err)
	}

	w, err := startWatcher(c)
	if err != nil {
		engineLog.Warnf("could not start filesystem watcher: %v", err)
	}
	c.watcher = w

	return c, nil
}

// loadModel rebuilds the in-memory model from the store's persisted rows.
func loadModel(s *store.Store, rootFolderName string) (*Model, error) {
	m := newModel(rootFolderName)

	folders, err := s.LoadFolders()
	if err != nil {
		return nil, err
	}
	// folders are loaded in id order, but a folder moved under a newer
	// folder has a smaller id than its parent, so each folder's ancestors
	// are inserted first; the root is seeded by newModel.
	byID := make(map[int32]store.FolderRow, len(folders))
	for _, f := range folders {
		byID[f.ID] = f
	}
	var insert func(f store.FolderRow)
	insert = func(f store.FolderRow) {
		if p, ok := byID[f.Parent]; ok && m.folders[f.Parent] == nil {
			insert(p)
		}
		if m.folders[f.ID] == nil && m.folders[f.Parent] != nil {
			m.insertFolder(f.ID, f.Parent, f.Name)
		}
	}
	for _, f := range folders {
		if f.ID == store.RootID {
			continue
		}
		insert(f)
	}

	tags, err := s.LoadTags()
	if err != nil {
		return nil, err
	}
	for _, t := range tags {
		if t.ID == store.RootID {
			continue
		}
		m.insertTag(t.ID, t.Parent, t.Name, t.Position, t.Color)
	}
	// a tag reparented under a tag loaded after it is linked here, once
	// every tag is present.
	for id, t := range m.tags {
		if p := m.tags[t.ParentID]; p != nil && id != RootID {
			p.Children[id] = struct{}{}
		}
	}

	entries, err := s.LoadEntries()
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		m.insertEntry(e.ID, e.FolderID, e.FileName)
	}

	entryTags, err := s.LoadEntryTags()
	if err != nil {
		return nil, err
	}
	for _, et := range entryTags {
		if entry := m.entries[et.EntryID]; entry != nil && m.tags[et.TagID] != nil {
			entry.TagIDs[et.TagID] = struct{}{}
		}
	}

	return m, nil
}

// Model exposes the in-memory model for read-only callers (the CLI,
// tests).
func (c *Catalog) Model() *Model { return c.model }

// BasePath returns the absolute directory this catalog manages.
func (c *Catalog) BasePath() string { return c.cfg.BasePath }

// AbsPath joins the base path with a model-relative path.
func (c *Catalog) AbsPath(relPath string) string {
	return filepath.Join(c.cfg.BasePath, relPath)
}

// Close releases the watcher and store resources (spec.md §5's resource
// scoping, guaranteed on every exit path).
func (c *Catalog) Close() error {
	if c.watcher != nil {
		c.watcher.stop()
	}
	c.em.Stop()
	return c.store.Close()
}

// WriteStatus writes a human-readable snapshot of the catalog's size and
// memory consumption to w, for the CLI's status report.
func (c *Catalog) WriteStatus(w io.Writer) {
	c.model.RLock()
	folders := len(c.model.folders)
	entries := len(c.model.entries)
	tags := len(c.model.tags)
	c.model.RUnlock()

	fmt.Fprint(w, "Catalog:\n")
	fmt.Fprintf(w, "    %6d folders\n", folders)
	fmt.Fprintf(w, "    %6d entries\n", entries)
	fmt.Fprintf(w, "    %6d tags\n\n", tags)

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	message.NewPrinter(language.English).Fprintf(w, "    Memory consumption: %d Bytes\n", m.HeapAlloc)
}

// Refresh performs a full recursive scan from the root folder and applies
// the resulting diff — the command surface's `refresh` operation.
func (c *Catalog) Refresh() error {
	root := c.model.Folder(RootID)
	diff := c.model.Scan(c.cfg.BasePath, root)
	return c.applyFileDiff(diff)
}

// applyFileDiff performs the five ordered steps of spec.md §4.3 "Applying
// a diff" inside one store transaction, then mutates the model to match.
func (c *Catalog) applyFileDiff(diff *FileDiff) error {
	if diff.empty() && len(diff.SurvivingEntries) == 0 {
		return nil
	}

	now := c.clk.Now()
	c.model.Lock()
	defer c.model.Unlock()

	cardinality := len(c.model.folders) + len(c.model.entries)
	batched := float64(len(diff.NewFolders)+len(diff.NewEntries)) > c.cfg.Scanning.BatchThresholdRatio*float64(max1(cardinality))

	var folderIDs map[string]int32 // parent-path+"/"+name -> store id, batched pre-fetch
	var entryIDs map[string]int32
	var pathIdx map[string]int32
	newEntryIDs := make(map[int]int32, len(diff.NewEntries)) // index in diff.NewEntries -> store id

	err := c.store.WithTx(func(tx *sql.Tx) error {
		// (1) remove deleted entries
		for _, e := range diff.DeletedEntries {
			if err := store.SoftDeleteEntry(tx, e.ID, now); err != nil {
				return err
			}
		}
		// (2) remove deleted folders recursively (cascades their entries
		// at the model level; store rows are soft-deleted individually)
		for _, f := range diff.DeletedFolders {
			if err := softDeleteFolderSubtree(tx, c.model, f.ID, now); err != nil {
				return err
			}
		}

		if batched {
			var err error
			folderIDs, entryIDs, err = c.prefetchBatch(tx, diff)
			if err != nil {
				return err
			}
		}

		// (4) add new folders, parent-before-child (scanner guarantees
		// this order in diff.NewFolders).
		pathIdx = c.model.pathIndex()
		for _, nf := range diff.NewFolders {
			parentID, ok := pathIdx[nf.ParentPath]
			if !ok {
				engineLog.Warnf("skipping new folder '%s': parent path '%s' not resolved", nf.Name, nf.ParentPath)
				continue
			}
			id, restored, err := resolveFolder(tx, folderIDs, parentID, nf.Name)
			if err != nil {
				return err
			}
			pathIdx[filepath.Join(nf.ParentPath, nf.Name)] = id
			_ = restored
		}

		// (5) add new entries
		for i, ne := range diff.NewEntries {
			parentID, ok := pathIdx[ne.ParentPath]
			if !ok {
				engineLog.Warnf("skipping new entry '%s': parent path '%s' not resolved", ne.Name, ne.ParentPath)
				continue
			}
			id, _, err := resolveEntry(tx, entryIDs, parentID, ne.Name)
			if err != nil {
				return err
			}
			newEntryIDs[i] = id
		}
		return nil
	})
	if err != nil {
		return err
	}

	// model-side removal and addition, after the store transaction committed
	for _, e := range diff.DeletedEntries {
		c.model.removeEntry(e.ID)
	}
	for _, f := range diff.DeletedFolders {
		c.model.removeFolder(f.ID)
	}
	for _, nf := range diff.NewFolders {
		if id, ok := pathIdx[filepath.Join(nf.ParentPath, nf.Name)]; ok {
			c.model.insertFolder(id, pathIdx[nf.ParentPath], nf.Name)
		}
	}
	for i, ne := range diff.NewEntries {
		if id, ok := newEntryIDs[i]; ok {
			e := c.model.insertEntry(id, pathIdx[ne.ParentPath], ne.Name)
			e.Metadata, _ = ProbeMetadata(ne.AbsPath)
		}
	}

	// (3) re-read metadata of every surviving entry
	for _, e := range diff.SurvivingEntries {
		md, err := ProbeMetadata(c.AbsPath(e.pathIn(c.model)))
		if err != nil {
			engineLog.Warnf("could not refresh metadata for '%s': %v", e.FileName, err)
			continue
		}
		e.Metadata = md
	}

	return nil
}

func max1(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// prefetchBatch implements spec.md §4.3's adaptive batching: one query per
// table pulling every candidate (parent, name) row, instead of one lookup
// per new item.
func (c *Catalog) prefetchBatch(tx *sql.Tx, diff *FileDiff) (map[string]int32, map[string]int32, error) {
	parentSet := map[int32]struct{}{}
	pathIdx := c.model.pathIndex()
	for _, nf := range diff.NewFolders {
		if id, ok := pathIdx[nf.ParentPath]; ok {
			parentSet[id] = struct{}{}
		}
	}
	for _, ne := range diff.NewEntries {
		if id, ok := pathIdx[ne.ParentPath]; ok {
			parentSet[id] = struct{}{}
		}
	}
	parents := make([]int32, 0, len(parentSet))
	for id := range parentSet {
		parents = append(parents, id)
	}

	folderRows, err := store.FoldersByParents(tx, parents)
	if err != nil {
		return nil, nil, err
	}
	entryRows, err := store.EntriesByFolders(tx, parents)
	if err != nil {
		return nil, nil, err
	}

	folderIDs := make(map[string]int32, len(folderRows))
	for _, r := range folderRows {
		folderIDs[batchKey(r.Parent, r.Name)] = r.ID
	}
	entryIDs := make(map[string]int32, len(entryRows))
	for _, r := range entryRows {
		entryIDs[batchKey(r.FolderID, r.FileName)] = r.ID
	}
	return folderIDs, entryIDs, nil
}

func batchKey(parent int32, name string) string {
	return strconv.Itoa(int(parent)) + "/" + name
}

// resolveFolder either restores a soft-deleted folder row with this
// (parent, name), or inserts a new one, per spec.md §4.3: "addition
// either inserts a new row or restores a soft-deleted row if (parent,
// name) already exists."
func resolveFolder(tx *sql.Tx, batch map[string]int32, parent int32, name string) (int32, bool, error) {
	if batch != nil {
		if id, ok := batch[batchKey(parent, name)]; ok {
			return id, true, store.RestoreFolder(tx, id)
		}
		id, err := store.InsertFolder(tx, parent, name)
		return id, false, err
	}
	row, ok, err := store.FindFolder(tx, parent, name)
	if err != nil {
		return 0, false, err
	}
	if ok {
		return row.ID, true, store.RestoreFolder(tx, row.ID)
	}
	id, err := store.InsertFolder(tx, parent, name)
	return id, false, err
}

func resolveEntry(tx *sql.Tx, batch map[string]int32, folderID int32, name string) (int32, bool, error) {
	if batch != nil {
		if id, ok := batch[batchKey(folderID, name)]; ok {
			return id, true, store.RestoreEntry(tx, id)
		}
		id, err := store.InsertEntry(tx, folderID, name)
		return id, false, err
	}
	row, ok, err := store.FindEntry(tx, folderID, name)
	if err != nil {
		return 0, false, err
	}
	if ok {
		return row.ID, true, store.RestoreEntry(tx, row.ID)
	}
	id, err := store.InsertEntry(tx, folderID, name)
	return id, false, err
}

// softDeleteFolderSubtree soft-deletes folder id and every descendant
// folder and entry, reading the subtree shape from the model (which is
// still intact at this point in applyFileDiff).
func softDeleteFolderSubtree(tx *sql.Tx, m *Model, id int32, t time.Time) error {
	f := m.folders[id]
	if f == nil {
		return nil
	}
	for _, childID := range f.SubFolders {
		if err := softDeleteFolderSubtree(tx, m, childID, t); err != nil {
			return err
		}
	}
	for _, entryID := range f.Entries {
		if err := store.SoftDeleteEntry(tx, entryID, t); err != nil {
			return err
		}
	}
	return store.SoftDeleteFolder(tx, id, t)
}

package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rjeczalik/notify"
	l "github.com/sirupsen/logrus"

	"gitlab.com/fidelxyz/soundmanager/internal/config"
)

var watcherLog *l.Entry = l.WithFields(l.Fields{"component": "watcher"})

// needRescanThreshold is the batch size past which the watcher gives up
// on classifying individual events and falls back to a full scan —
// spec.md §4.7's "need_rescan flag short-circuits the current batch into
// a full scan".
const needRescanThreshold = 200

// watcher is the dedicated worker thread that consumes filesystem events
// and translates them into Catalog Engine operations (spec.md §4.7).
type watcher struct {
	c      *Catalog
	events chan notify.EventInfo
	stopCh chan struct{}
	doneCh chan struct{}
}

// startWatcher installs a recursive, debounced watch on the catalog's
// base path and starts its worker goroutine.
func startWatcher(c *Catalog) (*watcher, error) {
	events := make(chan notify.EventInfo, 512)
	if err := notify.Watch(
		filepath.Join(c.cfg.BasePath, "..."),
		events,
		notify.Create, notify.Remove, notify.Write, notify.Rename,
	); err != nil {
		return nil, err
	}

	w := &watcher{
		c:      c,
		events: events,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// stop ends the worker thread; a separate stop channel signals shutdown
// on database close, per spec.md §4.7/§5.
func (w *watcher) stop() {
	close(w.stopCh)
	notify.Stop(w.events)
	<-w.doneCh
}

func (w *watcher) run() {
	defer close(w.doneCh)

	debounce := w.c.cfg.Watcher.Debounce
	var batch []notify.EventInfo
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case ev, ok := <-w.events:
			if !ok {
				return
			}
			batch = append(batch, ev)
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
			}

		case <-timerC:
			w.process(batch)
			batch = nil
			timer = nil
			timerC = nil

		case <-w.stopCh:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// process classifies one debounced batch of raw events into Catalog
// Engine operations (spec.md §4.7).
func (w *watcher) process(batch []notify.EventInfo) {
	if len(batch) > needRescanThreshold {
		watcherLog.Warnf("event batch of %d exceeds threshold, forcing full rescan", len(batch))
		if err := w.c.Refresh(); err != nil {
			watcherLog.Errorf("full rescan failed: %v", err)
			return
		}
		w.c.em.FilesUpdated(true)
		return
	}

	// dedupe the directories this batch asks us to rescan, so a burst of
	// events under one directory triggers one scan instead of N.
	rescanDirs := make(map[string]struct{})
	foldersOnlyDirs := make(map[string]struct{})
	removals := make(map[string]struct{})

	for _, ev := range batch {
		rel, ok := w.relPath(ev.Path())
		if !ok {
			continue
		}
		info, err := os.Stat(ev.Path())
		switch {
		case err == nil && info.IsDir():
			// folder create/rename target: untrusted, folders-only scan
			// (spec.md §4.7).
			foldersOnlyDirs[rel] = struct{}{}
		case err == nil:
			rescanDirs[filepath.Dir(rel)] = struct{}{}
		default:
			removals[rel] = struct{}{}
		}
	}

	changed := false
	for dir := range foldersOnlyDirs {
		if w.rescanFrom(dir, true) {
			changed = true
		}
	}
	for dir := range rescanDirs {
		if w.rescanFrom(dir, false) {
			changed = true
		}
	}
	for rel := range removals {
		if w.removeByRelPath(rel) {
			changed = true
		}
	}

	if changed {
		w.c.em.FilesUpdated(false)
	}
}

// relPath converts an absolute event path to a base-relative path,
// rejecting paths outside the base directory and anything under a hidden
// component (spec.md's hidden-file recognition applies at every level).
func (w *watcher) relPath(absPath string) (string, bool) {
	rel, err := filepath.Rel(w.c.cfg.BasePath, absPath)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	for _, comp := range strings.Split(filepath.ToSlash(rel), "/") {
		if config.IsHiddenName(comp) {
			return "", false
		}
	}
	return rel, true
}

// rescanFrom re-scans the model folder nearest dirRel (walking upward if
// dirRel itself isn't known yet) and applies the resulting diff.
func (w *watcher) rescanFrom(dirRel string, foldersOnly bool) bool {
	folder := w.c.model.nearestFolder(dirRel)

	var diff *FileDiff
	if foldersOnly {
		fd := w.c.model.ScanFolders(w.c.cfg.BasePath, folder)
		diff = &FileDiff{NewFolders: fd.NewFolders, DeletedFolders: fd.DeletedFolders}
	} else {
		diff = w.c.model.Scan(w.c.cfg.BasePath, folder)
	}
	if diff.empty() && len(diff.SurvivingEntries) == 0 {
		return false
	}
	if err := w.c.applyFileDiff(diff); err != nil {
		watcherLog.Errorf("applying watcher diff for '%s' failed: %v", dirRel, err)
		return false
	}
	return true
}

// removeByRelPath handles the "gone" case: the path no longer exists, so
// its kind (file vs directory) must be recovered from the model rather
// than from a stat call. If neither an entry nor a folder is found this
// is a watcher-internal "not found for path" situation (spec.md §7):
// logged and skipped, never surfaced.
func (w *watcher) removeByRelPath(rel string) bool {
	if entry, ok := w.c.model.EntryByPath(rel); ok {
		if err := w.c.applyFileDiff(&FileDiff{DeletedEntries: []*Entry{entry}}); err != nil {
			watcherLog.Errorf("removing entry '%s' failed: %v", rel, err)
			return false
		}
		return true
	}
	if folder, ok := w.c.model.FolderByPath(rel); ok {
		if err := w.c.applyFileDiff(&FileDiff{DeletedFolders: []*Folder{folder}}); err != nil {
			watcherLog.Errorf("removing folder '%s' failed: %v", rel, err)
			return false
		}
		return true
	}
	watcherLog.Tracef("no entry or folder found for removed path '%s'", rel)
	return false
}

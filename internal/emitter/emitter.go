// Package emitter defines the catalog's outward notification surface
// (spec.md §6) and a coalescing implementation that merges bursts of
// change notifications into immediate/delayed deliveries (spec.md §4.7).
package emitter

import (
	"sync"
	"time"
)

// PlayerState is the playback snapshot forwarded to OnPlayerStateUpdated.
type PlayerState struct {
	Playing bool
	Pos     float32
}

// Emitter is the external UI bridge the catalog, watcher and playback
// engine report changes to (spec.md §6).
type Emitter interface {
	OnFilesUpdated(immediate bool)
	OnPlayerStateUpdated(state PlayerState)
}

// Coalescer wraps an Emitter, merging bursts of OnFilesUpdated calls: an
// immediate call flushes right away; a delayed call is held until
// quiescence (no further call) for the configured window, per spec.md
// §4.7's "delayed: flushed after a ~500ms quiescence window".
type Coalescer struct {
	next       Emitter
	quiescence time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending bool
	stopped bool
}

// NewCoalescer wraps next with a quiescence-window coalescer.
func NewCoalescer(next Emitter, quiescence time.Duration) *Coalescer {
	return &Coalescer{next: next, quiescence: quiescence}
}

// FilesUpdated records a files-changed notification at the given urgency.
// immediate=true flushes synchronously; immediate=false (re)starts the
// quiescence timer, so a burst of delayed notifications collapses into
// one flush after the last one settles.
func (c *Coalescer) FilesUpdated(immediate bool) {
	if immediate {
		c.mu.Lock()
		if c.timer != nil {
			c.timer.Stop()
			c.timer = nil
		}
		c.pending = false
		c.mu.Unlock()
		c.next.OnFilesUpdated(true)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.pending = true
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.quiescence, c.flush)
}

func (c *Coalescer) flush() {
	c.mu.Lock()
	if !c.pending || c.stopped {
		c.mu.Unlock()
		return
	}
	c.pending = false
	c.mu.Unlock()
	c.next.OnFilesUpdated(false)
}

// PlayerStateUpdated forwards a playback state change unchanged; the
// playback worker already throttles these to its own 100ms poll.
func (c *Coalescer) PlayerStateUpdated(state PlayerState) {
	c.next.OnPlayerStateUpdated(state)
}

// Stop cancels any pending delayed flush, e.g. on database close.
func (c *Coalescer) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

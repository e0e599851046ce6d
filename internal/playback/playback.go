// Package playback implements the Playback Engine (spec.md §4.8): a
// single long-lived worker that owns the speaker sink, driven by a small
// state machine (Idle → Loaded → Playing ⇄ Paused), with a 100ms poll
// that detects source end and reports it through the emitter.
package playback

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
	"github.com/pkg/errors"
	l "github.com/sirupsen/logrus"

	"gitlab.com/fidelxyz/soundmanager/internal/emitter"
)

var log *l.Entry = l.WithFields(l.Fields{"component": "playback"})

// pollInterval is how often the worker checks for source end (spec.md
// §4.8: "the worker polls the sink every 100 ms").
const pollInterval = 100 * time.Millisecond

// speakerBufferSize is the sample buffer speaker.Init is configured with;
// smaller values lower latency at the cost of dropout risk.
const speakerBufferSize = 4096

// State is a node of the playback state machine (spec.md §4.8).
type State int

const (
	Idle State = iota
	Loaded
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loaded:
		return "loaded"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

// Player is the Playback Engine's public surface: set_source, play,
// pause, stop, set_volume, get_pos (spec.md §4.8). Its sink guard is
// independent of the catalog model and store guards — Player never
// imports internal/store and only ever receives an absolute path.
type Player struct {
	em emitter.Emitter

	mu           sync.RWMutex
	state        State
	path         string
	streamer     beep.StreamSeekCloser
	format       beep.Format
	ctrl         *beep.Ctrl
	volume       *effects.Volume
	firstTransit time.Duration
	duration     time.Duration

	speakerReady bool
	ended        atomic.Bool
	closeOnce    sync.Once
	stopCh       chan struct{}
}

// New creates a Player and starts its polling worker.
func New(em emitter.Emitter) *Player {
	p := &Player{em: em, state: Idle, stopCh: make(chan struct{})}
	go p.poll()
	return p
}

// Close stops the polling worker and releases the current source.
func (p *Player) Close() {
	p.closeOnce.Do(func() { close(p.stopCh) })
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.streamer != nil {
		p.streamer.Close()
	}
}

// State returns the player's current state machine node.
func (p *Player) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// SetSource loads absPath as the current source: it clears any existing
// playback, decodes the file, probes its first-transit position, and
// transitions to Loaded (spec.md §4.8).
func (p *Player) SetSource(absPath string) error {
	f, err := os.Open(absPath)
	if err != nil {
		return errors.Wrapf(err, "cannot open '%s'", absPath)
	}
	streamer, format, err := decodeByExt(f, absPath)
	if err != nil {
		f.Close()
		return err
	}

	firstTransit := probeFirstTransit(streamer, format)
	if err := streamer.Seek(0); err != nil {
		streamer.Close()
		return errors.Wrapf(err, "cannot rewind '%s'", absPath)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.streamer != nil {
		p.streamer.Close()
	}

	if !p.speakerReady || p.format.SampleRate != format.SampleRate {
		if err := speaker.Init(format.SampleRate, speakerBufferSize); err != nil {
			streamer.Close()
			return errors.Wrap(err, "could not initialize audio output")
		}
		p.speakerReady = true
	}

	ctrl := &beep.Ctrl{Streamer: streamer, Paused: true}
	vol := &effects.Volume{Streamer: ctrl, Base: 2}
	if p.volume != nil {
		vol.Volume = p.volume.Volume
	}

	p.path = absPath
	p.streamer = streamer
	p.format = format
	p.ctrl = ctrl
	p.volume = vol
	p.firstTransit = firstTransit
	p.duration = format.SampleRate.D(streamer.Len())
	p.state = Loaded
	p.ended.Store(false)
	return nil
}

// Play resumes or starts playback, optionally seeking first. skipSilence
// seeks to max(seek, firstTransit) (spec.md §4.8).
func (p *Player) Play(seek *time.Duration, skipSilence bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == Idle {
		return errors.New("no source loaded")
	}

	pos := seek
	if skipSilence {
		if pos == nil || *pos < p.firstTransit {
			ft := p.firstTransit
			pos = &ft
		}
	}
	if pos != nil {
		frame := p.format.SampleRate.N(*pos)
		if frame > p.streamer.Len() {
			frame = p.streamer.Len()
		}
		if err := p.streamer.Seek(frame); err != nil {
			return errors.Wrap(err, "could not seek")
		}
	}

	wasLoaded := p.state == Loaded
	p.ended.Store(false)
	speaker.Lock()
	p.ctrl.Paused = false
	speaker.Unlock()

	if wasLoaded {
		done := &p.ended
		speaker.Play(beep.Seq(p.volume, beep.Callback(func() {
			done.Store(true)
		})))
	}
	p.state = Playing
	return nil
}

// Pause pauses playback in place (spec.md §4.8).
func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != Playing {
		return errors.New("not playing")
	}
	speaker.Lock()
	p.ctrl.Paused = true
	speaker.Unlock()
	p.state = Paused
	return nil
}

// Stop halts playback and rewinds to the start (spec.md §4.8).
func (p *Player) Stop() error {
	p.mu.Lock()
	if p.state != Playing && p.state != Paused {
		p.mu.Unlock()
		return nil
	}
	speaker.Lock()
	p.ctrl.Paused = true
	p.mu.Unlock()
	err := p.streamer.Seek(0)
	speaker.Unlock()
	if err != nil {
		return errors.Wrap(err, "could not rewind")
	}

	p.mu.Lock()
	p.state = Loaded
	p.mu.Unlock()
	p.em.OnPlayerStateUpdated(emitter.PlayerState{Playing: false, Pos: 0})
	return nil
}

// SetVolume sets the gain applied to the current source (spec.md §4.8).
// v is a base-2 log scale, matching effects.Volume's convention.
func (p *Player) SetVolume(v float64) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.volume == nil {
		return
	}
	speaker.Lock()
	p.volume.Volume = v
	speaker.Unlock()
}

// GetPos returns the current playback position within the source.
func (p *Player) GetPos() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.streamer == nil {
		return 0
	}
	speaker.Lock()
	pos := p.streamer.Position()
	speaker.Unlock()
	return p.format.SampleRate.D(pos)
}

// poll runs for the Player's lifetime, checking every pollInterval
// whether the current source has drained, and if so transitioning back
// to Loaded and reporting a playing=false, pos=0 state (spec.md §4.8).
func (p *Player) poll() {
	t := time.NewTicker(pollInterval)
	defer t.Stop()
	for {
		select {
		case <-p.stopCh:
			return
		case <-t.C:
			if !p.ended.CompareAndSwap(true, false) {
				continue
			}
			p.mu.Lock()
			if p.state == Playing {
				if p.streamer != nil {
					speaker.Lock()
					p.streamer.Seek(0)
					speaker.Unlock()
				}
				p.state = Loaded
			}
			p.mu.Unlock()
			p.em.OnPlayerStateUpdated(emitter.PlayerState{Playing: false, Pos: 0})
		}
	}
}

// probeFirstTransit scans the decoded stream for its first non-zero
// sample across either channel, returning the duration of silence before
// it. This mirrors the original packet-scan, but against beep's
// normalized float64 samples rather than raw i16 PCM — the one semantic
// adaptation forced by using a Go-native decoder.
func probeFirstTransit(streamer beep.StreamSeekCloser, format beep.Format) time.Duration {
	buf := make([][2]float64, 2048)
	frame := 0
	for {
		n, ok := streamer.Stream(buf)
		for i := 0; i < n; i++ {
			if buf[i][0] != 0 || buf[i][1] != 0 {
				return format.SampleRate.D(frame + i)
			}
		}
		frame += n
		if !ok {
			return 0
		}
	}
}

// decodeByExt dispatches to the beep decoder matching absPath's
// extension, duplicated from internal/catalog's metadata probe so that
// internal/playback stays free of any dependency on internal/catalog.
func decodeByExt(f *os.File, absPath string) (beep.StreamSeekCloser, beep.Format, error) {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(absPath), ".")) {
	case "wav":
		return wav.Decode(f)
	case "mp3":
		return mp3.Decode(f)
	case "flac":
		return flac.Decode(f)
	case "ogg":
		return vorbis.Decode(f)
	default:
		return nil, beep.Format{}, errors.Errorf("unrecognized audio extension for '%s'", absPath)
	}
}

// Package waveform implements the Waveform Generator (spec.md §4.9): a
// background producer of a downsampled magnitude envelope for a source,
// delivered to a callback in batches and cancellable mid-stream.
package waveform

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
	"github.com/pkg/errors"
	l "github.com/sirupsen/logrus"
)

var log *l.Entry = l.WithFields(l.Fields{"component": "waveform"})

// SamplingStep is how many source frames collapse into one envelope
// sample (spec.md §4.9).
const SamplingStep = 512

// BatchSamples is how many envelope samples accumulate before a batch is
// sent to the consumer (spec.md §4.9).
const BatchSamples = 1024

// Generator drives one source's waveform production. A fresh Generator
// is created per source; calling Reset cancels any in-flight
// request_waveform worker. Generator holds no source path and no lock of
// its own, only the atomic reset flag; it never imports internal/store
// and only ever receives an absolute path.
type Generator struct {
	reset atomic.Bool
}

// PrepareWaveform opens absPath and returns the number of envelope
// samples a caller should expect from RequestWaveform: n_frames /
// SamplingStep (spec.md §4.9).
func PrepareWaveform(absPath string) (int, error) {
	f, err := os.Open(absPath)
	if err != nil {
		return 0, errors.Wrapf(err, "cannot open '%s'", absPath)
	}
	defer f.Close()

	streamer, _, err := decodeByExt(f, absPath)
	if err != nil {
		return 0, err
	}
	defer streamer.Close()

	return streamer.Len() / SamplingStep, nil
}

// RequestWaveform spawns a worker that decodes absPath, mixes channels to
// mono, downsamples into SamplingStep-frame magnitude envelope samples,
// and invokes callback with each ready batch's raw little-endian float32
// bytes — the Go equivalent of the original's raw byte reinterpretation
// (spec.md §4.9). The worker checks the reset flag between packets and
// between batches, exiting early if Reset was called.
func (g *Generator) RequestWaveform(absPath string, callback func(batch []byte)) {
	go g.run(absPath, callback)
}

// Reset cancels any in-flight RequestWaveform worker for this Generator;
// set by set_source in the original design (spec.md §4.9).
func (g *Generator) Reset() {
	g.reset.Store(true)
}

func (g *Generator) run(absPath string, callback func(batch []byte)) {
	f, err := os.Open(absPath)
	if err != nil {
		log.Warnf("could not open '%s': %v", absPath, err)
		return
	}
	defer f.Close()

	streamer, format, err := decodeByExt(f, absPath)
	if err != nil {
		log.Warnf("could not decode '%s': %v", absPath, err)
		return
	}
	defer streamer.Close()

	chunk := make([][2]float64, SamplingStep)
	var batch []float32

	flush := func() bool {
		if len(batch) == 0 {
			return true
		}
		raw := make([]byte, 4*len(batch))
		for i, v := range batch {
			binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(v))
		}
		callback(raw)
		batch = batch[:0]
		return !g.reset.Load()
	}

	_ = format
	for {
		if g.reset.Load() {
			return
		}
		n, ok := streamer.Stream(chunk)
		if n > 0 {
			batch = append(batch, chunkMagnitude(chunk, n))
			if len(batch) >= BatchSamples {
				if !flush() {
					return
				}
			}
		}
		if !ok {
			flush()
			return
		}
	}
}

// chunkMagnitude mixes the first n frames of chunk to mono and returns
// their peak absolute magnitude — one envelope sample.
func chunkMagnitude(chunk [][2]float64, n int) float32 {
	max := 0.0
	for i := 0; i < n; i++ {
		mono := (chunk[i][0] + chunk[i][1]) / 2
		if mag := math.Abs(mono); mag > max {
			max = mag
		}
	}
	return float32(max)
}

// decodeByExt dispatches to the beep decoder matching absPath's
// extension, duplicated from internal/catalog's metadata probe so that
// internal/waveform stays free of any dependency on internal/catalog.
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

package catalog

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/disintegration/imaging"
	l "github.com/sirupsen/logrus"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"

	"github.com/pkg/errors"
)

var metaLog *l.Entry = l.WithFields(l.Fields{"component": "metadata"})

// coverThumbMaxWidth bounds the resized cover JPEG stored on Metadata.Cover
// (SPEC_FULL.md §9's cover-art supplement).
const coverThumbMaxWidth = 256

// Metadata is what the Metadata Probe yields for one audio file
// (spec.md §2, §4.2), plus the cover-art thumbnail supplement from
// SPEC_FULL.md §9.
type Metadata struct {
	Title    string
	Artist   string
	Album    string
	Duration time.Duration
	Cover    []byte // resized JPEG, nil if the file carries no embedded picture
}

// ProbeMetadata reads tags and duration for the audio file at absPath,
// following the teacher's trackpath.metadata: read tags with dhowden/tag,
// then open the file again with a decoder just far enough to learn the
// stream length.
func ProbeMetadata(absPath string) (*Metadata, error) {
	f, err := os.Open(absPath)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot retrieve metadata for '%s'", absPath)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot retrieve metadata for '%s'", absPath)
	}

	md := &Metadata{
		Title:  m.Title(),
		Artist: m.Artist(),
		Album:  m.Album(),
	}

	if pic := m.Picture(); pic != nil {
		if thumb, err := resizeCover(pic.Data); err != nil {
			metaLog.Warnf("could not resize cover for '%s': %v", absPath, err)
		} else {
			md.Cover = thumb
		}
	}

	if dur, err := probeDuration(absPath); err != nil {
		metaLog.Warnf("could not determine duration for '%s': %v", absPath, err)
	} else {
		md.Duration = dur
	}

	return md, nil
}

func resizeCover(raw []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrap(err, "could not decode embedded picture")
	}
	img = imaging.Resize(img, coverThumbMaxWidth, 0, imaging.Box)

	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, img, imaging.JPEG); err != nil {
		return nil, errors.Wrap(err, "could not encode resized picture")
	}
	return buf.Bytes(), nil
}

// probeDuration opens absPath with the beep decoder matching its
// extension and divides its frame count by its sample rate.
func probeDuration(absPath string) (time.Duration, error) {
	f, err := os.Open(absPath)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	streamer, format, err := decodeByExt(f, absPath)
	if err != nil {
		return 0, err
	}
	defer streamer.Close()

	return format.SampleRate.D(streamer.Len()).Round(time.Millisecond), nil
}

// decodeByExt dispatches to the beep decoder matching absPath's extension,
// mirroring internal/playback's dispatch (spec.md's decoder library is a
// black box keyed only on file type).
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

// Package fsutil provides the small path/file helpers the teacher sourced
// from gitlab.com/go-utilities/{file,filepath}. Those micro-modules aren't
// vendored in the retrieved reference pack and aren't resolvable with
// confidence on a public proxy, so the handful of primitives soundmanager
// actually needs are implemented directly against the standard library.
package fsutil

import (
	"os"
	"path/filepath"
	"strings"
)

// Exists reports whether path exists on disk, regardless of its type.
func Exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// IsDir reports whether path exists and is a directory.
func IsDir(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}

// IsSub reports whether child is path-equal to or nested under parent.
func IsSub(child, parent string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel == "." || !strings.HasPrefix(rel, "..")
}

// ExtLower returns the file extension of name without the leading dot,
// lower-cased ("track.FLAC" -> "flac"; "README" -> "").
func ExtLower(name string) string {
	ext := filepath.Ext(name)
	if ext == "" {
		return ""
	}
	return strings.ToLower(ext[1:])
}

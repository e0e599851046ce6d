// Package trash moves files to the OS trash for catalog.delete_file
// (spec.md §4.6). No confidently-real, actively-maintained cross-platform
// Go trash library was found in the retrieved reference pack, so this
// implements the freedesktop.org Trash specification directly against
// os/path-filepath: $XDG_DATA_HOME/Trash/{files,info}, falling back to
// ~/.local/share/Trash. This is deliberately Linux/XDG-oriented; a
// cross-platform build would swap in per-OS trash APIs behind Move.
package trash

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Move relocates the file at absPath into the freedesktop.org trash,
// returning the path it was moved to.
func Move(absPath string) (string, error) {
	dir, err := homeTrashDir()
	if err != nil {
		return "", err
	}
	filesDir := filepath.Join(dir, "files")
	infoDir := filepath.Join(dir, "info")
	if err := os.MkdirAll(filesDir, 0o700); err != nil {
		return "", errors.Wrap(err, "could not create trash files directory")
	}
	if err := os.MkdirAll(infoDir, 0o700); err != nil {
		return "", errors.Wrap(err, "could not create trash info directory")
	}

	name := uniqueTrashName(filesDir, filepath.Base(absPath))
	dest := filepath.Join(filesDir, name)
	infoPath := filepath.Join(infoDir, name+".trashinfo")

	if err := writeTrashInfo(infoPath, absPath); err != nil {
		return "", err
	}
	if err := moveFile(absPath, dest); err != nil {
		os.Remove(infoPath)
		return "", errors.Wrapf(err, "could not move '%s' to trash", absPath)
	}
	return dest, nil
}

// uniqueTrashName appends a numeric suffix until the candidate name is
// free, mirroring the spec's "deduplicate scratch name" requirement.
func uniqueTrashName(filesDir, base string) string {
	candidate := base
	for i := 1; ; i++ {
		if _, err := os.Lstat(filepath.Join(filesDir, candidate)); os.IsNotExist(err) {
			return candidate
		}
		ext := filepath.Ext(base)
		stem := strings.TrimSuffix(base, ext)
		candidate = fmt.Sprintf("%s.%d%s", stem, i, ext)
	}
}

func writeTrashInfo(infoPath, originalAbsPath string) error {
	content := fmt.Sprintf(
		"[Trash Info]\nPath=%s\nDeletionDate=%s\n",
		originalAbsPath,
		time.Now().Format("2006-01-02T15:04:05"),
	)
	return os.WriteFile(infoPath, []byte(content), 0o600)
}

// moveFile renames src to dest, falling back to copy-then-remove when
// the trash directory lives on a different filesystem (os.Rename across
// devices fails with EXDEV).
func moveFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}
	if err := copyFile(src, dest); err != nil {
		return err
	}
	return os.Remove(src)
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

func homeTrashDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "Trash"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "could not determine home directory for trash")
	}
	return filepath.Join(home, ".local", "share", "Trash"), nil
}

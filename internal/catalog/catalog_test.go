package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"gitlab.com/fidelxyz/soundmanager/internal/config"
	"gitlab.com/fidelxyz/soundmanager/internal/emitter"
)

// noopEmitter discards every notification; used by tests that don't care
// about the emitter surface.
type noopEmitter struct{}

func (noopEmitter) OnFilesUpdated(immediate bool)              {}
func (noopEmitter) OnPlayerStateUpdated(emitter.PlayerState) {}

// newTestCatalog creates a fresh catalog rooted at a temp directory.
func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default(dir)
	c, err := Create(cfg, noopEmitter{}, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func writeFile(t *testing.T, path string, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

package core

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLink_CreatesSymlink(t *testing.T) {
	dir := t.TempDir()
	source := writeInstalledTool(t, dir, "mytool", "1.0.0")
	root := filepath.Join(dir, "tools")
	linker := NewLinkerWithFS(root, osLinkFS{})

	outcome, err := linker.Link(source, "mytool", "1.0.0")
	if err != nil {
		t.Fatalf("Link() error = %v", err)
	}
	if outcome.Status != LinkCreated {
		t.Fatalf("Status = %q, want %q", outcome.Status, LinkCreated)
	}

	dest, err := os.Readlink(filepath.Join(root, "mytool@1.0.0"))
	if err != nil {
		t.Fatalf("reading created link: %v", err)
	}
	if dest != source {
		t.Errorf("link points at %q, want %q", dest, source)
	}
}

func TestLink_Idempotent(t *testing.T) {
	dir := t.TempDir()
	source := writeInstalledTool(t, dir, "mytool", "1.0.0")
	linker := NewLinkerWithFS(filepath.Join(dir, "tools"), osLinkFS{})

	if _, err := linker.Link(source, "mytool", "1.0.0"); err != nil {
		t.Fatalf("first Link() error = %v", err)
	}
	outcome, err := linker.Link(source, "mytool", "1.0.0")
	if err != nil {
		t.Fatalf("second Link() error = %v", err)
	}
	if outcome.Status != LinkExists {
		t.Errorf("Status = %q, want %q", outcome.Status, LinkExists)
	}
}

func TestLink_ConflictLeavesEntryUntouched(t *testing.T) {
	dir := t.TempDir()
	sourceA := writeInstalledTool(t, filepath.Join(dir, "a"), "mytool", "1.0.0")
	sourceB := writeInstalledTool(t, filepath.Join(dir, "b"), "mytool", "1.0.0")
	root := filepath.Join(dir, "tools")
	linker := NewLinkerWithFS(root, osLinkFS{})

	if _, err := linker.Link(sourceA, "mytool", "1.0.0"); err != nil {
		t.Fatalf("Link() error = %v", err)
	}

	outcome, err := linker.Link(sourceB, "mytool", "1.0.0")
	if err != nil {
		t.Fatalf("Link() error = %v", err)
	}
	if outcome.Status != LinkBlocked {
		t.Fatalf("Status = %q, want %q", outcome.Status, LinkBlocked)
	}
	if outcome.ExistingTarget != sourceA {
		t.Errorf("ExistingTarget = %q, want %q", outcome.ExistingTarget, sourceA)
	}

	dest, err := os.Readlink(filepath.Join(root, "mytool@1.0.0"))
	if err != nil {
		t.Fatalf("reading link: %v", err)
	}
	if dest != sourceA {
		t.Errorf("conflict mutated the link: points at %q, want %q", dest, sourceA)
	}
}

func TestLink_ConflictWithDirectory(t *testing.T) {
	dir := t.TempDir()
	source := writeInstalledTool(t, dir, "mytool", "1.0.0")
	root := filepath.Join(dir, "tools")
	// A real directory occupies the link path.
	writeInstalledTool(t, root, "mytool", "1.0.0")
	linker := NewLinkerWithFS(root, osLinkFS{})

	outcome, err := linker.Link(source, "mytool", "1.0.0")
	if err != nil {
		t.Fatalf("Link() error = %v", err)
	}
	if outcome.Status != LinkBlocked {
		t.Errorf("Status = %q, want %q", outcome.Status, LinkBlocked)
	}
}

func TestForceLink_ReplacesConflict(t *testing.T) {
	dir := t.TempDir()
	sourceA := writeInstalledTool(t, filepath.Join(dir, "a"), "mytool", "1.0.0")
	sourceB := writeInstalledTool(t, filepath.Join(dir, "b"), "mytool", "1.0.0")
	root := filepath.Join(dir, "tools")
	linker := NewLinkerWithFS(root, osLinkFS{})

	if _, err := linker.Link(sourceA, "mytool", "1.0.0"); err != nil {
		t.Fatalf("Link() error = %v", err)
	}
	if err := linker.ForceLink(sourceB, "mytool", "1.0.0"); err != nil {
		t.Fatalf("ForceLink() error = %v", err)
	}

	dest, err := os.Readlink(filepath.Join(root, "mytool@1.0.0"))
	if err != nil {
		t.Fatalf("reading link: %v", err)
	}
	if dest != sourceB {
		t.Errorf("link points at %q, want %q", dest, sourceB)
	}
}

func TestLinkPath(t *testing.T) {
	linker := NewLinkerWithFS("/root/tools", osLinkFS{})
	if got := linker.LinkPath("mytool", "1.0.0"); got != filepath.Join("/root/tools", "mytool@1.0.0") {
		t.Errorf("LinkPath() = %q", got)
	}
	if got := linker.LinkPath("mytool", ""); got != filepath.Join("/root/tools", "mytool") {
		t.Errorf("LinkPath() without version = %q", got)
	}
}

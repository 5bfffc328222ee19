package core

import (
	"fmt"
	"os"
	"path/filepath"
)

// LinkFS abstracts the symlink syscalls so the linker stays platform
// agnostic and tests can inject fakes.
type LinkFS interface {
	// CreateLink makes link point at target.
	CreateLink(target, link string) error
	// ReadLink returns what link points at.
	ReadLink(link string) (string, error)
}

// osLinkFS is the real-filesystem LinkFS.
type osLinkFS struct{}

func (osLinkFS) CreateLink(target, link string) error { return os.Symlink(target, link) }
func (osLinkFS) ReadLink(link string) (string, error) { return os.Readlink(link) }

// Linker points installed-tools directory entries at local source
// directories. Local installs are symlinks, so edits to the source take
// effect without reinstalling.
type Linker struct {
	root string
	fs   LinkFS
}

// NewLinker creates a Linker over the configured tools root.
func NewLinker(cfg *Config) *Linker {
	return &Linker{root: cfg.ToolsRoot, fs: osLinkFS{}}
}

// NewLinkerWithFS creates a Linker with a custom LinkFS. Useful for testing.
func NewLinkerWithFS(root string, fs LinkFS) *Linker {
	return &Linker{root: root, fs: fs}
}

// LinkPath returns the deterministic link location for a tool:
// {root}/{name}@{version}, or {root}/{name} when the version is empty.
func (l *Linker) LinkPath(name, version string) string {
	entry := name
	if version != "" {
		entry = name + "@" + version
	}
	return filepath.Join(l.root, entry)
}

// Link creates the symlink for source, or reports why it did not.
// Re-linking the same source is a no-op (AlreadyLinked), which makes
// repeated installs of the same local tool idempotent. Anything else at the
// link path is a conflict and is left untouched; resolution is the caller's
// decision.
func (l *Linker) Link(source, name, version string) (*LinkOutcome, error) {
	link := l.LinkPath(name, version)

	if err := os.MkdirAll(l.root, 0o755); err != nil {
		return nil, fmt.Errorf("creating tools root: %w", err)
	}

	info, err := os.Lstat(link)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("checking %s: %w", link, err)
		}
		if err := l.fs.CreateLink(source, link); err != nil {
			return nil, fmt.Errorf("creating link: %w", err)
		}
		return &LinkOutcome{Status: LinkCreated, Target: link}, nil
	}

	if info.Mode()&os.ModeSymlink == 0 {
		return &LinkOutcome{Status: LinkBlocked, Target: link, ExistingTarget: link}, nil
	}

	existing, err := l.fs.ReadLink(link)
	if err != nil {
		return nil, fmt.Errorf("reading link %s: %w", link, err)
	}
	if samePath(existing, source, filepath.Dir(link)) {
		return &LinkOutcome{Status: LinkExists, Target: link}, nil
	}
	return &LinkOutcome{Status: LinkBlocked, Target: link, ExistingTarget: existing}, nil
}

// ForceLink removes whatever occupies the link path and recreates the link.
// It never reports conflicts.
func (l *Linker) ForceLink(source, name, version string) error {
	link := l.LinkPath(name, version)

	if err := os.MkdirAll(l.root, 0o755); err != nil {
		return fmt.Errorf("creating tools root: %w", err)
	}
	if err := os.RemoveAll(link); err != nil {
		return fmt.Errorf("removing %s: %w", link, err)
	}
	if err := l.fs.CreateLink(source, link); err != nil {
		return fmt.Errorf("creating link: %w", err)
	}
	return nil
}

// samePath compares a (possibly relative) symlink destination against a
// source path, resolving relative destinations against the link's directory.
func samePath(dest, source, linkDir string) bool {
	if !filepath.IsAbs(dest) {
		dest = filepath.Join(linkDir, dest)
	}
	if !filepath.IsAbs(source) {
		if abs, err := filepath.Abs(source); err == nil {
			source = abs
		}
	}
	return filepath.Clean(dest) == filepath.Clean(source)
}

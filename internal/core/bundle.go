package core

import (
	"archive/zip"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// BundleFileInfo is a bundle archive opened for inspection.
type BundleFileInfo struct {
	Path         string
	Manifest     *Manifest
	ManifestJSON []byte // Raw manifest entry, as published
	EntryCount   int
}

// OpenBundleFile opens a bundle archive and parses its manifest entry.
func OpenBundleFile(path string) (*BundleFileInfo, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", ErrBundleInvalid, path, err)
	}
	defer func() { _ = r.Close() }()

	manifest, data, err := readManifestEntry(&r.Reader, path)
	if err != nil {
		return nil, err
	}

	return &BundleFileInfo{
		Path:         path,
		Manifest:     manifest,
		ManifestJSON: data,
		EntryCount:   len(r.File),
	}, nil
}

// ReadManifestBundle parses the manifest.json entry of a bundle archive.
func ReadManifestBundle(path string) (*Manifest, error) {
	info, err := OpenBundleFile(path)
	if err != nil {
		return nil, err
	}
	return info.Manifest, nil
}

func readManifestEntry(r *zip.Reader, path string) (*Manifest, []byte, error) {
	for _, f := range r.File {
		if f.Name != manifestFileName {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, nil, fmt.Errorf("%w: reading %s entry: %v", ErrBundleInvalid, manifestFileName, err)
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, nil, fmt.Errorf("%w: reading %s entry: %v", ErrBundleInvalid, manifestFileName, err)
		}
		m, err := ParseManifest(data)
		if err != nil {
			return nil, nil, err
		}
		return m, data, nil
	}
	return nil, nil, fmt.Errorf("%w: %s has no %s entry", ErrBundleInvalid, path, manifestFileName)
}

// ExtractBundle extracts a bundle archive into targetDir, preserving Unix
// file-mode bits. Entries that would escape the target directory are
// rejected. Progress advances by entry.
func ExtractBundle(path, targetDir string, progress Progress) error {
	r, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("%w: opening %s: %v", ErrBundleInvalid, path, err)
	}
	defer func() { _ = r.Close() }()

	progress.SetTotal(int64(len(r.File)))
	defer progress.Finish()

	for _, f := range r.File {
		if err := extractEntry(f, targetDir); err != nil {
			return err
		}
		progress.Advance(1)
	}
	return nil
}

func extractEntry(f *zip.File, targetDir string) error {
	name := filepath.FromSlash(f.Name)
	if !filepath.IsLocal(name) {
		return fmt.Errorf("%w: entry %q escapes the target directory", ErrBundleInvalid, f.Name)
	}
	dest := filepath.Join(targetDir, name)

	if f.FileInfo().IsDir() {
		return os.MkdirAll(dest, 0o755)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", f.Name, err)
	}

	mode := f.Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("opening entry %s: %w", f.Name, err)
	}
	defer func() { _ = rc.Close() }()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dest, err)
	}

	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return fmt.Errorf("extracting %s: %w", f.Name, err)
	}
	return out.Close()
}

// ExtractIcons reads the named icon entries from a bundle archive, keyed by
// archive path. Missing entries are skipped; icons are optional.
func ExtractIcons(path string, iconPaths []string) (map[string][]byte, error) {
	if len(iconPaths) == 0 {
		return nil, nil
	}

	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", ErrBundleInvalid, path, err)
	}
	defer func() { _ = r.Close() }()

	wanted := map[string]bool{}
	for _, p := range iconPaths {
		wanted[strings.TrimPrefix(p, "./")] = true
	}

	icons := map[string][]byte{}
	for _, f := range r.File {
		if !wanted[f.Name] {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("reading icon %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("reading icon %s: %w", f.Name, err)
		}
		icons[f.Name] = data
	}
	return icons, nil
}

// sha256Hex returns the hex sha256 digest of a byte slice.
func sha256Hex(data []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(data))
}

// FileSHA256 returns the hex sha256 digest and size of a file.
func FileSHA256(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, fmt.Errorf("hashing %s: %w", path, err)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), n, nil
}

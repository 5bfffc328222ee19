// Package pack archives tool directories into bundle files. The publisher
// consumes it as a black-box collaborator through the core.Packer interface.
package pack

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/toolstore/tool/internal/core"
)

// excludedNames are never packed into a bundle.
var excludedNames = map[string]bool{
	".git":         true,
	"node_modules": true,
	".DS_Store":    true,
	".mcpbignore":  true,
}

// Report lists validation findings for a tool directory.
type Report struct {
	Errors   []string
	Warnings []string
}

// OK reports whether the directory can be packed.
func (r *Report) OK() bool { return len(r.Errors) == 0 }

// Packer archives tool directories. The zero value is usable.
type Packer struct{}

// New creates a Packer.
func New() *Packer { return &Packer{} }

// Validate checks that a directory is a packable tool: a parseable manifest
// and, when declared, an existing entry point. Missing icons are warnings.
func (p *Packer) Validate(dir string) (*Report, error) {
	report := &Report{}

	manifest, err := core.ReadManifestDir(dir)
	if err != nil {
		report.Errors = append(report.Errors, err.Error())
		return report, nil
	}

	if entry := manifest.Server.EntryPoint; entry != "" {
		if _, err := os.Stat(filepath.Join(dir, entry)); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("entry point not found: %s", entry))
		}
	}

	for _, icon := range manifest.IconPaths() {
		if _, err := os.Stat(filepath.Join(dir, icon)); err != nil {
			report.Warnings = append(report.Warnings, fmt.Sprintf("icon not found: %s", icon))
		}
	}

	return report, nil
}

// Pack validates and archives a tool directory into destDir, returning the
// bundle path. A non-empty platform key becomes part of the output filename
// so concurrent per-platform packs never collide.
func (p *Packer) Pack(dir, destDir, platform string) (string, error) {
	report, err := p.Validate(dir)
	if err != nil {
		return "", err
	}
	if !report.OK() {
		return "", fmt.Errorf("validation failed: %s", strings.Join(report.Errors, "; "))
	}

	manifest, err := core.ReadManifestDir(dir)
	if err != nil {
		return "", err
	}

	name := manifest.DirName()
	if platform != "" && platform != "universal" {
		name += "-" + platform
	}
	outPath := filepath.Join(destDir, name+".mcpb")

	out, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("creating bundle: %w", err)
	}

	zw := zip.NewWriter(out)
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		base := filepath.Base(path)
		if excludedNames[base] {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		return addFile(zw, path, filepath.ToSlash(rel))
	})

	if closeErr := zw.Close(); walkErr == nil {
		walkErr = closeErr
	}
	if closeErr := out.Close(); walkErr == nil {
		walkErr = closeErr
	}
	if walkErr != nil {
		_ = os.Remove(outPath)
		return "", fmt.Errorf("packing %s: %w", dir, walkErr)
	}
	return outPath, nil
}

// addFile writes one file into the archive, preserving its mode bits.
func addFile(zw *zip.Writer, path, name string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = name
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	_, err = io.Copy(w, f)
	return err
}

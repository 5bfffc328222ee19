package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Manifest is the parsed manifest.json of a bundle or installed tool. Only
// the fields install and publish need are typed; the full document is kept
// for identity hashing.
type Manifest struct {
	ManifestVersion string       `json:"manifest_version"`
	Name            string       `json:"name"`
	Version         string       `json:"version"`
	DisplayName     string       `json:"display_name,omitempty"`
	Description     string       `json:"description,omitempty"`
	LongDescription string       `json:"long_description,omitempty"`
	Icon            string       `json:"icon,omitempty"`
	Icons           []Icon       `json:"icons,omitempty"`
	Server          ServerConfig `json:"server"`

	raw map[string]any
}

// ServerConfig is the runnable-payload description inside a manifest.
type ServerConfig struct {
	Type       string `json:"type"`
	Transport  string `json:"transport,omitempty"`
	EntryPoint string `json:"entry_point,omitempty"`
}

// Icon is one entry of a manifest's icons list.
type Icon struct {
	Src   string `json:"src"`
	Sizes string `json:"sizes,omitempty"`
	Theme string `json:"theme,omitempty"`
}

// ParseManifest decodes manifest.json bytes. Numbers are preserved verbatim
// so the identity hash is stable across decode/encode.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if m.Name == "" {
		return nil, fmt.Errorf("manifest has no name")
	}
	if m.Version == "" {
		return nil, fmt.Errorf("manifest has no version")
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&m.raw); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &m, nil
}

// ReadManifestDir reads and parses {dir}/manifest.json.
func ReadManifestDir(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestFileName))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", manifestFileName, err)
	}
	return ParseManifest(data)
}

// DirName returns the installed directory name for the manifest,
// "name@version".
func (m *Manifest) DirName() string {
	return m.Name + "@" + m.Version
}

// IconPaths returns every icon path the manifest declares, de-duplicated and
// in a stable order.
func (m *Manifest) IconPaths() []string {
	seen := map[string]bool{}
	var paths []string
	if m.Icon != "" {
		seen[m.Icon] = true
		paths = append(paths, m.Icon)
	}
	for _, icon := range m.Icons {
		if icon.Src != "" && !seen[icon.Src] {
			seen[icon.Src] = true
			paths = append(paths, icon.Src)
		}
	}
	return paths
}

// PlatformOverrideKeys returns the valid os-arch keys declared under
// _meta.platform_overrides, sorted. Publish uses them to auto-detect which
// platform bundles a package provides.
func (m *Manifest) PlatformOverrideKeys() []string {
	meta, ok := m.raw["_meta"].(map[string]any)
	if !ok {
		return nil
	}
	overrides, ok := meta["platform_overrides"].(map[string]any)
	if !ok {
		return nil
	}
	var keys []string
	for key := range overrides {
		if IsValidPlatformKey(key) {
			keys = append(keys, NormalizePlatform(key))
		}
	}
	sort.Strings(keys)
	return keys
}

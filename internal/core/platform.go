package core

import (
	"fmt"
	"runtime"
	"sort"
	"strings"
)

// osAliases maps alternate OS spellings to the canonical platform key part.
var osAliases = map[string]string{
	"macos":   "darwin",
	"osx":     "darwin",
	"windows": "win32",
}

// archAliases maps between equivalent architecture spellings. Bundle
// filenames in the wild use both, so selection must try each.
var archAliases = map[string][]string{
	"x64":     {"x64", "x86_64"},
	"x86_64":  {"x86_64", "x64"},
	"arm64":   {"arm64", "aarch64"},
	"aarch64": {"aarch64", "arm64"},
}

// platformTags are the OS markers that make a bundle filename
// platform-specific. A bundle containing none of them is universal.
var platformTags = []string{"-darwin-", "-linux-", "-win32-"}

// validPlatformKeys is the whitelist of os-arch keys accepted for
// platform-specific publishing.
var validPlatformKeys = map[string]bool{
	"darwin-arm64": true,
	"darwin-x64":   true,
	"linux-arm64":  true,
	"linux-x64":    true,
	"win32-arm64":  true,
	"win32-x64":    true,
}

// CurrentPlatform returns the platform key for the running system, e.g.
// "darwin-arm64" or "linux-x64".
func CurrentPlatform() string {
	osPart := runtime.GOOS
	if osPart == "windows" {
		osPart = "win32"
	}
	archPart := runtime.GOARCH
	if archPart == "amd64" {
		archPart = "x64"
	}
	return osPart + "-" + archPart
}

// NormalizePlatform canonicalizes a user-supplied platform key
// ("macos-aarch64" → "darwin-arm64"). Unknown parts pass through unchanged;
// the selector decides whether anything matches.
func NormalizePlatform(key string) string {
	if key == "" || key == universalPlatform {
		return key
	}
	osPart, archPart, ok := strings.Cut(key, "-")
	if !ok {
		return key
	}
	if canon, found := osAliases[osPart]; found {
		osPart = canon
	}
	if variants, found := archAliases[archPart]; found {
		archPart = variants[0]
	}
	return osPart + "-" + archPart
}

// IsValidPlatformKey reports whether key names a publishable os-arch pair.
func IsValidPlatformKey(key string) bool {
	return validPlatformKeys[NormalizePlatform(key)]
}

// BundleSelection identifies the artifact chosen for download.
type BundleSelection struct {
	Filename         string // Empty when FromMainDownload
	Size             int64
	Ext              string // "mcpb" or "mcpbx", read from the chosen filename/URL
	FromMainDownload bool
}

// SelectBundle chooses which artifact to fetch from a version's file listing.
//
// Precedence: an exact platform-variant match always wins over a universal
// bundle, and a universal bundle always wins over the main-download fallback.
// When a platform was explicitly requested and no variant matches, selection
// fails rather than silently substituting another artifact.
func SelectBundle(files map[string]int64, mainURL string, mainSize int64, platform, ref string) (*BundleSelection, error) {
	platform = NormalizePlatform(platform)

	if platform == universalPlatform {
		if sel := findUniversal(files); sel != nil {
			return sel, nil
		}
		if sel := mainDownloadSelection(mainURL, mainSize); sel != nil {
			return sel, nil
		}
		return nil, &PlatformUnavailableError{Platform: universalPlatform, Reference: ref}
	}

	if platform != "" {
		if sel := findVariant(files, platform); sel != nil {
			return sel, nil
		}
		return nil, &PlatformUnavailableError{Platform: platform, Reference: ref}
	}

	// No platform requested: current platform, then universal, then the
	// main download if it is bundle-typed.
	if sel := findVariant(files, CurrentPlatform()); sel != nil {
		return sel, nil
	}
	if sel := findUniversal(files); sel != nil {
		return sel, nil
	}
	if sel := mainDownloadSelection(mainURL, mainSize); sel != nil {
		return sel, nil
	}
	return nil, &PlatformUnavailableError{Platform: CurrentPlatform(), Reference: ref}
}

// findVariant scans for a bundle filename tagged with any alias variant of
// the platform key.
func findVariant(files map[string]int64, platform string) *BundleSelection {
	for _, variant := range platformVariants(platform) {
		tag := "-" + variant
		for _, name := range sortedNames(files) {
			if strings.Contains(name, tag) && isBundleFile(name) {
				return &BundleSelection{Filename: name, Size: files[name], Ext: bundleFileExt(name)}
			}
		}
	}
	return nil
}

// findUniversal scans for a bundle filename carrying no platform tag.
func findUniversal(files map[string]int64) *BundleSelection {
	for _, name := range sortedNames(files) {
		if !isBundleFile(name) {
			continue
		}
		tagged := false
		for _, tag := range platformTags {
			if strings.Contains(name, tag) {
				tagged = true
				break
			}
		}
		if !tagged {
			return &BundleSelection{Filename: name, Size: files[name], Ext: bundleFileExt(name)}
		}
	}
	return nil
}

// mainDownloadSelection falls back to the version's single main download,
// but only when that URL itself names a bundle.
func mainDownloadSelection(mainURL string, mainSize int64) *BundleSelection {
	if mainURL == "" || !isBundleFile(mainURL) {
		return nil
	}
	return &BundleSelection{Size: mainSize, Ext: bundleFileExt(mainURL), FromMainDownload: true}
}

// platformVariants expands a key like "darwin-x64" into the alias spellings
// bundle filenames may use ("darwin-x64", "darwin-x86_64").
func platformVariants(platform string) []string {
	osPart, archPart, ok := strings.Cut(platform, "-")
	if !ok {
		return []string{platform}
	}
	arches, found := archAliases[archPart]
	if !found {
		arches = []string{archPart}
	}
	variants := make([]string, 0, len(arches))
	for _, arch := range arches {
		variants = append(variants, osPart+"-"+arch)
	}
	return variants
}

// sortedNames returns map keys in a stable order so selection is
// deterministic across runs.
func sortedNames(files map[string]int64) []string {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// bundleFileExt returns the bundle extension of a filename without the dot.
func bundleFileExt(name string) string {
	if strings.HasSuffix(strings.ToLower(name), "."+bundleExtExtended) {
		return bundleExtExtended
	}
	return bundleExt
}

// DownloadFilename builds the canonical artifact filename for a version:
// "name@version.ext" for universal bundles, "name@version-platform.ext" for
// platform-specific ones.
func DownloadFilename(name, version, platform, ext string) string {
	if platform == "" || platform == universalPlatform {
		return fmt.Sprintf("%s@%s.%s", name, version, ext)
	}
	return fmt.Sprintf("%s@%s-%s.%s", name, version, NormalizePlatform(platform), ext)
}

package core

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// namespacePattern matches a registry namespace (publisher prefix).
var namespacePattern = regexp.MustCompile(`^[a-z][a-z0-9_-]{1,49}$`)

// namePattern matches a tool name within a namespace.
var namePattern = regexp.MustCompile(`^[a-z][a-z0-9_-]{0,99}$`)

// RefKind indicates how a reference string was classified.
type RefKind string

const (
	RefLocalPath  RefKind = "local"
	RefBundleFile RefKind = "bundle"
	RefRegistry   RefKind = "registry"
)

// Ref is a parsed tool reference.
type Ref struct {
	Kind      RefKind
	Namespace string // Registry refs only; may be empty for bare names
	Name      string
	Version   string // Empty means "latest"
	Path      string // Local path or bundle file path
	Raw       string // Original input string
}

// String returns the canonical form of a registry reference, or the path for
// local/bundle references.
func (r *Ref) String() string {
	switch r.Kind {
	case RefRegistry:
		s := r.Name
		if r.Namespace != "" {
			s = r.Namespace + "/" + r.Name
		}
		if r.Version != "" {
			s += "@" + r.Version
		}
		return s
	default:
		return r.Path
	}
}

// Qualified reports whether a registry reference carries a namespace.
// Registry fetches require one; local resolution does not.
func (r *Ref) Qualified() bool {
	return r.Namespace != ""
}

// ParseRef classifies a user-supplied string as a local path, a bundle file,
// or a registry reference, and parses the registry form "namespace/name@version".
// The only I/O performed is a stat to detect existing local directories.
//
// Supported forms:
//   - "./dir", "../dir", "/abs", "~/dir", "C:\..." → local path
//   - any existing directory containing manifest.json → local path
//   - "*.mcpb" / "*.mcpbx" (case-insensitive)       → bundle file
//   - "namespace/name", "namespace/name@1.2.0"      → registry reference
//   - "name", "name@1.2.0"                          → registry reference
//     without a namespace (valid only for local resolution)
func ParseRef(input string) (*Ref, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("%w: empty reference", ErrInvalidReference)
	}

	if isLocalPath(input) {
		return &Ref{Kind: RefLocalPath, Path: expandPath(input), Raw: input}, nil
	}

	if isBundleFile(input) {
		return &Ref{Kind: RefBundleFile, Path: expandPath(input), Raw: input}, nil
	}

	return parseRegistryRef(input)
}

// isLocalPath reports whether the input denotes a filesystem location rather
// than a registry reference: an explicit path prefix, a Windows drive letter,
// or an existing directory that already holds a manifest.
func isLocalPath(input string) bool {
	if strings.HasPrefix(input, "./") ||
		strings.HasPrefix(input, "../") ||
		strings.HasPrefix(input, "/") ||
		strings.HasPrefix(input, "~") ||
		input == "." || input == ".." {
		return true
	}

	// Windows drive letter (C:\ or C:/)
	if len(input) >= 3 && input[1] == ':' && (input[2] == '\\' || input[2] == '/') {
		return true
	}

	// A bare name that happens to be a directory with a manifest wins over
	// the registry interpretation.
	if dirExists(input) && fileExists(filepath.Join(input, manifestFileName)) {
		return true
	}

	return false
}

// isBundleFile reports whether the input names a bundle archive by extension.
func isBundleFile(input string) bool {
	ext := strings.ToLower(filepath.Ext(input))
	return ext == "."+bundleExt || ext == "."+bundleExtExtended
}

func parseRegistryRef(input string) (*Ref, error) {
	if strings.Contains(input, "//") {
		return nil, fmt.Errorf("%w: %q contains empty path segment", ErrInvalidReference, input)
	}
	if strings.Contains(input, "@@") {
		return nil, fmt.Errorf("%w: %q contains empty version", ErrInvalidReference, input)
	}

	ref := &Ref{Kind: RefRegistry, Raw: input}

	// Version is everything after the last @, so names themselves can never
	// contain one.
	rest := input
	if atIdx := strings.LastIndex(input, "@"); atIdx >= 0 {
		rest = input[:atIdx]
		ref.Version = input[atIdx+1:]
		if ref.Version == "" {
			return nil, fmt.Errorf("%w: %q has trailing @", ErrInvalidReference, input)
		}
		if rest == "" {
			return nil, fmt.Errorf("%w: %q has no name", ErrInvalidReference, input)
		}
	}

	switch parts := strings.Split(rest, "/"); len(parts) {
	case 1:
		ref.Name = parts[0]
	case 2:
		ref.Namespace = parts[0]
		ref.Name = parts[1]
		if !namespacePattern.MatchString(ref.Namespace) {
			return nil, fmt.Errorf("%w: invalid namespace %q", ErrInvalidReference, ref.Namespace)
		}
	default:
		return nil, fmt.Errorf("%w: %q has too many path segments", ErrInvalidReference, input)
	}

	if !namePattern.MatchString(ref.Name) {
		return nil, fmt.Errorf("%w: invalid name %q", ErrInvalidReference, ref.Name)
	}

	return ref, nil
}

// fileExists returns true if the path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

package core

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ListInstalled enumerates the tools under the root: flat "name@version"
// entries (bundle and local installs, the latter as symlinks) and namespaced
// "{ns}/name@version" entries (registry installs). Entries that are not
// valid installs are skipped; ListOrphans reports those.
func ListInstalled(root string) ([]InstalledTool, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading tools root: %w", err)
	}

	var tools []InstalledTool
	for _, entry := range entries {
		path := filepath.Join(root, entry.Name())
		if tool, ok := installedEntry(path, "", entry.Name()); ok {
			tools = append(tools, tool)
			continue
		}

		// A directory without a manifest may be a namespace folder.
		if !dirExists(path) {
			continue
		}
		children, err := os.ReadDir(path)
		if err != nil {
			continue
		}
		for _, child := range children {
			childPath := filepath.Join(path, child.Name())
			if tool, ok := installedEntry(childPath, entry.Name(), child.Name()); ok {
				tools = append(tools, tool)
			}
		}
	}

	sort.Slice(tools, func(i, j int) bool {
		if tools[i].Namespace != tools[j].Namespace {
			return tools[i].Namespace < tools[j].Namespace
		}
		if tools[i].Name != tools[j].Name {
			return tools[i].Name < tools[j].Name
		}
		return tools[i].Version < tools[j].Version
	})
	return tools, nil
}

// installedEntry interprets one directory entry as an installed tool. The
// entry qualifies when it (or the directory it links to) contains a
// manifest.
func installedEntry(path, namespace, dirName string) (InstalledTool, bool) {
	info, err := os.Lstat(path)
	if err != nil {
		return InstalledTool{}, false
	}
	linked := info.Mode()&os.ModeSymlink != 0

	if !fileExists(filepath.Join(path, manifestFileName)) {
		return InstalledTool{}, false
	}

	name, version := splitDirName(dirName)
	return InstalledTool{
		Namespace: namespace,
		Name:      name,
		Version:   version,
		Dir:       path,
		Linked:    linked,
	}, true
}

// splitDirName splits "name@version" on the last @. A name alone yields an
// empty version.
func splitDirName(dirName string) (name, version string) {
	if atIdx := strings.LastIndex(dirName, "@"); atIdx > 0 {
		return dirName[:atIdx], dirName[atIdx+1:]
	}
	return dirName, ""
}

// ListOrphans enumerates tools-root entries that no longer represent
// installed tools: symlinks whose target is gone and directories without a
// manifest. A namespace directory whose entries are all orphaned collapses
// to a single orphan for the parent.
func ListOrphans(root string) ([]Orphan, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading tools root: %w", err)
	}

	var orphans []Orphan
	for _, entry := range entries {
		path := filepath.Join(root, entry.Name())

		orphan, ok := orphanEntry(path)
		if !ok {
			continue
		}

		// A manifest-less directory without a version marker is a
		// namespace folder: it is an orphan only if every child is, in
		// which case the children collapse into one entry for the parent.
		if dirExists(path) && !strings.Contains(entry.Name(), "@") {
			children, childOrphans := namespaceOrphans(path)
			if children > 0 {
				if len(childOrphans) == children {
					orphans = append(orphans, Orphan{Path: path, Reason: "namespace contains only orphaned entries"})
				} else {
					orphans = append(orphans, childOrphans...)
				}
				continue
			}
		}
		orphans = append(orphans, orphan)
	}
	return orphans, nil
}

// namespaceOrphans returns the child count and the orphaned children of a
// namespace directory.
func namespaceOrphans(dir string) (int, []Orphan) {
	children, err := os.ReadDir(dir)
	if err != nil {
		return 0, nil
	}
	var orphans []Orphan
	for _, child := range children {
		if orphan, ok := orphanEntry(filepath.Join(dir, child.Name())); ok {
			orphans = append(orphans, orphan)
		}
	}
	return len(children), orphans
}

// orphanEntry reports whether a path is an orphan and why.
func orphanEntry(path string) (Orphan, bool) {
	info, err := os.Lstat(path)
	if err != nil {
		return Orphan{}, false
	}

	if info.Mode()&os.ModeSymlink != 0 {
		if _, err := os.Stat(path); err != nil {
			return Orphan{Path: path, Reason: "broken link"}, true
		}
	}

	if !fileExists(filepath.Join(path, manifestFileName)) {
		if dirExists(path) || info.Mode()&os.ModeSymlink != 0 {
			return Orphan{Path: path, Reason: "no manifest"}, true
		}
	}
	return Orphan{}, false
}

// ResolveInstalled locates the installed tool a reference names. Unversioned
// references resolve to the highest installed version of that name; a name
// matching installs in more than one namespace is ambiguous and the caller
// must qualify it.
func ResolveInstalled(root string, ref *Ref) (*InstalledTool, error) {
	tools, err := ListInstalled(root)
	if err != nil {
		return nil, err
	}

	var matches []InstalledTool
	for _, tool := range tools {
		if tool.Name != ref.Name {
			continue
		}
		if ref.Namespace != "" && tool.Namespace != ref.Namespace {
			continue
		}
		if ref.Version != "" && tool.Version != ref.Version {
			continue
		}
		matches = append(matches, tool)
	}

	if len(matches) == 0 {
		return nil, &NotFoundError{Kind: "tool", Reference: ref.String()}
	}

	namespaces := map[string]bool{}
	for _, m := range matches {
		namespaces[m.Namespace] = true
	}
	if len(namespaces) > 1 {
		var candidates []string
		for _, m := range matches {
			candidates = append(candidates, installedRefString(m))
		}
		return nil, &AmbiguousReferenceError{Requested: ref.String(), Candidates: candidates}
	}

	best := matches[0]
	for _, m := range matches[1:] {
		if versionLess(best.Version, m.Version) {
			best = m
		}
	}
	return &best, nil
}

func installedRefString(tool InstalledTool) string {
	s := tool.Name
	if tool.Namespace != "" {
		s = tool.Namespace + "/" + s
	}
	if tool.Version != "" {
		s += "@" + tool.Version
	}
	return s
}

// versionLess orders versions semantically, falling back to string order for
// anything semver cannot parse.
func versionLess(a, b string) bool {
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	if errA != nil || errB != nil {
		return a < b
	}
	return va.LessThan(vb)
}

package core

import (
	"os"
	"path/filepath"
	"testing"
)

func TestListInstalled(t *testing.T) {
	root := filepath.Join(t.TempDir(), "tools")
	writeInstalledTool(t, root, "flat", "1.0.0")
	writeInstalledTool(t, filepath.Join(root, "acme"), "weather", "2.0.0")

	// A linked local install.
	source := writeInstalledTool(t, t.TempDir(), "local", "0.1.0")
	if err := os.Symlink(source, filepath.Join(root, "local@0.1.0")); err != nil {
		t.Fatal(err)
	}

	// Junk that must be skipped.
	if err := os.WriteFile(filepath.Join(root, ".DS_Store"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	tools, err := ListInstalled(root)
	if err != nil {
		t.Fatalf("ListInstalled() error = %v", err)
	}
	if len(tools) != 3 {
		t.Fatalf("len(tools) = %d, want 3: %+v", len(tools), tools)
	}

	// Sorted by namespace, then name.
	if tools[0].Name != "flat" || tools[0].Namespace != "" {
		t.Errorf("tools[0] = %+v, want flat install first", tools[0])
	}
	if tools[1].Name != "local" || !tools[1].Linked {
		t.Errorf("tools[1] = %+v, want linked local install", tools[1])
	}
	if tools[2].Namespace != "acme" || tools[2].Name != "weather" {
		t.Errorf("tools[2] = %+v, want acme/weather", tools[2])
	}
}

func TestListInstalled_MissingRoot(t *testing.T) {
	tools, err := ListInstalled(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("ListInstalled() error = %v", err)
	}
	if tools != nil {
		t.Errorf("tools = %v, want nil", tools)
	}
}

func TestListOrphans(t *testing.T) {
	root := filepath.Join(t.TempDir(), "tools")
	writeInstalledTool(t, root, "good", "1.0.0")

	// Broken symlink.
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(root, "gone"), filepath.Join(root, "dangling@1.0.0")); err != nil {
		t.Fatal(err)
	}

	// Manifest-less versioned directory.
	if err := os.MkdirAll(filepath.Join(root, "empty@2.0.0"), 0o755); err != nil {
		t.Fatal(err)
	}

	orphans, err := ListOrphans(root)
	if err != nil {
		t.Fatalf("ListOrphans() error = %v", err)
	}
	if len(orphans) != 2 {
		t.Fatalf("len(orphans) = %d, want 2: %+v", len(orphans), orphans)
	}

	reasons := map[string]string{}
	for _, o := range orphans {
		reasons[filepath.Base(o.Path)] = o.Reason
	}
	if reasons["dangling@1.0.0"] != "broken link" {
		t.Errorf("dangling reason = %q, want %q", reasons["dangling@1.0.0"], "broken link")
	}
	if reasons["empty@2.0.0"] != "no manifest" {
		t.Errorf("empty reason = %q, want %q", reasons["empty@2.0.0"], "no manifest")
	}
}

func TestListOrphans_NamespaceCollapse(t *testing.T) {
	root := filepath.Join(t.TempDir(), "tools")

	// Every entry under the namespace is orphaned, so the namespace itself
	// is reported once.
	allBad := filepath.Join(root, "deadns")
	if err := os.MkdirAll(filepath.Join(allBad, "a@1.0.0"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(allBad, "b@1.0.0"), 0o755); err != nil {
		t.Fatal(err)
	}

	// A namespace with one good and one bad entry reports only the bad one.
	writeInstalledTool(t, filepath.Join(root, "acme"), "good", "1.0.0")
	if err := os.MkdirAll(filepath.Join(root, "acme", "bad@1.0.0"), 0o755); err != nil {
		t.Fatal(err)
	}

	orphans, err := ListOrphans(root)
	if err != nil {
		t.Fatalf("ListOrphans() error = %v", err)
	}
	if len(orphans) != 2 {
		t.Fatalf("len(orphans) = %d, want 2: %+v", len(orphans), orphans)
	}

	paths := map[string]string{}
	for _, o := range orphans {
		paths[o.Path] = o.Reason
	}
	if paths[allBad] != "namespace contains only orphaned entries" {
		t.Errorf("deadns reason = %q, want collapse", paths[allBad])
	}
	if _, ok := paths[filepath.Join(root, "acme", "bad@1.0.0")]; !ok {
		t.Error("acme/bad@1.0.0 not reported")
	}
}

func TestResolveInstalled_HighestVersion(t *testing.T) {
	root := filepath.Join(t.TempDir(), "tools")
	writeInstalledTool(t, filepath.Join(root, "acme"), "weather", "1.9.0")
	writeInstalledTool(t, filepath.Join(root, "acme"), "weather", "1.10.0")

	ref, _ := ParseRef("weather")
	tool, err := ResolveInstalled(root, ref)
	if err != nil {
		t.Fatalf("ResolveInstalled() error = %v", err)
	}
	// Semantic ordering: 1.10.0 > 1.9.0 despite string order.
	if tool.Version != "1.10.0" {
		t.Errorf("Version = %q, want %q", tool.Version, "1.10.0")
	}
}

func TestResolveInstalled_ExactVersion(t *testing.T) {
	root := filepath.Join(t.TempDir(), "tools")
	writeInstalledTool(t, filepath.Join(root, "acme"), "weather", "1.0.0")
	writeInstalledTool(t, filepath.Join(root, "acme"), "weather", "2.0.0")

	ref, _ := ParseRef("acme/weather@1.0.0")
	tool, err := ResolveInstalled(root, ref)
	if err != nil {
		t.Fatalf("ResolveInstalled() error = %v", err)
	}
	if tool.Version != "1.0.0" {
		t.Errorf("Version = %q, want %q", tool.Version, "1.0.0")
	}
}

func TestResolveInstalled_Ambiguous(t *testing.T) {
	root := filepath.Join(t.TempDir(), "tools")
	writeInstalledTool(t, filepath.Join(root, "acme"), "weather", "1.0.0")
	writeInstalledTool(t, filepath.Join(root, "globex"), "weather", "1.0.0")

	ref, _ := ParseRef("weather")
	_, err := ResolveInstalled(root, ref)
	ambiguous, ok := err.(*AmbiguousReferenceError)
	if !ok {
		t.Fatalf("error = %v, want AmbiguousReferenceError", err)
	}
	if len(ambiguous.Candidates) != 2 {
		t.Errorf("len(Candidates) = %d, want 2", len(ambiguous.Candidates))
	}

	// Qualifying the namespace disambiguates.
	ref, _ = ParseRef("acme/weather")
	tool, err := ResolveInstalled(root, ref)
	if err != nil {
		t.Fatalf("ResolveInstalled() error = %v", err)
	}
	if tool.Namespace != "acme" {
		t.Errorf("Namespace = %q, want %q", tool.Namespace, "acme")
	}
}

func TestResolveInstalled_NotFound(t *testing.T) {
	ref, _ := ParseRef("acme/nothing")
	_, err := ResolveInstalled(filepath.Join(t.TempDir(), "tools"), ref)
	if _, ok := err.(*NotFoundError); !ok {
		t.Fatalf("error = %v, want NotFoundError", err)
	}
}

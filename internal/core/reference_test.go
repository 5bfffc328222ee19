package core

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseRef_RegistryQualified(t *testing.T) {
	ref, err := ParseRef("acme/weather@1.2.0")
	if err != nil {
		t.Fatalf("ParseRef() error = %v", err)
	}
	if ref.Kind != RefRegistry {
		t.Errorf("Kind = %q, want %q", ref.Kind, RefRegistry)
	}
	if ref.Namespace != "acme" {
		t.Errorf("Namespace = %q, want %q", ref.Namespace, "acme")
	}
	if ref.Name != "weather" {
		t.Errorf("Name = %q, want %q", ref.Name, "weather")
	}
	if ref.Version != "1.2.0" {
		t.Errorf("Version = %q, want %q", ref.Version, "1.2.0")
	}
	if !ref.Qualified() {
		t.Error("Qualified() = false, want true")
	}
}

func TestParseRef_RegistryLatest(t *testing.T) {
	ref, err := ParseRef("acme/weather")
	if err != nil {
		t.Fatalf("ParseRef() error = %v", err)
	}
	if ref.Version != "" {
		t.Errorf("Version = %q, want empty", ref.Version)
	}
	if ref.String() != "acme/weather" {
		t.Errorf("String() = %q, want %q", ref.String(), "acme/weather")
	}
}

func TestParseRef_BareName(t *testing.T) {
	ref, err := ParseRef("weather@2.0.0")
	if err != nil {
		t.Fatalf("ParseRef() error = %v", err)
	}
	if ref.Kind != RefRegistry {
		t.Errorf("Kind = %q, want %q", ref.Kind, RefRegistry)
	}
	if ref.Namespace != "" {
		t.Errorf("Namespace = %q, want empty", ref.Namespace)
	}
	if ref.Qualified() {
		t.Error("Qualified() = true, want false")
	}
	if ref.String() != "weather@2.0.0" {
		t.Errorf("String() = %q, want %q", ref.String(), "weather@2.0.0")
	}
}

func TestParseRef_LocalPathPrefixes(t *testing.T) {
	for _, input := range []string{"./srv", "../srv", "/abs/srv", "~/srv", ".", ".."} {
		ref, err := ParseRef(input)
		if err != nil {
			t.Fatalf("ParseRef(%q) error = %v", input, err)
		}
		if ref.Kind != RefLocalPath {
			t.Errorf("ParseRef(%q).Kind = %q, want %q", input, ref.Kind, RefLocalPath)
		}
	}
}

func TestParseRef_ExistingDirWithManifest(t *testing.T) {
	dir := t.TempDir()
	toolDir := filepath.Join(dir, "mytool")
	if err := os.MkdirAll(toolDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(toolDir, "manifest.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	cwd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(cwd)

	ref, err := ParseRef("mytool")
	if err != nil {
		t.Fatalf("ParseRef() error = %v", err)
	}
	if ref.Kind != RefLocalPath {
		t.Errorf("Kind = %q, want %q", ref.Kind, RefLocalPath)
	}
}

func TestParseRef_BundleFile(t *testing.T) {
	for _, input := range []string{"demo.mcpb", "demo.MCPB", "path/to/demo.mcpbx"} {
		ref, err := ParseRef(input)
		if err != nil {
			t.Fatalf("ParseRef(%q) error = %v", input, err)
		}
		if ref.Kind != RefBundleFile {
			t.Errorf("ParseRef(%q).Kind = %q, want %q", input, ref.Kind, RefBundleFile)
		}
	}
}

func TestParseRef_Invalid(t *testing.T) {
	inputs := []string{
		"",
		"acme//weather",
		"acme/weather@@1.0",
		"acme/weather@",
		"@1.0.0",
		"a/b/c",
		"Acme/weather",
		"acme/Weather",
		"1weather",
		"a/weather", // namespace below minimum length
		"acme/" + strings.Repeat("x", 101),
	}
	for _, input := range inputs {
		if _, err := ParseRef(input); !errors.Is(err, ErrInvalidReference) {
			t.Errorf("ParseRef(%q) error = %v, want ErrInvalidReference", input, err)
		}
	}
}

func TestParseRef_NameLengthBounds(t *testing.T) {
	// 100-char names and 50-char namespaces are the maximum accepted.
	name := "a" + strings.Repeat("b", 99)
	ns := "a" + strings.Repeat("c", 49)
	if _, err := ParseRef(ns + "/" + name); err != nil {
		t.Errorf("ParseRef() at max lengths error = %v", err)
	}
	if _, err := ParseRef(ns + "x/" + name); err == nil {
		t.Error("ParseRef() expected error for over-long namespace")
	}
}

package core

import (
	"errors"
	"testing"
)

func TestNormalizePlatform(t *testing.T) {
	cases := map[string]string{
		"darwin-arm64":  "darwin-arm64",
		"macos-aarch64": "darwin-arm64",
		"osx-x86_64":    "darwin-x64",
		"windows-x64":   "win32-x64",
		"linux-aarch64": "linux-arm64",
		"universal":     "universal",
		"":              "",
		"plan9-mips":    "plan9-mips",
	}
	for input, want := range cases {
		if got := NormalizePlatform(input); got != want {
			t.Errorf("NormalizePlatform(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestIsValidPlatformKey(t *testing.T) {
	valid := []string{"darwin-arm64", "linux-x64", "win32-x64", "macos-aarch64", "windows-x64"}
	for _, key := range valid {
		if !IsValidPlatformKey(key) {
			t.Errorf("IsValidPlatformKey(%q) = false, want true", key)
		}
	}
	invalid := []string{"universal", "plan9-mips", "darwin", ""}
	for _, key := range invalid {
		if IsValidPlatformKey(key) {
			t.Errorf("IsValidPlatformKey(%q) = true, want false", key)
		}
	}
}

func TestSelectBundle_ExactVariantBeatsUniversal(t *testing.T) {
	files := map[string]int64{
		"demo@1.0.0.mcpb":            100,
		"demo@1.0.0-darwin-x64.mcpb": 200,
	}
	sel, err := SelectBundle(files, "", 0, "darwin-x64", "acme/demo")
	if err != nil {
		t.Fatalf("SelectBundle() error = %v", err)
	}
	if sel.Filename != "demo@1.0.0-darwin-x64.mcpb" {
		t.Errorf("Filename = %q, want the platform variant", sel.Filename)
	}
	if sel.Size != 200 {
		t.Errorf("Size = %d, want 200", sel.Size)
	}
}

func TestSelectBundle_AliasVariant(t *testing.T) {
	files := map[string]int64{
		"demo@1.0.0-darwin-x86_64.mcpb": 150,
	}
	sel, err := SelectBundle(files, "", 0, "darwin-x64", "acme/demo")
	if err != nil {
		t.Fatalf("SelectBundle() error = %v", err)
	}
	if sel.Filename != "demo@1.0.0-darwin-x86_64.mcpb" {
		t.Errorf("Filename = %q, want the x86_64 alias variant", sel.Filename)
	}
}

func TestSelectBundle_ExplicitPlatformMiss(t *testing.T) {
	files := map[string]int64{
		"demo@1.0.0.mcpb": 100,
	}
	_, err := SelectBundle(files, "", 0, "win32-arm64", "acme/demo")
	var unavailable *PlatformUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("SelectBundle() error = %v, want PlatformUnavailableError", err)
	}
	if unavailable.Platform != "win32-arm64" {
		t.Errorf("Platform = %q, want %q", unavailable.Platform, "win32-arm64")
	}
}

func TestSelectBundle_UniversalRequested(t *testing.T) {
	files := map[string]int64{
		"demo@1.0.0-darwin-x64.mcpb": 200,
		"demo@1.0.0.mcpb":            100,
	}
	sel, err := SelectBundle(files, "", 0, "universal", "acme/demo")
	if err != nil {
		t.Fatalf("SelectBundle() error = %v", err)
	}
	if sel.Filename != "demo@1.0.0.mcpb" {
		t.Errorf("Filename = %q, want the universal bundle", sel.Filename)
	}
}

func TestSelectBundle_UniversalFallsBackToMainDownload(t *testing.T) {
	sel, err := SelectBundle(nil, "https://cdn.example/demo@1.0.0.mcpb", 500, "universal", "acme/demo")
	if err != nil {
		t.Fatalf("SelectBundle() error = %v", err)
	}
	if !sel.FromMainDownload {
		t.Error("FromMainDownload = false, want true")
	}
	if sel.Size != 500 {
		t.Errorf("Size = %d, want 500", sel.Size)
	}
	if sel.Ext != "mcpb" {
		t.Errorf("Ext = %q, want %q", sel.Ext, "mcpb")
	}
}

func TestSelectBundle_MainDownloadMustBeBundleTyped(t *testing.T) {
	_, err := SelectBundle(nil, "https://cdn.example/demo.tar.gz", 500, "universal", "acme/demo")
	var unavailable *PlatformUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("SelectBundle() error = %v, want PlatformUnavailableError", err)
	}
}

func TestSelectBundle_NoPlatformPrefersCurrentThenUniversal(t *testing.T) {
	// Only a universal bundle exists; implicit selection must take it
	// regardless of the running platform.
	files := map[string]int64{
		"demo@1.0.0.mcpbx": 300,
	}
	sel, err := SelectBundle(files, "", 0, "", "acme/demo")
	if err != nil {
		t.Fatalf("SelectBundle() error = %v", err)
	}
	if sel.Filename != "demo@1.0.0.mcpbx" {
		t.Errorf("Filename = %q, want the universal bundle", sel.Filename)
	}
	if sel.Ext != "mcpbx" {
		t.Errorf("Ext = %q, want %q", sel.Ext, "mcpbx")
	}
}

func TestSelectBundle_IgnoresNonBundleFiles(t *testing.T) {
	files := map[string]int64{
		"version.json":    40,
		"demo@1.0.0.mcpb": 100,
	}
	sel, err := SelectBundle(files, "", 0, "universal", "acme/demo")
	if err != nil {
		t.Fatalf("SelectBundle() error = %v", err)
	}
	if sel.Filename != "demo@1.0.0.mcpb" {
		t.Errorf("Filename = %q, want %q", sel.Filename, "demo@1.0.0.mcpb")
	}
}

func TestDownloadFilename(t *testing.T) {
	cases := []struct {
		platform string
		want     string
	}{
		{"", "demo@1.0.0.mcpb"},
		{"universal", "demo@1.0.0.mcpb"},
		{"darwin-arm64", "demo@1.0.0-darwin-arm64.mcpb"},
		{"macos-aarch64", "demo@1.0.0-darwin-arm64.mcpb"},
	}
	for _, tc := range cases {
		if got := DownloadFilename("demo", "1.0.0", tc.platform, "mcpb"); got != tc.want {
			t.Errorf("DownloadFilename(platform=%q) = %q, want %q", tc.platform, got, tc.want)
		}
	}
}

package core

import "testing"

func mustParseManifest(t *testing.T, data string) *Manifest {
	t.Helper()
	m, err := ParseManifest([]byte(data))
	if err != nil {
		t.Fatalf("ParseManifest() error = %v", err)
	}
	return m
}

func TestIdentityHash_StableAcrossPlatformVariation(t *testing.T) {
	// Two bundles of the same package differ only in platform-specific
	// fields; their identities must match.
	darwin := mustParseManifest(t, `{
		"manifest_version": "0.2",
		"name": "demo",
		"version": "1.0.0",
		"description": "a demo",
		"server": {"type": "binary", "transport": "stdio", "entry_point": "bin/demo-darwin"},
		"_meta": {"platform_overrides": {"darwin-arm64": {"server": {}}}}
	}`)
	linux := mustParseManifest(t, `{
		"manifest_version": "0.2",
		"name": "demo",
		"version": "1.0.0",
		"description": "a demo",
		"server": {"type": "binary", "transport": "stdio", "entry_point": "bin/demo-linux"},
		"_meta": {"platform_overrides": {"linux-x64": {"server": {}}}}
	}`)

	h1, err := IdentityHash(darwin)
	if err != nil {
		t.Fatalf("IdentityHash() error = %v", err)
	}
	h2, err := IdentityHash(linux)
	if err != nil {
		t.Fatalf("IdentityHash() error = %v", err)
	}
	if h1 != h2 {
		t.Errorf("identities differ: %s vs %s", h1, h2)
	}
}

func TestIdentityHash_VersionChangesIdentity(t *testing.T) {
	a := mustParseManifest(t, testManifestJSON("demo", "1.0.0"))
	b := mustParseManifest(t, testManifestJSON("demo", "1.0.1"))

	h1, _ := IdentityHash(a)
	h2, _ := IdentityHash(b)
	if h1 == h2 {
		t.Error("different versions produced the same identity")
	}
}

func TestIdentityHash_ServerTypeChangesIdentity(t *testing.T) {
	a := mustParseManifest(t, `{"name": "demo", "version": "1.0.0", "server": {"type": "node"}}`)
	b := mustParseManifest(t, `{"name": "demo", "version": "1.0.0", "server": {"type": "python"}}`)

	h1, _ := IdentityHash(a)
	h2, _ := IdentityHash(b)
	if h1 == h2 {
		t.Error("different server types produced the same identity")
	}
}

func TestIdentityHash_MetaScriptsIncluded(t *testing.T) {
	a := mustParseManifest(t, `{"name": "demo", "version": "1.0.0", "_meta": {"scripts": {"build": "make"}}}`)
	b := mustParseManifest(t, `{"name": "demo", "version": "1.0.0", "_meta": {"scripts": {"build": "cmake"}}}`)

	h1, _ := IdentityHash(a)
	h2, _ := IdentityHash(b)
	if h1 == h2 {
		t.Error("different _meta.scripts produced the same identity")
	}
}

func TestIdentityHash_KeyOrderIrrelevant(t *testing.T) {
	a := mustParseManifest(t, `{"name": "demo", "version": "1.0.0", "description": "x"}`)
	b := mustParseManifest(t, `{"description": "x", "version": "1.0.0", "name": "demo"}`)

	h1, _ := IdentityHash(a)
	h2, _ := IdentityHash(b)
	if h1 != h2 {
		t.Errorf("key order changed the identity: %s vs %s", h1, h2)
	}
}

package core

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
)

// identityFields are the top-level manifest fields that must be invariant
// across all platform bundles published under one version. Platform-varying
// fields (entry point, mcp_config, platform overrides) are deliberately
// excluded.
var identityFields = []string{
	"name",
	"version",
	"manifest_version",
	"description",
	"display_name",
	"long_description",
	"author",
	"license",
	"keywords",
	"homepage",
	"repository",
	"tools",
	"tools_generated",
	"prompts",
	"prompts_generated",
	"user_config",
	"system_config",
	"icon",
	"icons",
}

// identityServerFields are the server sub-fields included in the identity.
var identityServerFields = []string{"type", "transport"}

// identityMetaFields are the _meta sub-fields included in the identity.
var identityMetaFields = []string{"static_responses", "scripts"}

// IdentityHash digests the manifest fields that define the logical package,
// independent of platform. Two bundles of the same version must produce the
// same hash or a multi-artifact publish refuses to proceed. The hash is
// sha256 over a canonical (key-sorted) JSON encoding of the field subset;
// absent fields are omitted rather than encoded as null.
func IdentityHash(m *Manifest) (string, error) {
	subset := map[string]any{}
	for _, field := range identityFields {
		if value, ok := m.raw[field]; ok {
			subset[field] = value
		}
	}

	if server, ok := m.raw["server"].(map[string]any); ok {
		serverSubset := map[string]any{}
		for _, field := range identityServerFields {
			if value, ok := server[field]; ok {
				serverSubset[field] = value
			}
		}
		if len(serverSubset) > 0 {
			subset["server"] = serverSubset
		}
	}

	if meta, ok := m.raw["_meta"].(map[string]any); ok {
		metaSubset := map[string]any{}
		for _, field := range identityMetaFields {
			if value, ok := meta[field]; ok {
				metaSubset[field] = value
			}
		}
		if len(metaSubset) > 0 {
			subset["_meta"] = metaSubset
		}
	}

	// encoding/json writes map keys in sorted order at every level, which
	// makes the encoding canonical.
	data, err := json.Marshal(subset)
	if err != nil {
		return "", fmt.Errorf("encoding identity subset: %w", err)
	}
	return fmt.Sprintf("%x", sha256.Sum256(data)), nil
}

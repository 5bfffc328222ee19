package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"
)

const (
	homeDirName         = ".tool"
	toolsDirName        = "tools"
	configFileName      = "config.json"
	credentialsFileName = "credentials.yaml"

	// defaultRegistryURL is used when neither the environment nor the
	// config file names a registry.
	defaultRegistryURL = "https://tool.store"

	// registryEnv overrides the registry URL.
	registryEnv = "TOOL_REGISTRY"

	// tokenEnv overrides the registry auth token.
	tokenEnv = "TOOL_REGISTRY_TOKEN"
)

// Config carries the resolved runtime configuration. It is constructed once
// at startup and threaded through the planner, executor, linker, and
// remover; nothing in this package reads globals or the environment after
// load.
type Config struct {
	ToolsRoot   string // Where tools are installed (~/.tool/tools)
	TempDir     string // Where downloads are staged
	RegistryURL string
	Token       string // Registry auth token, may be empty
}

// fileConfig is the subset of ~/.tool/config.json this tool reads. The file
// is JSONC: comments and trailing commas are allowed.
type fileConfig struct {
	ToolsRoot string `json:"toolsRoot,omitempty"`
	Registry  string `json:"registry,omitempty"`
}

// LoadConfig resolves configuration from ~/.tool/, the environment, and
// defaults. Precedence per value: environment, then config file, then
// default. The token falls back from TOOL_REGISTRY_TOKEN to the
// credentials file entry for the resolved registry URL.
func LoadConfig() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting home directory: %w", err)
	}
	return LoadConfigFromDir(filepath.Join(home, homeDirName))
}

// LoadConfigFromDir resolves configuration rooted at a specific home
// directory. Useful for testing.
func LoadConfigFromDir(homeDir string) (*Config, error) {
	cfg := &Config{
		ToolsRoot:   filepath.Join(homeDir, toolsDirName),
		TempDir:     filepath.Join(os.TempDir(), "tool"),
		RegistryURL: defaultRegistryURL,
	}

	fc, err := readFileConfig(filepath.Join(homeDir, configFileName))
	if err != nil {
		return nil, err
	}
	if fc.ToolsRoot != "" {
		cfg.ToolsRoot = expandPath(fc.ToolsRoot)
	}
	if fc.Registry != "" {
		cfg.RegistryURL = fc.Registry
	}

	if url := os.Getenv(registryEnv); url != "" {
		cfg.RegistryURL = url
	}

	if token := os.Getenv(tokenEnv); token != "" {
		cfg.Token = token
	} else {
		creds, err := readCredentials(filepath.Join(homeDir, credentialsFileName))
		if err != nil {
			return nil, err
		}
		cfg.Token = creds[cfg.RegistryURL]
	}

	return cfg, nil
}

// readFileConfig reads a JSONC config file. A missing file yields zero
// values.
func readFileConfig(path string) (*fileConfig, error) {
	var fc fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &fc, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := json.Unmarshal(standardized, &fc); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &fc, nil
}

// readCredentials reads the registry-URL-to-token map. A missing file yields
// an empty map.
func readCredentials(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading credentials: %w", err)
	}

	creds := map[string]string{}
	if err := yaml.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("parsing credentials: %w", err)
	}
	return creds, nil
}

package domain

import (
	"slices"
	"strings"
)

// StorageType selects the object store backend.
type StorageType string

const (
	// StorageFS keeps objects as files below a root directory.
	StorageFS StorageType = "fs"
	// StorageMemory keeps objects in process memory.
	StorageMemory StorageType = "memory"
)

// StorageConfig describes where repository objects live.
type StorageConfig struct {
	Type StorageType
	// Path is the root directory for StorageFS.
	Path string
	// Staging is the scratch directory used while rebuilding index stores.
	// Empty means the system temporary directory.
	Staging string
}

// SigningConfig holds the key material used to sign the manifest.
type SigningConfig struct {
	SecretKey  []byte
	Passphrase string
}

// Enabled reports whether both a key and a passphrase are configured.
func (s SigningConfig) Enabled() bool {
	return len(s.SecretKey) > 0 && s.Passphrase != ""
}

// Config is the typed configuration of one repository codename.
type Config struct {
	Codename      string
	Components    []string
	Architectures []string
	Storage       StorageConfig
	Signing       SigningConfig
}

// DefaultComponent returns the component used when an operation does not name one.
func (c *Config) DefaultComponent() string {
	if len(c.Components) == 0 {
		return ""
	}
	return c.Components[0]
}

// HasComponent reports whether the repository serves the component.
func (c *Config) HasComponent(component string) bool {
	return slices.Contains(c.Components, component)
}

// TargetArchitectures resolves the Architecture field of a package against the
// configured architectures. "all" targets every configured architecture.
func (c *Config) TargetArchitectures(field string) []string {
	declared := strings.Fields(field)
	if slices.Contains(declared, "all") {
		return slices.Clone(c.Architectures)
	}
	var out []string
	for _, arch := range c.Architectures {
		if slices.Contains(declared, arch) {
			out = append(out, arch)
		}
	}
	return out
}

// IndexKey returns the index key of the component and architecture.
func (c *Config) IndexKey(component, arch string) IndexKey {
	return IndexKey{Codename: c.Codename, Component: component, Arch: arch}
}

// Package config provides the configuration loader for debrepo.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/debrepo/internal/core/domain"
	"go.trai.ch/debrepo/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// DefaultFilename is the configuration file looked up when none is given.
const DefaultFilename = "debrepo.yaml"

const defaultComponent = "main"

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	logger ports.Logger
}

// NewLoader creates a new Loader.
func NewLoader(log ports.Logger) *Loader {
	return &Loader{logger: log}
}

// Load reads the configuration file at path.
func (l *Loader) Load(path string) (*domain.Config, error) {
	if path == "" {
		path = DefaultFilename
	}
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, zerr.With(zerr.Wrap(domain.ErrConfigNotFound, "failed to read config file"), "path", path)
		}
		return nil, zerr.Wrap(err, "failed to read config file")
	}

	var file Repofile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, zerr.Wrap(err, "failed to parse config file")
	}

	cfg, err := l.build(&file, filepath.Dir(path))
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	return cfg, nil
}

func (l *Loader) build(file *Repofile, dir string) (*domain.Config, error) {
	codename := strings.TrimSpace(file.Codename)
	if codename == "" || strings.ContainsAny(codename, "/ ") {
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "codename must be a single path segment"), "codename", codename)
	}
	if len(file.Settings.Architectures) == 0 {
		return nil, zerr.Wrap(domain.ErrInvalidConfig, "at least one architecture is required")
	}
	components := unique(file.Settings.Components)
	if len(components) == 0 {
		components = []string{defaultComponent}
	}

	cfg := &domain.Config{
		Codename:      codename,
		Components:    components,
		Architectures: unique(file.Settings.Architectures),
		Storage: domain.StorageConfig{
			Type:    domain.StorageType(file.Storage.Type),
			Path:    resolve(dir, file.Storage.Path),
			Staging: resolve(dir, file.Storage.Staging),
		},
	}
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = domain.StorageFS
	}
	if cfg.Storage.Type == domain.StorageFS && cfg.Storage.Path == "" {
		cfg.Storage.Path = dir
	}

	signing, err := l.signing(file.Settings, dir)
	if err != nil {
		return nil, err
	}
	cfg.Signing = signing
	return cfg, nil
}

func (l *Loader) signing(settings SettingsDTO, dir string) (domain.SigningConfig, error) {
	if settings.GPGSecretKey == "" {
		return domain.SigningConfig{}, nil
	}
	if settings.GPGPassword == "" {
		l.logger.Warn("gpg_secret_key is set without gpg_password, signing is disabled")
		return domain.SigningConfig{}, nil
	}
	keyPath := resolve(dir, settings.GPGSecretKey)
	key, err := os.ReadFile(keyPath) //nolint:gosec // path is provided by user
	if err != nil {
		return domain.SigningConfig{}, zerr.With(zerr.Wrap(err, "failed to read gpg secret key"), "key_path", keyPath)
	}
	return domain.SigningConfig{SecretKey: key, Passphrase: settings.GPGPassword}, nil
}

func resolve(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// unique drops repeated words, keeping the first occurrence of each.
func unique(words []string) []string {
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

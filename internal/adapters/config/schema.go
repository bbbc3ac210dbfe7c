package config

import (
	"strings"

	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Repofile represents the structure of the debrepo.yaml configuration file.
type Repofile struct {
	Codename string      `yaml:"codename"`
	Storage  StorageDTO  `yaml:"storage"`
	Settings SettingsDTO `yaml:"settings"`
}

// StorageDTO represents the object store section.
type StorageDTO struct {
	Type    string `yaml:"type"`
	Path    string `yaml:"path"`
	Staging string `yaml:"staging"`
}

// SettingsDTO represents the repository settings section.
type SettingsDTO struct {
	Components    Words  `yaml:"Components"`
	Architectures Words  `yaml:"Architectures"`
	GPGPassword   string `yaml:"gpg_password"`
	GPGSecretKey  string `yaml:"gpg_secret_key"`
}

// Words is a list accepting either a YAML sequence or a space separated string.
type Words []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (w *Words) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*w = strings.Fields(node.Value)
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return err
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			out = append(out, strings.Fields(item)...)
		}
		*w = out
		return nil
	default:
		return zerr.With(zerr.New("expected a string or a list of strings"), "line", node.Line)
	}
}

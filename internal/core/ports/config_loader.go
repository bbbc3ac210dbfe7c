package ports

import "go.trai.ch/debrepo/internal/core/domain"

// ConfigLoader defines the interface for loading the repository configuration.
//
//go:generate go run go.uber.org/mock/mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the configuration file at path. Relative paths inside the file
	// resolve against the directory of path.
	Load(path string) (*domain.Config, error)
}

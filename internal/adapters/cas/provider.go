package cas

import (
	"go.trai.ch/debrepo/internal/core/domain"
	"go.trai.ch/debrepo/internal/core/ports"
	"go.trai.ch/zerr"
)

// Provider implements ports.StorageProvider.
type Provider struct{}

// NewProvider creates a new Provider.
func NewProvider() *Provider {
	return &Provider{}
}

// Open returns the object store described by cfg.
func (p *Provider) Open(cfg domain.StorageConfig) (ports.Storage, error) {
	switch cfg.Type {
	case "", domain.StorageFS:
		return NewFileStore(cfg.Path)
	case domain.StorageMemory:
		return NewMemoryStore(), nil
	default:
		return nil, zerr.With(zerr.Wrap(domain.ErrUnknownStorageType, "failed to open storage"), "type", string(cfg.Type))
	}
}

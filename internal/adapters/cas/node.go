package cas

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/debrepo/internal/core/ports"
)

const NodeID graft.ID = "adapter.storage"

func init() {
	graft.Register(graft.Node[ports.StorageProvider]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.StorageProvider, error) {
			return NewProvider(), nil
		},
	})
}

package pgp

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/debrepo/internal/core/ports"
)

const NodeID graft.ID = "adapter.signer"

func init() {
	graft.Register(graft.Node[ports.Signer]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Signer, error) {
			return NewSigner(), nil
		},
	})
}

package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/debrepo/internal/adapters/cas"                //nolint:depguard // Wired in app layer
	"go.trai.ch/debrepo/internal/adapters/config"             //nolint:depguard // Wired in app layer
	"go.trai.ch/debrepo/internal/adapters/logger"             //nolint:depguard // Wired in app layer
	"go.trai.ch/debrepo/internal/adapters/pgp"                //nolint:depguard // Wired in app layer
	"go.trai.ch/debrepo/internal/adapters/telemetry/progrock" //nolint:depguard // Wired in app layer
	"go.trai.ch/debrepo/internal/core/ports"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	// App Node
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			cas.NodeID,
			pgp.NodeID,
			logger.NodeID,
			progrock.NodeID,
		},
		Run: runAppNode,
	})

	// Components Node
	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
			progrock.NodeID,
		},
		Run: runComponentsNode,
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}

	storage, err := graft.Dep[ports.StorageProvider](ctx)
	if err != nil {
		return nil, err
	}

	signer, err := graft.Dep[ports.Signer](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	telemetry, err := graft.Dep[ports.Telemetry](ctx)
	if err != nil {
		return nil, err
	}

	return New(loader, storage, signer, log, telemetry), nil
}

func runComponentsNode(ctx context.Context) (*Components, error) {
	a, err := graft.Dep[*App](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	telemetry, err := graft.Dep[ports.Telemetry](ctx)
	if err != nil {
		return nil, err
	}

	return &Components{
		App:       a,
		Logger:    log,
		Telemetry: telemetry,
	}, nil
}

// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/debrepo/internal/adapters/cas"
	_ "go.trai.ch/debrepo/internal/adapters/config"
	_ "go.trai.ch/debrepo/internal/adapters/logger"
	_ "go.trai.ch/debrepo/internal/adapters/pgp"
	_ "go.trai.ch/debrepo/internal/adapters/telemetry/progrock"
	// Register app nodes.
	_ "go.trai.ch/debrepo/internal/app"
)

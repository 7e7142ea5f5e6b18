package app

import (
	"context"

	"github.com/grindlemire/graft"
	"github.com/spf13/afero"

	"github.com/lu-zero/ldconfig/internal/adapters/config"
	"github.com/lu-zero/ldconfig/internal/adapters/logger"
	"github.com/lu-zero/ldconfig/internal/core/ports"
	"github.com/lu-zero/ldconfig/internal/engine/builder"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components bundles the resolved application pieces for the CLI entry point.
type Components struct {
	App    *App
	Logger ports.Logger
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			builder.NodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*App, error) {
			parser, err := graft.Dep[ports.ConfigParser](ctx)
			if err != nil {
				return nil, err
			}
			b, err := graft.Dep[*builder.Builder](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return New(afero.NewOsFs(), parser, b, log), nil
		},
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			a, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return &Components{App: a, Logger: log}, nil
		},
	})
}

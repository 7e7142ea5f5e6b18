package config

import (
	"context"

	"github.com/grindlemire/graft"
	"github.com/spf13/afero"

	"github.com/lu-zero/ldconfig/internal/adapters/logger"
	"github.com/lu-zero/ldconfig/internal/core/ports"
)

const NodeID graft.ID = "adapter.config_parser"

func init() {
	graft.Register(graft.Node[ports.ConfigParser]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.ConfigParser, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewParser(afero.NewOsFs(), log), nil
		},
	})
}

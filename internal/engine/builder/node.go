package builder

import (
	"context"

	"github.com/grindlemire/graft"
	"github.com/spf13/afero"

	"github.com/lu-zero/ldconfig/internal/adapters/elffile"
	"github.com/lu-zero/ldconfig/internal/adapters/logger"
	"github.com/lu-zero/ldconfig/internal/core/ports"
)

const NodeID graft.ID = "engine.builder"

func init() {
	graft.Register(graft.Node[*Builder]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{elffile.NodeID, logger.NodeID},
		Run: func(ctx context.Context) (*Builder, error) {
			classifier, err := graft.Dep[ports.Classifier](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return New(afero.NewOsFs(), classifier, log), nil
		},
	})
}

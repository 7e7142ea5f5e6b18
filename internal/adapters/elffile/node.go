package elffile

import (
	"context"

	"github.com/grindlemire/graft"
	"github.com/spf13/afero"

	"github.com/lu-zero/ldconfig/internal/core/ports"
)

const NodeID graft.ID = "adapter.classifier"

func init() {
	graft.Register(graft.Node[ports.Classifier]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (ports.Classifier, error) {
			return NewClassifier(afero.NewOsFs()), nil
		},
	})
}

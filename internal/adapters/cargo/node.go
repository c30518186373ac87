package cargo

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/cargo-metadata-mcp/internal/adapters/logger"
	"go.trai.ch/cargo-metadata-mcp/internal/adapters/telemetry"
	"go.trai.ch/cargo-metadata-mcp/internal/core/ports"
)

// NodeID is the unique identifier for the cargo resolver Graft node.
const NodeID graft.ID = "adapter.cargo"

func init() {
	graft.Register(graft.Node[ports.MetadataResolver]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID, telemetry.NodeID},
		Run: func(ctx context.Context) (ports.MetadataResolver, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			tel, err := graft.Dep[ports.Telemetry](ctx)
			if err != nil {
				return nil, err
			}
			return NewResolver(log, tel), nil
		},
	})
}

package workflow

import (
	"context"

	"dubline/internal/config"
	"dubline/internal/preflight"
	"dubline/internal/stage"
)

// CapabilityHealth reports whether the external tools behind each capability
// can be found.
func CapabilityHealth(ctx context.Context, cfg *config.Config) []stage.Health {
	statuses := preflight.CheckSystemDeps(ctx, cfg)
	health := make([]stage.Health, 0, len(statuses))
	for _, status := range statuses {
		if status.Available {
			health = append(health, stage.Healthy(status.Name))
			continue
		}
		health = append(health, stage.Unhealthy(status.Name, status.Detail))
	}
	return health
}

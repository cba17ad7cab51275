package cmd

import (
	"log/slog"

	"github.com/stack360co/automatisch/pkg/app"
	"github.com/stack360co/automatisch/pkg/apps/delay"
	"github.com/stack360co/automatisch/pkg/apps/formatter"
	"github.com/stack360co/automatisch/pkg/apps/httpapp"
	"github.com/stack360co/automatisch/pkg/apps/redisq"
	"github.com/stack360co/automatisch/pkg/apps/scheduler"
	"github.com/stack360co/automatisch/pkg/apps/webhookapp"
)

// NewRegistry builds the app registry with every built-in app registered.
func NewRegistry(logger *slog.Logger) (*app.Registry, error) {
	registry := app.NewRegistry(logger)

	for _, a := range []*app.App{
		webhookapp.New(),
		scheduler.New(),
		httpapp.New(),
		formatter.New(),
		delay.New(),
		redisq.New(),
	} {
		if err := registry.RegisterApp(a); err != nil {
			return nil, err
		}
	}

	return registry, nil
}

package main

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectoinject/ectocontainer"
	"github.com/Gobusters/ectoinject/loglevel"
	"github.com/Gobusters/ectologger"

	reportroutes "github.com/Ramsey-B/fern/pkg/routes/reports"
)

// newContainer registers the process wide dependencies the route handlers
// resolve per request. Container ids are global to the process.
func newContainer(id string, logger ectologger.Logger, service reportroutes.Service) (ectocontainer.DIContainer, error) {
	container, err := ectoinject.NewDIContainer(ectocontainer.DIContainerConfig{
		ID:                       id,
		AllowCaptiveDependencies: true,
		AllowMissingDependencies: true,
		LoggerConfig: &ectocontainer.DIContainerLoggerConfig{
			Prefix:   "ectoinject",
			LogLevel: loglevel.WARN,
			Enabled:  true,
			LogFunc: func(ctx context.Context, level, msg string) {
				if level == loglevel.WARN {
					logger.WithContext(ctx).Warn(msg)
					return
				}
				logger.WithContext(ctx).Debug(msg)
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create dependency container: %w", err)
	}

	if err := ectoinject.RegisterInstance[ectologger.Logger](container, logger); err != nil {
		return nil, fmt.Errorf("failed to register logger: %w", err)
	}
	if err := ectoinject.RegisterInstance[reportroutes.Service](container, service); err != nil {
		return nil, fmt.Errorf("failed to register report service: %w", err)
	}

	return container, nil
}

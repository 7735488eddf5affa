// Command config-service serves the resolved application configuration.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/crvs-platform/appconfig/pkg/app"
	"github.com/crvs-platform/appconfig/pkg/cli"
	"github.com/crvs-platform/appconfig/pkg/config"
	"github.com/crvs-platform/appconfig/pkg/health"
	"github.com/crvs-platform/appconfig/pkg/observability/logger"
)

func main() {
	cmd := cli.NewServiceCommand(cli.ServiceCommandOptions{
		Name:        "config",
		Description: "Application configuration service",
		RunServer:   runServer,
		CheckDependencies: func(ctx context.Context, cfg *config.Config, log logger.Logger) error {
			result, err := app.CheckDependencies(ctx, cfg, log)
			for _, check := range result.Checks {
				fmt.Printf("%-16s %-10s %s\n", check.Name, check.Status, check.Error)
			}
			if err == nil && result.Status == health.StatusDegraded {
				fmt.Println("warning: running in degraded mode")
			}
			return err
		},
	})
	cli.Execute(cmd)
}

func runServer(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	service, err := app.New(ctx, cfg, log, app.Dependencies{})
	if err != nil {
		return err
	}
	return service.Run(ctx)
}

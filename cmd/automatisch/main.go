package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	cli "github.com/urfave/cli/v3"

	"github.com/stack360co/automatisch/pkg/cmd"
	"github.com/stack360co/automatisch/pkg/config"
	"github.com/stack360co/automatisch/pkg/log"
	"github.com/stack360co/automatisch/pkg/runner"
	"github.com/stack360co/automatisch/pkg/services"
)

func main() {
	logger := log.WithModule("cli")

	command := &cli.Command{
		Name:                  "automatisch",
		Usage:                 "Create and manage automation flows",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Database connection URL for persistence",
				Value:   "./data",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "warn",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "apps",
				Usage: "List the available apps and their commands",
				Action: func(ctx context.Context, command *cli.Command) error {
					log.Setup(command.String("log-level"))

					registry, err := cmd.NewRegistry(logger)
					if err != nil {
						return err
					}

					w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
					fmt.Fprintln(w, "KEY\tNAME\tTRIGGERS\tACTIONS")

					for _, a := range registry.Apps() {
						fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", a.Key, a.Name, len(a.Triggers), len(a.Actions))
					}

					return w.Flush()
				},
			},
			{
				Name:  "flow",
				Usage: "Manage flows",
				Commands: []*cli.Command{
					{
						Name:  "create",
						Usage: "Create a new flow with an empty trigger step",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:     "name",
								Usage:    "Flow name",
								Required: true,
							},
						},
						Action: func(ctx context.Context, command *cli.Command) error {
							log.Setup(command.String("log-level"))

							persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
							if err != nil {
								return err
							}
							defer persistence.Close(ctx) //nolint:errcheck

							flow, err := services.NewFlow(persistence).Create(ctx, services.CreateFlowRequest{
								Name: command.String("name"),
							})
							if err != nil {
								return err
							}

							fmt.Printf("Created flow %s (%s)\n", flow.ID, flow.Name)

							return nil
						},
					},
					{
						Name:  "list",
						Usage: "List flows",
						Action: func(ctx context.Context, command *cli.Command) error {
							log.Setup(command.String("log-level"))

							persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
							if err != nil {
								return err
							}
							defer persistence.Close(ctx) //nolint:errcheck

							flows, err := services.NewFlow(persistence).List(ctx)
							if err != nil {
								return err
							}

							w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
							fmt.Fprintln(w, "ID\tNAME\tACTIVE\tSTEPS")

							for _, flow := range flows {
								fmt.Fprintf(w, "%s\t%s\t%t\t%d\n", flow.ID, flow.Name, flow.Active, len(flow.Steps))
							}

							return w.Flush()
						},
					},
					{
						Name:      "delete",
						Usage:     "Delete a flow and everything beneath it",
						ArgsUsage: "<flow-id>",
						Action: func(ctx context.Context, command *cli.Command) error {
							log.Setup(command.String("log-level"))

							id := command.Args().First()
							if id == "" {
								return fmt.Errorf("flow ID is required")
							}

							persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
							if err != nil {
								return err
							}
							defer persistence.Close(ctx) //nolint:errcheck

							if err := services.NewFlow(persistence).Delete(ctx, id); err != nil {
								return err
							}

							fmt.Printf("Deleted flow %s\n", id)

							return nil
						},
					},
				},
			},
			{
				Name:  "step",
				Usage: "Manage steps",
				Commands: []*cli.Command{
					{
						Name:      "test",
						Usage:     "Execute a single step and mark it completed on success",
						ArgsUsage: "<step-id>",
						Action: func(ctx context.Context, command *cli.Command) error {
							log.Setup(command.String("log-level"))

							id := command.Args().First()
							if id == "" {
								return fmt.Errorf("step ID is required")
							}

							persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
							if err != nil {
								return err
							}
							defer persistence.Close(ctx) //nolint:errcheck

							registry, err := cmd.NewRegistry(logger)
							if err != nil {
								return err
							}

							cfg := config.FromEnv()
							executor := runner.NewStepRunner(persistence, registry, cfg, nil, logger)
							stepService := services.NewStep(persistence, registry, cfg, nil, executor)

							step, err := stepService.Test(ctx, id)
							if err != nil {
								return err
							}

							fmt.Printf("Step %s executed, status: %s\n", step.ID, step.Status)

							return nil
						},
					},
				},
			},
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		logger.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

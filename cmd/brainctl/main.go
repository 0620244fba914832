package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/lyzr/secondbrain/cmd/brain/container"
	"github.com/lyzr/secondbrain/common/bootstrap"
	"github.com/lyzr/secondbrain/common/logger"
	"github.com/urfave/cli/v2"
)

func main() {
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "brainctl",
		Usage: "Administer a second brain deployment",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "Apply the database schema",
				Action: migrateCommand,
			},
			{
				Name:   "reindex",
				Usage:  "Re-run ingestion for saved content and wait for the results",
				Action: reindexCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "user",
						Aliases: []string{"u"},
						Usage:   "Only reindex this user id (default: every user)",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of jobs in flight before waiting",
						Value: 100,
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "Give up waiting after this long",
						Value: 30 * time.Minute,
					},
				},
			},
			{
				Name:   "job",
				Usage:  "Print the status of an ingestion job",
				Action: jobCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Ingestion job id",
						Required: true,
					},
				},
			},
		},
	}
}

func setup(c *cli.Context, opts ...bootstrap.Option) (*bootstrap.Components, error) {
	log := logger.New(c.String("log-level"), "text")
	opts = append(opts, bootstrap.WithCustomLogger(log), bootstrap.WithoutTelemetry())
	return bootstrap.Setup(c.Context, "brainctl", opts...)
}

func migrateCommand(c *cli.Context) error {
	components, err := setup(c, bootstrap.WithMigrations(), bootstrap.WithoutRedis(), bootstrap.WithoutCache())
	if err != nil {
		return err
	}
	defer components.Shutdown(context.Background())

	fmt.Fprintln(c.App.Writer, "schema is up to date")
	return nil
}

func reindexCommand(c *cli.Context) error {
	var only uuid.UUID
	if raw := c.String("user"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid --user: %w", err)
		}
		only = id
	}

	components, err := setup(c, bootstrap.WithoutCache())
	if err != nil {
		return err
	}
	defer components.Shutdown(context.Background())

	sc, err := container.NewContainer(components)
	if err != nil {
		return err
	}
	defer sc.Close(context.Background())

	ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
	defer cancel()

	r := &reindexer{
		users:     sc.UserRepo,
		contents:  sc.ContentRepo,
		runner:    sc.Orchestrator,
		batchSize: c.Int("batch-size"),
		log:       components.Logger,
	}
	result, err := r.Run(ctx, only)
	fmt.Fprintf(c.App.Writer, "submitted=%d succeeded=%d failed=%d\n", result.Submitted, result.Succeeded, result.Failed)
	if err != nil {
		return err
	}
	if result.Failed > 0 {
		return cli.Exit(fmt.Sprintf("%d ingestion jobs failed", result.Failed), 2)
	}
	return nil
}

func jobCommand(c *cli.Context) error {
	id, err := uuid.Parse(c.String("id"))
	if err != nil {
		return fmt.Errorf("invalid --id: %w", err)
	}

	components, err := setup(c, bootstrap.WithoutDB(), bootstrap.WithoutCache())
	if err != nil {
		return err
	}
	defer components.Shutdown(context.Background())

	statuses, err := jobStatusStore(components)
	if err != nil {
		return err
	}

	job, err := statuses.Get(c.Context, id)
	if err != nil {
		return err
	}
	return printJob(c.App.Writer, job)
}

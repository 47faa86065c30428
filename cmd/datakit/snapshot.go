package main

import (
	"fmt"

	"github.com/mobiledna/datakit/internal/db/elasticsearch/bootstrapper"
	cli "github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func snapshotCommand(args *arguments, logger *zap.Logger) *cli.Command {
	var repository string
	var snapshot string
	var indices cli.StringSlice

	commonFlags := []cli.Flag{
		&cli.StringFlag{
			Name:        "repository",
			Aliases:     []string{"r"},
			Usage:       "Registered snapshot repository",
			Required:    true,
			Destination: &repository,
		},
		&cli.StringFlag{
			Name:        "snapshot",
			Aliases:     []string{"s"},
			Usage:       "Snapshot name",
			Required:    true,
			Destination: &snapshot,
		},
	}

	indicesFlag := &cli.StringSliceFlag{
		Name:        "index",
		Aliases:     []string{"i"},
		Usage:       "Event index to include (repeatable, default all)",
		Destination: &indices,
	}

	resolveIndices := func() []string {
		if values := indices.Value(); len(values) > 0 {
			return values
		}
		return bootstrapper.Indices()
	}

	return &cli.Command{
		Name:  "snapshot",
		Usage: "Back up and reinstate the event indices",
		Subcommands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Snapshot the event indices into a repository",
				Flags: append(commonFlags, indicesFlag),
				Action: func(c *cli.Context) error {
					tk, err := newToolkit(c.Context, args.ConfigPath, logger)
					if err != nil {
						return err
					}
					if err := tk.sc.CreateSnapshot(c.Context, repository, snapshot, resolveIndices()); err != nil {
						return err
					}
					logger.Info(
						"Snapshot created",
						zap.String("repository", repository),
						zap.String("snapshot", snapshot),
					)
					return nil
				},
			},
			{
				Name:  "restore",
				Usage: "Reinstate the event indices from a snapshot",
				Flags: append(commonFlags, indicesFlag),
				Action: func(c *cli.Context) error {
					tk, err := newToolkit(c.Context, args.ConfigPath, logger)
					if err != nil {
						return err
					}
					if err := tk.sc.RestoreSnapshot(c.Context, repository, snapshot, resolveIndices()); err != nil {
						return err
					}
					logger.Info(
						"Snapshot restored",
						zap.String("repository", repository),
						zap.String("snapshot", snapshot),
					)
					return nil
				},
			},
			{
				Name:  "status",
				Usage: "Show the state of a snapshot",
				Flags: commonFlags,
				Action: func(c *cli.Context) error {
					tk, err := newToolkit(c.Context, args.ConfigPath, logger)
					if err != nil {
						return err
					}
					info, err := tk.sc.SnapshotStatus(c.Context, repository, snapshot)
					if err != nil {
						return err
					}
					fmt.Printf("%s\t%s\t%d indices\n", info.Snapshot, info.State, len(info.Indices))
					return nil
				},
			},
		},
	}
}

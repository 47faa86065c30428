package main

import (
	"fmt"

	cli "github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func countCommand(args *arguments, logger *zap.Logger) *cli.Command {
	var ids cli.StringSlice

	return &cli.Command{
		Name:  "count",
		Usage: "Count the documents a set of ids logged in an index",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "index",
				Aliases:     []string{"i"},
				Usage:       "Event index to count in",
				Value:       "appevents",
				Destination: &args.Index,
			},
			&cli.StringSliceFlag{
				Name:        "id",
				Usage:       "Subject identifier (repeatable)",
				Required:    true,
				Destination: &ids,
			},
			&cli.StringFlag{
				Name:        "start",
				Usage:       "Inclusive range start",
				Value:       defaultStart,
				Destination: &args.Start,
			},
			&cli.StringFlag{
				Name:        "end",
				Usage:       "Inclusive range end",
				Value:       defaultEnd,
				Destination: &args.End,
			},
		},
		Action: func(c *cli.Context) error {
			timeRange, err := parseTimeRangeArgs(args.Start, args.End)
			if err != nil {
				return err
			}
			tk, err := newToolkit(c.Context, args.ConfigPath, logger)
			if err != nil {
				return err
			}

			count, err := tk.fetch.CountDocuments(c.Context, args.Index, ids.Value(), timeRange)
			if err != nil {
				return err
			}
			fmt.Println(count)
			return nil
		},
	}
}

package main

import (
	"fmt"

	idsService "github.com/mobiledna/datakit/internal/ids/service"
	cli "github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func idsCommand(args *arguments, logger *zap.Logger) *cli.Command {
	var fromFileDir string
	var fileName string
	var top int
	var random int
	var common bool

	return &cli.Command{
		Name:  "ids",
		Usage: "List subject identifiers from the server or a local file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "index",
				Aliases:     []string{"i"},
				Usage:       "Event index to enumerate",
				Value:       "appevents",
				Destination: &args.Index,
			},
			&cli.StringFlag{
				Name:        "start",
				Usage:       "Inclusive range start (yyyy-MM-ddTHH:mm:ss.SSS)",
				Value:       defaultStart,
				Destination: &args.Start,
			},
			&cli.StringFlag{
				Name:        "end",
				Usage:       "Inclusive range end (yyyy-MM-ddTHH:mm:ss.SSS)",
				Value:       defaultEnd,
				Destination: &args.End,
			},
			&cli.StringFlag{
				Name:        "from-file",
				Usage:       "Read ids from this directory instead of the server",
				Destination: &fromFileDir,
			},
			&cli.StringFlag{
				Name:        "file-name",
				Usage:       "Base name of the id file",
				Value:       idsService.DefaultIdsFileName,
				Destination: &fileName,
			},
			&cli.IntFlag{
				Name:        "top",
				Usage:       "Only show the N ids with the most documents (0 for all)",
				Destination: &top,
			},
			&cli.IntFlag{
				Name:        "random",
				Usage:       "Show a uniform random sample of N ids instead of all",
				Destination: &random,
			},
			&cli.BoolFlag{
				Name:        "common",
				Usage:       "Only show ids present in sessions, notifications and appevents",
				Destination: &common,
			},
		},
		Action: func(c *cli.Context) error {
			if fromFileDir != "" {
				idSet, err := idsService.IdsFromFile(fromFileDir, fileName, "")
				if err != nil {
					return err
				}
				selected, err := selectIds(toCounts(idSet), random, top)
				if err != nil {
					return err
				}
				for _, idCount := range selected {
					fmt.Println(idCount.Id)
				}
				return nil
			}

			timeRange, err := parseTimeRangeArgs(args.Start, args.End)
			if err != nil {
				return err
			}
			tk, err := newToolkit(c.Context, args.ConfigPath, logger)
			if err != nil {
				return err
			}

			ids := make(map[string]int64)
			if common {
				ids, err = tk.ids.CommonIds(c.Context, args.Index, timeRange)
			} else {
				ids, err = tk.ids.IdsFromServer(c.Context, args.Index, timeRange)
			}
			if err != nil {
				return err
			}

			selected, err := selectIds(ids, random, top)
			if err != nil {
				return err
			}
			for _, idCount := range selected {
				fmt.Printf("%s,%d\n", idCount.Id, idCount.Count)
			}
			return nil
		},
	}
}

func toCounts(idSet map[string]struct{}) map[string]int64 {
	counts := make(map[string]int64, len(idSet))
	for id := range idSet {
		counts[id] = 0
	}
	return counts
}

package main

import (
	"encoding/json"
	"fmt"

	exportService "github.com/mobiledna/datakit/internal/export/service"
	cli "github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func fetchCommand(args *arguments, logger *zap.Logger) *cli.Command {
	var ids cli.StringSlice
	var idsDir string
	var idsFileName string
	var preview int

	return &cli.Command{
		Name:  "fetch",
		Usage: "Fetch documents for a set of ids and export them",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "index",
				Aliases:     []string{"i"},
				Usage:       "Event index to fetch from",
				Value:       "appevents",
				Destination: &args.Index,
			},
			&cli.StringSliceFlag{
				Name:        "id",
				Usage:       "Subject identifier (repeatable, overrides --ids-dir)",
				Destination: &ids,
			},
			&cli.StringFlag{
				Name:        "ids-dir",
				Usage:       "Directory holding the id file",
				Destination: &idsDir,
			},
			&cli.StringFlag{
				Name:        "ids-file",
				Usage:       "Base name of the id file",
				Value:       "ids",
				Destination: &idsFileName,
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
			&cli.StringFlag{
				Name:        "dir",
				Aliases:     []string{"d"},
				Usage:       "Export target directory",
				Value:       "data",
				Destination: &args.Dir,
			},
			&cli.StringFlag{
				Name:        "name",
				Aliases:     []string{"n"},
				Usage:       "Dataset name prefixing the exported file",
				Required:    true,
				Destination: &args.Name,
			},
			&cli.StringFlag{
				Name:        "format",
				Aliases:     []string{"f"},
				Usage:       "Export format: csv or parquet",
				Value:       string(exportService.FormatCSV),
				Destination: &args.Format,
			},
			&cli.IntFlag{
				Name:        "preview",
				Usage:       "Print at most N documents as JSON instead of exporting",
				Destination: &preview,
			},
		},
		Action: func(c *cli.Context) error {
			timeRange, err := parseTimeRangeArgs(args.Start, args.End)
			if err != nil {
				return err
			}
			idList, err := resolveIds(ids.Value(), idsDir, idsFileName)
			if err != nil {
				return err
			}
			tk, err := newToolkit(c.Context, args.ConfigPath, logger)
			if err != nil {
				return err
			}

			if preview > 0 {
				docs, err := tk.fetch.Preview(c.Context, args.Index, idList, timeRange, preview)
				if err != nil {
					return err
				}
				for _, doc := range docs {
					line, err := json.Marshal(doc)
					if err != nil {
						return err
					}
					fmt.Println(string(line))
				}
				return nil
			}

			documents, failed, err := tk.fetch.FetchIds(c.Context, args.Index, idList, timeRange)
			if err != nil {
				return err
			}
			if len(failed) > 0 {
				logger.Warn("Some ids could not be fetched", zap.Strings("ids", failed))
			}
			return tk.export.ExportDocuments(
				args.Dir,
				args.Name,
				args.Index,
				documents,
				exportService.Format(args.Format),
			)
		},
	}
}

package main

import (
	exportService "github.com/mobiledna/datakit/internal/export/service"
	pipelineService "github.com/mobiledna/datakit/internal/pipeline/service"
	cli "github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func pipelineCommand(args *arguments, logger *zap.Logger) *cli.Command {
	var ids cli.StringSlice
	var indices cli.StringSlice
	var idsDir string
	var idsFileName string
	var split bool
	var subfolder bool

	return &cli.Command{
		Name:  "pipeline",
		Usage: "Fetch and export data across indices for a set of ids",
		Flags: []cli.Flag{
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
			&cli.StringSliceFlag{
				Name:        "index",
				Aliases:     []string{"i"},
				Usage:       "Event index to include (repeatable, default all)",
				Destination: &indices,
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
				Usage:       "Dataset name prefixing exported files",
				Value:       "dataset",
				Destination: &args.Name,
			},
			&cli.StringFlag{
				Name:        "format",
				Aliases:     []string{"f"},
				Usage:       "Export format: csv or parquet",
				Value:       string(exportService.FormatCSV),
				Destination: &args.Format,
			},
			&cli.BoolFlag{
				Name:        "split",
				Usage:       "Write one dataset per id, named after the id",
				Destination: &split,
			},
			&cli.BoolFlag{
				Name:        "subfolder",
				Usage:       "Place each index's dataset in its own subdirectory",
				Destination: &subfolder,
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

			opts := pipelineService.Options{
				Name:      args.Name,
				Dir:       args.Dir,
				Indices:   indices.Value(),
				Subfolder: subfolder,
				Format:    exportService.Format(args.Format),
			}
			if len(opts.Indices) == 0 {
				opts.Indices = nil
			}

			var failed []string
			if split {
				failed, err = tk.pipeline.RunSplit(c.Context, idList, timeRange, opts)
			} else {
				failed, err = tk.pipeline.Run(c.Context, idList, timeRange, opts)
			}
			if err != nil {
				return err
			}
			if len(failed) > 0 {
				logger.Warn("Some ids could not be pulled", zap.Strings("ids", failed))
			}
			return nil
		},
	}
}

package main

import (
	"context"
	"log"
	"os"

	"github.com/mobiledna/datakit/internal/config"
	"github.com/mobiledna/datakit/internal/db/elasticsearch/client"
	exportService "github.com/mobiledna/datakit/internal/export/service"
	fetchService "github.com/mobiledna/datakit/internal/fetch/service"
	idsService "github.com/mobiledna/datakit/internal/ids/service"
	pipelineService "github.com/mobiledna/datakit/internal/pipeline/service"
	cli "github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

type arguments struct {
	ConfigPath string
	Index      string
	Start      string
	End        string
	Dir        string
	Name       string
	Format     string
}

// toolkit bundles the connected services the commands run on.
type toolkit struct {
	sc       client.StoreClient
	ids      *idsService.IdsService
	fetch    *fetchService.FetchService
	export   *exportService.ExportService
	pipeline *pipelineService.DataPipeline
	logger   *zap.Logger
}

func newToolkit(ctx context.Context, configPath string, logger *zap.Logger) (*toolkit, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	es, err := client.Connect(ctx, cfg.Elasticsearch)
	if err != nil {
		return nil, err
	}
	sc := client.NewStoreClientImpl(es)
	fetchSvc := fetchService.NewFetchService(sc, logger)
	exportSvc := exportService.NewExportService(logger)
	return &toolkit{
		sc:       sc,
		ids:      idsService.NewIdsService(sc, logger),
		fetch:    fetchSvc,
		export:   exportSvc,
		pipeline: pipelineService.NewDataPipeline(fetchSvc, exportSvc, logger),
		logger:   logger,
	}, nil
}

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	var args arguments

	app := &cli.App{
		Name:  "datakit",
		Usage: "query and export mobile-usage log data",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to the YAML configuration file",
				Value:       "config.yml",
				EnvVars:     []string{"DATAKIT_CONFIG"},
				Destination: &args.ConfigPath,
			},
		},
		Commands: []*cli.Command{
			idsCommand(&args, logger),
			countCommand(&args, logger),
			fetchCommand(&args, logger),
			pipelineCommand(&args, logger),
			snapshotCommand(&args, logger),
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Fatal("Abort", zap.Error(err))
	}
}

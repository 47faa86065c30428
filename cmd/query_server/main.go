package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/dgraph-io/ristretto"
	"github.com/mobiledna/datakit/internal/config"
	"github.com/mobiledna/datakit/internal/db/elasticsearch/bootstrapper"
	"github.com/mobiledna/datakit/internal/db/elasticsearch/client"
	fetchService "github.com/mobiledna/datakit/internal/fetch/service"
	idsService "github.com/mobiledna/datakit/internal/ids/service"
	"github.com/mobiledna/datakit/internal/query_server/router"
	"github.com/mobiledna/datakit/internal/query_server/service"
	"go.uber.org/zap"
)

const defaultConfigPath = "config.yml"

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	configPath := os.Getenv("DATAKIT_CONFIG")
	if configPath == "" {
		configPath = defaultConfigPath
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx := context.Background()
	es, err := client.Connect(ctx, cfg.Elasticsearch)
	if err != nil {
		logger.Fatal("Failed to connect to elasticsearch", zap.Error(err))
	}

	bs := bootstrapper.NewBootstrapper(es, logger)
	if err := bs.BootstrapElasticsearch(); err != nil {
		logger.Fatal("Failed to bootstrap elasticsearch", zap.Error(err))
	}

	sc := client.NewStoreClientImpl(es)
	idsSvc := idsService.NewIdsService(sc, logger)
	fetchSvc := fetchService.NewFetchService(sc, logger)

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e5,
		MaxCost:     1 << 26,
		BufferItems: 64,
	})
	if err != nil {
		logger.Fatal("Failed to create id cache", zap.Error(err))
	}

	qs := service.NewCachedIdsQueryService(idsSvc, fetchSvc, cache, logger)

	r := router.CreateRouter(ctx, qs, logger)
	logger.Info("Starting query server", zap.String("addr", cfg.Server.ListenAddr))
	if err := http.ListenAndServe(cfg.Server.ListenAddr, r); err != nil {
		logger.Fatal("Failed to serve", zap.Error(err))
	}
}

package elasticsearch

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/mobiledna/datakit/internal/config"
	"github.com/mobiledna/datakit/internal/db/elasticsearch/bootstrapper"
	"github.com/mobiledna/datakit/internal/db/elasticsearch/client"
	"go.uber.org/zap"
)

var es *elasticsearch.Client
var sc client.StoreClient
var logger *zap.Logger

func TestMain(m *testing.M) {
	var err error
	logger, err = zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	ctx := context.Background()
	host, port, cleanup, err := startElasticSearchContainer(ctx, logger)
	if err != nil {
		logger.Fatal("Failed to start container", zap.Error(err))
	}

	esCfg := config.Elasticsearch{
		Address:        host,
		Port:           port,
		TimeoutSeconds: 100,
		MaxRetries:     10,
	}
	es, err = client.Connect(ctx, esCfg)
	if err != nil {
		logger.Fatal("Failed to connect to elasticsearch", zap.Error(err))
	}
	sc = client.NewStoreClientImpl(es)

	bs := bootstrapper.NewBootstrapper(es, logger)
	if err := bs.BootstrapElasticsearch(); err != nil {
		logger.Fatal("Failed to bootstrap elasticsearch", zap.Error(err))
	}
	code := m.Run()
	cleanup()
	os.Exit(code)
}

package bootstrapper

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"go.uber.org/zap"
)

const retries = 30
const waitTime = 5

type Bootstrapper struct {
	esClient *elasticsearch.Client
	logger   *zap.Logger
}

func NewBootstrapper(esClient *elasticsearch.Client, logger *zap.Logger) *Bootstrapper {
	return &Bootstrapper{
		esClient: esClient,
		logger:   logger,
	}
}

// BootstrapElasticsearch waits for the store and creates the event
// indices that do not exist yet. Existing indices are left untouched.
func (bs *Bootstrapper) BootstrapElasticsearch() error {
	if err := bs.waitForElasticsearch(retries, waitTime*time.Second); err != nil {
		return fmt.Errorf("failed to connect to Elasticsearch: %w", err)
	}

	for _, index := range Indices() {
		exists, err := bs.indexExists(index)
		if err != nil {
			return fmt.Errorf("error checking index %s: %w", index, err)
		}
		if exists {
			continue
		}
		if err := bs.createIndex(index, indexMapping(index)); err != nil {
			return fmt.Errorf("error creating index %s: %w", index, err)
		}
	}

	if err := bs.createAlias(AllIndexName, Indices()); err != nil {
		return fmt.Errorf("error creating alias %s: %w", AllIndexName, err)
	}

	return nil
}

func (bs *Bootstrapper) createAlias(aliasName string, indices []string) error {
	res, err := bs.esClient.Indices.PutAlias(indices, aliasName)
	if err != nil {
		return fmt.Errorf("error creating alias %s during bootstrap: %w", aliasName, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error response for alias %s: %s", aliasName, res.String())
	}

	bs.logger.Info("Successfully created alias", zap.String("alias_name", aliasName))
	return nil
}

func (bs *Bootstrapper) waitForElasticsearch(maxRetries int, delay time.Duration) error {
	for i := 0; i < maxRetries; i++ {
		res, err := bs.esClient.Info()
		if err == nil && res.StatusCode == 200 {
			bs.logger.Info("Elasticsearch is available")
			res.Body.Close()
			return nil
		}
		if err == nil {
			res.Body.Close()
		}
		bs.logger.Warn(fmt.Sprintf("Elasticsearch not available (attempt %d/%d), retrying...", i+1, maxRetries))

		time.Sleep(delay)
	}

	return fmt.Errorf("Elasticsearch is not available after %d attempts", maxRetries)
}

func (bs *Bootstrapper) indexExists(indexName string) (bool, error) {
	res, err := bs.esClient.Indices.Exists([]string{indexName})
	if err != nil {
		return false, fmt.Errorf("error checking existence of index %s: %w", indexName, err)
	}
	defer res.Body.Close()
	return res.StatusCode == 200, nil
}

func (bs *Bootstrapper) createIndex(indexName string, index map[string]interface{}) error {
	body, err := json.Marshal(index)
	if err != nil {
		return fmt.Errorf("error marshaling index input during bootstrap: %w", err)
	}

	res, err := bs.esClient.Indices.Create(
		indexName,
		bs.esClient.Indices.Create.WithBody(strings.NewReader(string(body))),
	)
	if err != nil {
		return fmt.Errorf("error creating index during bootstrap %s: %w", indexName, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error response for index %s: %s", indexName, res.String())
	}

	bs.logger.Info("Successfully created index", zap.String("index_name", indexName))
	return nil
}

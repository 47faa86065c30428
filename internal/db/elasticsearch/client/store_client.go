package client

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/mobiledna/datakit/internal/config"
	"github.com/mobiledna/datakit/internal/db/elasticsearch/model"
	"github.com/mobiledna/datakit/internal/errdefs"
)

const SearchResultSize = 1000

// compatibleMajorVersion is the store protocol generation this client
// speaks. Connect refuses clusters of any other generation.
const compatibleMajorVersion = "8."

// IdBucket is one identifier and the number of documents it produced.
type IdBucket struct {
	Id       string
	DocCount int64
}

// AggregatePage is one page of a paginated identifier aggregation.
// A page either carries buckets or a terminal error, never both.
type AggregatePage struct {
	Buckets []IdBucket
	Err     error
}

// SearchPage is one page of a paginated document search.
type SearchPage struct {
	Hits []model.HitSource
	Err  error
}

type StoreClient interface {
	// Search searches for documents in the given indices
	// https://www.elastic.co/guide/en/elasticsearch/reference/master/search-search.html
	// queryResultSize is the number of results to return, nil for default
	Search(ctx context.Context, query string, indices []string, queryResultSize *int) ([]map[string]interface{}, error)
	// Count counts the number of documents in the indices matching the query
	// https://www.elastic.co/guide/en/elasticsearch/reference/master/search-count.html
	Count(ctx context.Context, query string, indices []string) (int64, error)
	// CompositeAggregate enumerates distinct subject identifiers and their
	// document counts, pageSize buckets at a time, resuming with after_key.
	// https://www.elastic.co/guide/en/elasticsearch/reference/current/search-aggregations-bucket-composite-aggregation.html
	CompositeAggregate(ctx context.Context, index string, query map[string]interface{}, pageSize int) <-chan AggregatePage
	// SearchAfter streams documents matching the query using a point in
	// time and the search_after parameter for pagination.
	// https://www.elastic.co/guide/en/elasticsearch/reference/master/paginate-search-results.html
	SearchAfter(ctx context.Context, query map[string]interface{}, indices []string, sortFields []map[string]interface{}, pageSize int) <-chan SearchPage
	// CreateSnapshot snapshots the given indices into a registered repository
	// https://www.elastic.co/guide/en/elasticsearch/reference/current/create-snapshot-api.html
	CreateSnapshot(ctx context.Context, repository string, snapshot string, indices []string) error
	// RestoreSnapshot reinstates the given indices from a snapshot
	// https://www.elastic.co/guide/en/elasticsearch/reference/current/restore-snapshot-api.html
	RestoreSnapshot(ctx context.Context, repository string, snapshot string, indices []string) error
	// SnapshotStatus reports the state of a snapshot in a repository
	SnapshotStatus(ctx context.Context, repository string, snapshot string) (*model.SnapshotInfo, error)
}

type StoreClientImpl struct {
	es *elasticsearch.Client
}

func NewStoreClientImpl(es *elasticsearch.Client) *StoreClientImpl {
	return &StoreClientImpl{es: es}
}

// Connect builds a client from explicit configuration, verifies the
// cluster is reachable with the given credentials and checks protocol
// compatibility. A failed Connect means no query can run.
func Connect(ctx context.Context, esCfg config.Elasticsearch) (*elasticsearch.Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:     []string{esCfg.URL()},
		Username:      esCfg.Username,
		Password:      esCfg.Password,
		MaxRetries:    esCfg.MaxRetries,
		RetryOnStatus: []int{502, 503, 504, 429},
		Transport: &http.Transport{
			ResponseHeaderTimeout: esCfg.Timeout(),
		},
	})
	if err != nil {
		return nil, errdefs.Wrap(errdefs.ErrConnection, err, "failed to create elasticsearch client")
	}

	res, err := es.Info(es.Info.WithContext(ctx))
	if err != nil {
		return nil, errdefs.Wrapf(errdefs.ErrConnection, err, "server %s unreachable", esCfg.URL())
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, errdefs.Wrapf(errdefs.ErrConnection, nil, "server rejected connection: %s", res.String())
	}

	var info model.InfoResponse
	if err := json.NewDecoder(res.Body).Decode(&info); err != nil {
		return nil, errdefs.Wrap(errdefs.ErrConnection, err, "failed to decode info response")
	}
	if !strings.HasPrefix(info.Version.Number, compatibleMajorVersion) {
		return nil, errdefs.Wrapf(
			errdefs.ErrConnection,
			nil,
			"incompatible store version %s, expected %sx",
			info.Version.Number,
			compatibleMajorVersion,
		)
	}

	return es, nil
}

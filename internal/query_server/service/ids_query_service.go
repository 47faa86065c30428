package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
	fetchService "github.com/mobiledna/datakit/internal/fetch/service"
	idsModel "github.com/mobiledna/datakit/internal/ids/model"
	idsService "github.com/mobiledna/datakit/internal/ids/service"
	"github.com/mobiledna/datakit/internal/query_server/metrics"
	"go.uber.org/zap"
)

const cacheTtl = 5 * time.Minute

type IdsQueryService interface {
	// IdsInRange lists identifiers active in the index within the range.
	IdsInRange(ctx context.Context, index string, timeRange idsModel.TimeRange) (map[string]int64, error)
	// CountDocuments counts documents for the given IDs in the range.
	CountDocuments(ctx context.Context, index string, ids []string, timeRange idsModel.TimeRange) (int64, error)
}

// CachedIdsQueryService serves id listings from a short-lived cache so
// repeated dashboard refreshes do not hammer the store.
type CachedIdsQueryService struct {
	ids     *idsService.IdsService
	fetch   *fetchService.FetchService
	cache   *ristretto.Cache
	metrics *metrics.QueryMetrics
	logger  *zap.Logger
}

func NewCachedIdsQueryService(
	ids *idsService.IdsService,
	fetch *fetchService.FetchService,
	cache *ristretto.Cache,
	logger *zap.Logger,
) *CachedIdsQueryService {
	return &CachedIdsQueryService{
		ids:     ids,
		fetch:   fetch,
		cache:   cache,
		metrics: metrics.GetQueryMetrics(),
		logger:  logger,
	}
}

func (s *CachedIdsQueryService) IdsInRange(
	ctx context.Context,
	index string,
	timeRange idsModel.TimeRange,
) (map[string]int64, error) {
	key := cacheKey(index, timeRange)
	if cached, found := s.cache.Get(key); found {
		if ids, ok := cached.(map[string]int64); ok {
			s.metrics.CacheHitsTotal.Inc()
			return ids, nil
		}
	}
	s.metrics.CacheMissesTotal.Inc()

	ids, err := s.ids.IdsFromServer(ctx, index, timeRange)
	if err != nil {
		return nil, err
	}
	s.cache.SetWithTTL(key, ids, int64(len(ids))+1, cacheTtl)
	return ids, nil
}

func (s *CachedIdsQueryService) CountDocuments(
	ctx context.Context,
	index string,
	ids []string,
	timeRange idsModel.TimeRange,
) (int64, error) {
	return s.fetch.CountDocuments(ctx, index, ids, timeRange)
}

func cacheKey(index string, timeRange idsModel.TimeRange) string {
	return fmt.Sprintf("%s|%d|%d", index, timeRange.Start.UnixMilli(), timeRange.End.UnixMilli())
}

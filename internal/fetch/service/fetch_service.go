// Package service implements time-ranged document retrieval for a set
// of subject identifiers, paginated on the store side so that no result
// set is ever materialized remotely in one response.
package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mobiledna/datakit/internal/db/elasticsearch/bootstrapper"
	"github.com/mobiledna/datakit/internal/db/elasticsearch/client"
	"github.com/mobiledna/datakit/internal/db/elasticsearch/model"
	idsModel "github.com/mobiledna/datakit/internal/ids/model"
	"go.uber.org/zap"
)

const fetchPageSize = 1000

type FetchService struct {
	sc     client.StoreClient
	logger *zap.Logger
}

func NewFetchService(sc client.StoreClient, logger *zap.Logger) *FetchService {
	return &FetchService{
		sc:     sc,
		logger: logger,
	}
}

// CountDocuments counts the documents the given IDs logged in the index
// within the range, without retrieving them.
func (s *FetchService) CountDocuments(
	ctx context.Context,
	index string,
	ids []string,
	timeRange idsModel.TimeRange,
) (int64, error) {
	timeField, err := bootstrapper.TimeField(index)
	if err != nil {
		return 0, err
	}
	if err := timeRange.Validate(); err != nil {
		return 0, err
	}

	body, err := json.Marshal(map[string]interface{}{
		"query": buildIdsQuery(timeField, ids, timeRange),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal count query: %w", err)
	}
	return s.sc.Count(ctx, string(body), []string{index})
}

// Preview returns up to size documents for the given IDs in a single
// request, without opening a point in time. It is the cheap ad-hoc
// counterpart to Stream for eyeballing data before a full export.
func (s *FetchService) Preview(
	ctx context.Context,
	index string,
	ids []string,
	timeRange idsModel.TimeRange,
	size int,
) ([]map[string]interface{}, error) {
	timeField, err := bootstrapper.TimeField(index)
	if err != nil {
		return nil, err
	}
	if err := timeRange.Validate(); err != nil {
		return nil, err
	}

	body, err := json.Marshal(map[string]interface{}{
		"query": buildIdsQuery(timeField, ids, timeRange),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal preview query: %w", err)
	}
	return s.sc.Search(ctx, string(body), []string{index}, &size)
}

// Stream fetches all documents for the given IDs page by page. The
// returned channel closes when the result set is exhausted or the
// context is cancelled; a page with a non-nil Err is terminal.
func (s *FetchService) Stream(
	ctx context.Context,
	index string,
	ids []string,
	timeRange idsModel.TimeRange,
) (<-chan client.SearchPage, error) {
	timeField, err := bootstrapper.TimeField(index)
	if err != nil {
		return nil, err
	}
	if err := timeRange.Validate(); err != nil {
		return nil, err
	}

	s.logger.Info(
		"Fetching documents",
		zap.String("index", index),
		zap.Int("ids", len(ids)),
		zap.Time("start", timeRange.Start),
		zap.Time("end", timeRange.End),
	)

	query := buildIdsQuery(timeField, ids, timeRange)
	return s.sc.SearchAfter(ctx, query, []string{index}, buildTimeSort(timeField), fetchPageSize), nil
}

// FetchIds retrieves documents per ID and groups them by ID. A failure
// for one ID does not abort the others; the IDs that failed are
// returned alongside the data.
func (s *FetchService) FetchIds(
	ctx context.Context,
	index string,
	ids []string,
	timeRange idsModel.TimeRange,
) (map[string][]model.HitSource, []string, error) {
	if err := bootstrapper.ValidateIndex(index); err != nil {
		return nil, nil, err
	}
	if err := timeRange.Validate(); err != nil {
		return nil, nil, err
	}

	documents := make(map[string][]model.HitSource, len(ids))
	var failed []string
	for i, id := range ids {
		s.logger.Info(
			"Getting data for ID",
			zap.String("id", id),
			zap.Int("position", i+1),
			zap.Int("total", len(ids)),
		)

		hits, err := s.fetchOne(ctx, index, id, timeRange)
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, err
			}
			s.logger.Warn("Fetch failed for ID", zap.String("id", id), zap.Error(err))
			failed = append(failed, id)
			continue
		}
		documents[id] = hits
	}
	return documents, failed, nil
}

func (s *FetchService) fetchOne(
	ctx context.Context,
	index string,
	id string,
	timeRange idsModel.TimeRange,
) ([]model.HitSource, error) {
	pages, err := s.Stream(ctx, index, []string{id}, timeRange)
	if err != nil {
		return nil, err
	}

	var hits []model.HitSource
	for page := range pages {
		if page.Err != nil {
			return nil, page.Err
		}
		hits = append(hits, page.Hits...)
	}
	return hits, nil
}

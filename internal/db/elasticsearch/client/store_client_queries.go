package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mobiledna/datakit/internal/db/elasticsearch/model"
	"github.com/mobiledna/datakit/internal/errdefs"
)

func (c *StoreClientImpl) Search(
	ctx context.Context,
	query string,
	indices []string,
	queryResultSize *int,
) ([]map[string]interface{}, error) {
	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(indices...),
		c.es.Search.WithBody(strings.NewReader(query)),
		c.es.Search.WithSize(getQuerySize(queryResultSize)),
	)

	if err != nil {
		return nil, errdefs.Wrap(errdefs.ErrQuery, err, "failed to execute query")
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, errdefs.Wrapf(errdefs.ErrQuery, nil, "failed to execute query: %s", res.String())
	}

	var esResponse model.EsResponse
	if err := json.NewDecoder(res.Body).Decode(&esResponse); err != nil {
		return nil, errdefs.Wrap(errdefs.ErrQuery, err, "failed to decode response body")
	}

	var results []map[string]interface{}
	for _, hit := range esResponse.Hits.HitArray {
		results = append(results, hit.Source)
		results[len(results)-1]["_id"] = hit.ID
	}

	return results, nil
}

func (c *StoreClientImpl) Count(
	ctx context.Context,
	query string,
	indices []string,
) (int64, error) {
	res, err := c.es.Count(
		c.es.Count.WithContext(ctx),
		c.es.Count.WithIndex(indices...),
		c.es.Count.WithBody(strings.NewReader(query)),
	)

	if err != nil {
		return 0, errdefs.Wrap(errdefs.ErrQuery, err, "failed to execute count")
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, errdefs.Wrapf(errdefs.ErrQuery, nil, "failed to execute count: %s", res.String())
	}

	var countResponse model.CountResponse
	if err := json.NewDecoder(res.Body).Decode(&countResponse); err != nil {
		return 0, errdefs.Wrap(errdefs.ErrQuery, err, "failed to decode count response body")
	}

	return countResponse.Count, nil
}

func (c *StoreClientImpl) CompositeAggregate(
	ctx context.Context,
	index string,
	query map[string]interface{},
	pageSize int,
) <-chan AggregatePage {
	pages := make(chan AggregatePage)
	go func() {
		defer close(pages)
		var afterKey map[string]interface{}
		for {
			body := buildCompositeAggregationQuery(query, pageSize, afterKey)
			bodyJson, err := json.Marshal(body)
			if err != nil {
				sendAggregatePage(ctx, pages, AggregatePage{
					Err: errdefs.Wrap(errdefs.ErrQuery, err, "failed to marshal aggregation query"),
				})
				return
			}

			res, err := c.es.Search(
				c.es.Search.WithContext(ctx),
				c.es.Search.WithIndex(index),
				c.es.Search.WithBody(strings.NewReader(string(bodyJson))),
			)
			if err != nil {
				sendAggregatePage(ctx, pages, AggregatePage{
					Err: errdefs.Wrap(errdefs.ErrQuery, err, "failed to execute aggregation"),
				})
				return
			}
			if res.IsError() {
				errPage := AggregatePage{
					Err: errdefs.Wrapf(errdefs.ErrQuery, nil, "failed to execute aggregation: %s", res.String()),
				}
				res.Body.Close()
				sendAggregatePage(ctx, pages, errPage)
				return
			}

			var aggResponse model.EsCompositeAggregationResponse
			decodeErr := json.NewDecoder(res.Body).Decode(&aggResponse)
			res.Body.Close()
			if decodeErr != nil {
				sendAggregatePage(ctx, pages, AggregatePage{
					Err: errdefs.Wrap(errdefs.ErrQuery, decodeErr, "failed to decode aggregation response"),
				})
				return
			}

			buckets := make([]IdBucket, 0, len(aggResponse.Aggregations.UniqueIds.Buckets))
			for _, bucket := range aggResponse.Aggregations.UniqueIds.Buckets {
				buckets = append(buckets, IdBucket{Id: bucket.Key.Id, DocCount: bucket.DocCount})
			}
			if len(buckets) > 0 {
				if !sendAggregatePage(ctx, pages, AggregatePage{Buckets: buckets}) {
					return
				}
			}

			afterKey = aggResponse.Aggregations.UniqueIds.AfterKey
			if afterKey == nil || len(aggResponse.Aggregations.UniqueIds.Buckets) < pageSize {
				return
			}
		}
	}()
	return pages
}

func (c *StoreClientImpl) SearchAfter(
	ctx context.Context,
	query map[string]interface{},
	indices []string,
	sortFields []map[string]interface{},
	pageSize int,
) <-chan SearchPage {
	pages := make(chan SearchPage)
	go func() {
		defer close(pages)

		pitId, err := c.openPointInTime(ctx, indices)
		if err != nil {
			sendSearchPage(ctx, pages, SearchPage{Err: err})
			return
		}
		defer func() {
			// an unclosed PIT expires on its own after keepAlive
			_ = c.closePointInTime(ctx, pitId)
		}()

		var searchAfter []interface{}
		for {
			body := buildSearchWithPitQuery(query, pitId, sortFields, searchAfter, pageSize)
			bodyJson, err := json.Marshal(body)
			if err != nil {
				sendSearchPage(ctx, pages, SearchPage{
					Err: errdefs.Wrap(errdefs.ErrQuery, err, "failed to marshal search_after query"),
				})
				return
			}

			// a search with a point in time must not name indices
			res, err := c.es.Search(
				c.es.Search.WithContext(ctx),
				c.es.Search.WithBody(strings.NewReader(string(bodyJson))),
			)
			if err != nil {
				sendSearchPage(ctx, pages, SearchPage{
					Err: errdefs.Wrap(errdefs.ErrQuery, err, "failed to execute paginated search"),
				})
				return
			}
			if res.IsError() {
				errPage := SearchPage{
					Err: errdefs.Wrapf(errdefs.ErrQuery, nil, "failed to execute paginated search: %s", res.String()),
				}
				res.Body.Close()
				sendSearchPage(ctx, pages, errPage)
				return
			}

			var esResponse model.EsResponse
			decodeErr := json.NewDecoder(res.Body).Decode(&esResponse)
			res.Body.Close()
			if decodeErr != nil {
				sendSearchPage(ctx, pages, SearchPage{
					Err: errdefs.Wrap(errdefs.ErrQuery, decodeErr, "failed to decode search response"),
				})
				return
			}

			hits := esResponse.Hits.HitArray
			if len(hits) == 0 {
				return
			}
			if !sendSearchPage(ctx, pages, SearchPage{Hits: hits}) {
				return
			}
			if esResponse.PitId != "" {
				pitId = esResponse.PitId
			}

			searchAfter = hits[len(hits)-1].Sort
			if len(hits) < pageSize || searchAfter == nil {
				return
			}
		}
	}()
	return pages
}

const pitKeepAlive = "1m"

func (c *StoreClientImpl) openPointInTime(ctx context.Context, indices []string) (string, error) {
	pitRes, err := c.es.OpenPointInTime(
		indices,
		pitKeepAlive,
		c.es.OpenPointInTime.WithContext(ctx),
	)
	if err != nil {
		return "", errdefs.Wrap(errdefs.ErrQuery, err, "failed to open point in time")
	}
	defer pitRes.Body.Close()
	if pitRes.IsError() {
		return "", errdefs.Wrapf(errdefs.ErrQuery, nil, "failed to open point in time: %s", pitRes.String())
	}
	return readPitBody(pitRes.Body)
}

func (c *StoreClientImpl) closePointInTime(ctx context.Context, pitId string) error {
	body, err := json.Marshal(map[string]interface{}{"id": pitId})
	if err != nil {
		return fmt.Errorf("failed to marshal close PIT request body: %w", err)
	}

	res, err := c.es.ClosePointInTime(
		c.es.ClosePointInTime.WithBody(strings.NewReader(string(body))),
		c.es.ClosePointInTime.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to close PIT: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("failed to close PIT: %s", res.String())
	}
	return nil
}

func readPitBody(body io.ReadCloser) (string, error) {
	var pitResponse map[string]any
	if err := json.NewDecoder(body).Decode(&pitResponse); err != nil {
		return "", errdefs.Wrap(errdefs.ErrQuery, err, "failed to decode pit response")
	}
	pitId, ok := pitResponse["id"].(string)
	if !ok {
		return "", errdefs.Wrap(errdefs.ErrQuery, nil, "failed to read pit id")
	}
	return pitId, nil
}

func sendAggregatePage(ctx context.Context, pages chan<- AggregatePage, page AggregatePage) bool {
	select {
	case pages <- page:
		return true
	case <-ctx.Done():
		return false
	}
}

func sendSearchPage(ctx context.Context, pages chan<- SearchPage, page SearchPage) bool {
	select {
	case pages <- page:
		return true
	case <-ctx.Done():
		return false
	}
}

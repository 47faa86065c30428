package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mobiledna/datakit/internal/db/elasticsearch/client"
	"github.com/mobiledna/datakit/internal/db/elasticsearch/model"
	"github.com/mobiledna/datakit/internal/errdefs"
	idsModel "github.com/mobiledna/datakit/internal/ids/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockStoreClient struct {
	pagesById    map[string][]client.SearchPage
	countResult  int64
	countErr     error
	countCalls   int
	searchResult []map[string]interface{}
	searchSize   *int
	searchCalls  int
}

func (m *mockStoreClient) Search(
	ctx context.Context, query string, indices []string, queryResultSize *int,
) ([]map[string]interface{}, error) {
	m.searchCalls++
	m.searchSize = queryResultSize
	return m.searchResult, nil
}

func (m *mockStoreClient) Count(ctx context.Context, query string, indices []string) (int64, error) {
	m.countCalls++
	return m.countResult, m.countErr
}

func (m *mockStoreClient) CompositeAggregate(
	ctx context.Context, index string, query map[string]interface{}, pageSize int,
) <-chan client.AggregatePage {
	out := make(chan client.AggregatePage)
	close(out)
	return out
}

func (m *mockStoreClient) SearchAfter(
	ctx context.Context,
	query map[string]interface{},
	indices []string,
	sortFields []map[string]interface{},
	pageSize int,
) <-chan client.SearchPage {
	pages := m.pagesById[firstQueriedId(query)]
	out := make(chan client.SearchPage, len(pages))
	for _, page := range pages {
		out <- page
	}
	close(out)
	return out
}

func (m *mockStoreClient) CreateSnapshot(ctx context.Context, repository, snapshot string, indices []string) error {
	return nil
}

func (m *mockStoreClient) RestoreSnapshot(ctx context.Context, repository, snapshot string, indices []string) error {
	return nil
}

func (m *mockStoreClient) SnapshotStatus(ctx context.Context, repository, snapshot string) (*model.SnapshotInfo, error) {
	return nil, nil
}

// firstQueriedId digs the id list out of the query the service built.
func firstQueriedId(query map[string]interface{}) string {
	constantScore, _ := query["constant_score"].(map[string]interface{})
	filter, _ := constantScore["filter"].(map[string]interface{})
	boolClause, _ := filter["bool"].(map[string]interface{})
	must, _ := boolClause["must"].([]map[string]interface{})
	for _, clause := range must {
		if terms, ok := clause["terms"].(map[string]interface{}); ok {
			if ids, ok := terms["id.keyword"].([]string); ok && len(ids) > 0 {
				return ids[0]
			}
		}
	}
	return ""
}

func testTimeRange(t *testing.T) idsModel.TimeRange {
	t.Helper()
	tr, err := idsModel.NewTimeRange(
		time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	return tr
}

func hit(id string, application string) model.HitSource {
	return model.HitSource{
		ID: "doc-" + id,
		Source: map[string]interface{}{
			"id":          id,
			"application": application,
		},
	}
}

func TestFetchIds(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	t.Run("Groups documents by id", func(t *testing.T) {
		sc := &mockStoreClient{pagesById: map[string][]client.SearchPage{
			"id1": {
				{Hits: []model.HitSource{hit("id1", "mail"), hit("id1", "maps")}},
				{Hits: []model.HitSource{hit("id1", "chat")}},
			},
			"id2": {
				{Hits: []model.HitSource{hit("id2", "mail")}},
			},
		}}
		s := NewFetchService(sc, logger)

		documents, failed, err := s.FetchIds(ctx, "appevents", []string{"id1", "id2"}, testTimeRange(t))
		require.NoError(t, err)
		assert.Empty(t, failed)
		assert.Len(t, documents["id1"], 3)
		assert.Len(t, documents["id2"], 1)
	})

	t.Run("An id with a failed stream is reported but does not abort the rest", func(t *testing.T) {
		sc := &mockStoreClient{pagesById: map[string][]client.SearchPage{
			"bad": {
				{Err: errdefs.Wrap(errdefs.ErrQuery, nil, "shard failure")},
			},
			"good": {
				{Hits: []model.HitSource{hit("good", "mail")}},
			},
		}}
		s := NewFetchService(sc, logger)

		documents, failed, err := s.FetchIds(ctx, "appevents", []string{"bad", "good"}, testTimeRange(t))
		require.NoError(t, err)
		assert.Equal(t, []string{"bad"}, failed)
		assert.Len(t, documents["good"], 1)
		assert.NotContains(t, documents, "bad")
	})

	t.Run("Rejects an unknown index", func(t *testing.T) {
		s := NewFetchService(&mockStoreClient{}, logger)
		_, _, err := s.FetchIds(ctx, "surveys", []string{"id1"}, testTimeRange(t))
		assert.True(t, errors.Is(err, errdefs.ErrQuery))
	})
}

func TestPreview(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	t.Run("Returns raw documents with the requested size cap", func(t *testing.T) {
		sc := &mockStoreClient{searchResult: []map[string]interface{}{
			{"id": "id1", "application": "mail"},
			{"id": "id1", "application": "maps"},
		}}
		s := NewFetchService(sc, logger)

		docs, err := s.Preview(ctx, "appevents", []string{"id1"}, testTimeRange(t), 2)
		require.NoError(t, err)
		assert.Len(t, docs, 2)
		require.NotNil(t, sc.searchSize)
		assert.Equal(t, 2, *sc.searchSize)
	})

	t.Run("Rejects an unknown index before searching", func(t *testing.T) {
		sc := &mockStoreClient{}
		s := NewFetchService(sc, logger)

		_, err := s.Preview(ctx, "surveys", []string{"id1"}, testTimeRange(t), 5)
		assert.True(t, errors.Is(err, errdefs.ErrQuery))
		assert.Zero(t, sc.searchCalls)
	})

	t.Run("Fails fast on an inverted range", func(t *testing.T) {
		sc := &mockStoreClient{}
		s := NewFetchService(sc, logger)

		inverted := idsModel.TimeRange{
			Start: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC),
		}
		_, err := s.Preview(ctx, "appevents", []string{"id1"}, inverted, 5)
		assert.True(t, errors.Is(err, errdefs.ErrTimeRange))
		assert.Zero(t, sc.searchCalls)
	})
}

func TestCountDocuments(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	t.Run("Delegates to the store count", func(t *testing.T) {
		sc := &mockStoreClient{countResult: 42}
		s := NewFetchService(sc, logger)

		count, err := s.CountDocuments(ctx, "sessions", []string{"id1"}, testTimeRange(t))
		require.NoError(t, err)
		assert.Equal(t, int64(42), count)
		assert.Equal(t, 1, sc.countCalls)
	})

	t.Run("Rejects an unknown index before counting", func(t *testing.T) {
		sc := &mockStoreClient{}
		s := NewFetchService(sc, logger)

		_, err := s.CountDocuments(ctx, "surveys", []string{"id1"}, testTimeRange(t))
		assert.True(t, errors.Is(err, errdefs.ErrQuery))
		assert.Zero(t, sc.countCalls)
	})

	t.Run("Fails fast on an inverted range", func(t *testing.T) {
		sc := &mockStoreClient{}
		s := NewFetchService(sc, logger)

		inverted := idsModel.TimeRange{
			Start: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC),
		}
		_, err := s.CountDocuments(ctx, "sessions", []string{"id1"}, inverted)
		assert.True(t, errors.Is(err, errdefs.ErrTimeRange))
		assert.Zero(t, sc.countCalls)
	})
}

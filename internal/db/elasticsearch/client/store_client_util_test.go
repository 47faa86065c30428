package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2019, 10, 1, 13, 45, 30, 250_000_000, time.UTC)
	assert.Equal(t, "2019-10-01T13:45:30.250", FormatTimestamp(ts))
}

func TestGetQuerySize(t *testing.T) {
	assert.Equal(t, SearchResultSize, getQuerySize(nil))
	size := 25
	assert.Equal(t, 25, getQuerySize(&size))
}

func TestBuildCompositeAggregationQuery(t *testing.T) {
	query := map[string]interface{}{"match_all": map[string]interface{}{}}

	t.Run("First page has no after key", func(t *testing.T) {
		body := buildCompositeAggregationQuery(query, 500, nil)

		assert.Equal(t, 0, body["size"])
		assert.Equal(t, query, body["query"])

		aggs := body["aggs"].(map[string]interface{})
		uniqueIds := aggs["unique_ids"].(map[string]interface{})
		composite := uniqueIds["composite"].(map[string]interface{})
		assert.Equal(t, 500, composite["size"])
		assert.NotContains(t, composite, "after")

		sources := composite["sources"].([]map[string]interface{})
		require.Len(t, sources, 1)
		terms := sources[0]["id"].(map[string]interface{})["terms"].(map[string]interface{})
		assert.Equal(t, "id.keyword", terms["field"])
	})

	t.Run("Subsequent pages resume from the after key", func(t *testing.T) {
		afterKey := map[string]interface{}{"id": "last-seen"}
		body := buildCompositeAggregationQuery(query, 500, afterKey)

		composite := body["aggs"].(map[string]interface{})["unique_ids"].(map[string]interface{})["composite"].(map[string]interface{})
		assert.Equal(t, afterKey, composite["after"])
	})

	t.Run("A nil query aggregates over everything", func(t *testing.T) {
		body := buildCompositeAggregationQuery(nil, 500, nil)
		assert.NotContains(t, body, "query")
	})
}

func TestBuildSearchWithPitQuery(t *testing.T) {
	query := map[string]interface{}{"match_all": map[string]interface{}{}}
	sortFields := []map[string]interface{}{
		{"startTime": map[string]interface{}{"order": "asc"}},
	}

	t.Run("First page has no search_after", func(t *testing.T) {
		body := buildSearchWithPitQuery(query, "pit-1", sortFields, nil, 1000)

		assert.Equal(t, 1000, body["size"])
		pit := body["pit"].(map[string]interface{})
		assert.Equal(t, "pit-1", pit["id"])
		assert.NotContains(t, body, "search_after")
	})

	t.Run("Sort always ends with the shard doc tiebreaker", func(t *testing.T) {
		body := buildSearchWithPitQuery(query, "pit-1", sortFields, nil, 1000)

		sort := body["sort"].([]map[string]interface{})
		require.Len(t, sort, 2)
		assert.Contains(t, sort[0], "startTime")
		assert.Equal(t, "asc", sort[1]["_shard_doc"])
	})

	t.Run("Subsequent pages resume from the last sort values", func(t *testing.T) {
		searchAfter := []interface{}{"2019-10-01T00:00:00.000", 17}
		body := buildSearchWithPitQuery(query, "pit-1", sortFields, searchAfter, 1000)
		assert.Equal(t, searchAfter, body["search_after"])
	})
}

package client

import (
	"time"
)

// StoreTimeFormat is the millisecond timestamp layout the event indices
// are mapped with (yyyy-MM-dd'T'HH:mm:ss.SSS on the store side).
const StoreTimeFormat = "2006-01-02T15:04:05.000"

// StoreRangeFormat is the format hint attached to range clauses.
const StoreRangeFormat = "yyyy-MM-dd'T'HH:mm:ss.SSS"

// FormatTimestamp renders a timestamp the way the store expects it.
func FormatTimestamp(t time.Time) string {
	return t.Format(StoreTimeFormat)
}

func getQuerySize(querySize *int) int {
	if querySize == nil {
		return SearchResultSize
	}
	return *querySize
}

func buildCompositeAggregationQuery(
	query map[string]interface{},
	pageSize int,
	afterKey map[string]interface{},
) map[string]interface{} {
	composite := map[string]interface{}{
		"size": pageSize,
		"sources": []map[string]interface{}{
			{
				"id": map[string]interface{}{
					"terms": map[string]interface{}{
						"field": "id.keyword",
					},
				},
			},
		},
	}
	if afterKey != nil {
		composite["after"] = afterKey
	}
	body := map[string]interface{}{
		"size": 0,
		"aggs": map[string]interface{}{
			"unique_ids": map[string]interface{}{
				"composite": composite,
			},
		},
	}
	if query != nil {
		body["query"] = query
	}
	return body
}

func buildSearchWithPitQuery(
	query map[string]interface{},
	pitId string,
	sortFields []map[string]interface{},
	searchAfter []interface{},
	pageSize int,
) map[string]interface{} {
	body := map[string]interface{}{
		"size": pageSize,
		"pit": map[string]interface{}{
			"id":         pitId,
			"keep_alive": pitKeepAlive,
		},
	}
	if query != nil {
		body["query"] = query
	}
	sort := make([]map[string]interface{}, 0, len(sortFields)+1)
	sort = append(sort, sortFields...)
	// tiebreaker so pagination is total even on equal timestamps
	sort = append(sort, map[string]interface{}{"_shard_doc": "asc"})
	body["sort"] = sort
	if searchAfter != nil {
		body["search_after"] = searchAfter
	}
	return body
}

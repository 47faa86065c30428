package service

import (
	"github.com/mobiledna/datakit/internal/db/elasticsearch/client"
	"github.com/mobiledna/datakit/internal/ids/model"
)

func buildIdsQuery(timeField string, ids []string, timeRange model.TimeRange) map[string]interface{} {
	mustClauses := []map[string]interface{}{
		{
			"terms": map[string]interface{}{
				"id.keyword": ids,
			},
		},
		{
			"range": map[string]interface{}{
				timeField: map[string]interface{}{
					"format": client.StoreRangeFormat,
					"gte":    client.FormatTimestamp(timeRange.Start),
					"lte":    client.FormatTimestamp(timeRange.End),
				},
			},
		},
	}

	// scoring is irrelevant for a dump, constant_score skips it
	return map[string]interface{}{
		"constant_score": map[string]interface{}{
			"filter": map[string]interface{}{
				"bool": map[string]interface{}{
					"must": mustClauses,
				},
			},
		},
	}
}

func buildTimeSort(timeField string) []map[string]interface{} {
	return []map[string]interface{}{
		{
			timeField: map[string]interface{}{
				"order": "asc",
			},
		},
	}
}

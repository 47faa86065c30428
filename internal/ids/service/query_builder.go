package service

import (
	"github.com/mobiledna/datakit/internal/db/elasticsearch/client"
	"github.com/mobiledna/datakit/internal/ids/model"
)

func buildTimeRangeQuery(timeField string, timeRange model.TimeRange) map[string]interface{} {
	return map[string]interface{}{
		"bool": map[string]interface{}{
			"filter": map[string]interface{}{
				"range": map[string]interface{}{
					timeField: map[string]interface{}{
						"format": client.StoreRangeFormat,
						"gte":    client.FormatTimestamp(timeRange.Start),
						"lte":    client.FormatTimestamp(timeRange.End),
					},
				},
			},
		},
	}
}

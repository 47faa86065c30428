package bootstrapper

import (
	"github.com/mobiledna/datakit/internal/errdefs"
)

// Index names for the five mobile-usage event types.
const (
	AppeventsIndexName     = "appevents"
	NotificationsIndexName = "notifications"
	SessionsIndexName      = "sessions"
	LogsIndexName          = "logs"
	ConnectivityIndexName  = "connectivity"
)

// AllIndexName is the alias the bootstrapper points at every event
// index, so ad-hoc queries can target all of them at once.
const AllIndexName = "mobiledna"

// timeFields maps each index to the field holding the document timestamp.
var timeFields = map[string]string{
	AppeventsIndexName:     "startTime",
	NotificationsIndexName: "time",
	SessionsIndexName:      "timestamp",
	LogsIndexName:          "date",
	ConnectivityIndexName:  "timestamp",
}

// IndexFields lists the document fields carried by each index, in export
// column order.
var IndexFields = map[string][]string{
	AppeventsIndexName: {
		"application", "battery", "data_version", "endTime", "endTimeMillis",
		"id", "latitude", "longitude", "model", "notification",
		"notificationId", "session", "startTime", "startTimeMillis",
		"studyKey", "surveyId",
	},
	NotificationsIndexName: {
		"application", "data_version", "id", "notificationID", "ongoing",
		"posted", "priority", "studyKey", "surveyId", "time",
	},
	SessionsIndexName: {
		"data_version", "id", "session on", "studyKey", "surveyId",
		"timestamp",
	},
	LogsIndexName: {
		"data_version", "id", "studyKey", "surveyId", "logging enabled",
		"date",
	},
	ConnectivityIndexName: {
		"data_version", "id", "studyKey", "surveyId", "connectivity",
		"timestamp",
	},
}

// Indices returns the known index names.
func Indices() []string {
	return []string{
		AppeventsIndexName,
		NotificationsIndexName,
		SessionsIndexName,
		LogsIndexName,
		ConnectivityIndexName,
	}
}

// TimeField resolves the timestamp field for an index. Unknown index
// names fail before any remote call is made.
func TimeField(index string) (string, error) {
	field, ok := timeFields[index]
	if !ok {
		return "", errdefs.Wrapf(errdefs.ErrQuery, nil, "unknown index %q", index)
	}
	return field, nil
}

// ValidateIndex reports whether the index is one of the known event types.
func ValidateIndex(index string) error {
	_, err := TimeField(index)
	return err
}

func indexMapping(index string) map[string]interface{} {
	properties := map[string]interface{}{
		"id": map[string]interface{}{
			"type": "text",
			"fields": map[string]interface{}{
				"keyword": map[string]interface{}{
					"type":         "keyword",
					"ignore_above": 256,
				},
			},
		},
		timeFields[index]: map[string]interface{}{
			"type":   "date",
			"format": "yyyy-MM-dd'T'HH:mm:ss.SSS||strict_date_optional_time||epoch_millis",
		},
	}
	return map[string]interface{}{
		"mappings": map[string]interface{}{
			"properties": properties,
		},
		"settings": map[string]interface{}{
			"number_of_shards":   1,
			"number_of_replicas": 1,
		},
	}
}

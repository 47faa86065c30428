package elasticsearch

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/mobiledna/datakit/internal/db/elasticsearch/bootstrapper"
)

func indexDocuments(es *elasticsearch.Client, indexName string, documents []map[string]interface{}) error {
	for _, doc := range documents {
		docJSON, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("failed to marshal document: %w", err)
		}
		res, err := es.Index(indexName, bytes.NewReader(docJSON), es.Index.WithRefresh("true"))
		if err != nil {
			return fmt.Errorf("failed to index document: %w", err)
		}
		if res.IsError() {
			res.Body.Close()
			return fmt.Errorf("failed to index document: %s", res.String())
		}
		res.Body.Close()
	}
	return nil
}

func deleteAllDocuments(es *elasticsearch.Client) error {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"match_all": map[string]interface{}{},
		},
	}
	queryJSON, _ := json.Marshal(query)
	res, err := es.DeleteByQuery(
		bootstrapper.Indices(),
		bytes.NewReader(queryJSON),
		es.DeleteByQuery.WithRefresh(true),
	)
	if err != nil {
		return fmt.Errorf("failed to delete documents by query: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("failed to delete documents: %s", res.String())
	}
	return nil
}

func appeventDoc(id string, timestamp string, application string) map[string]interface{} {
	return map[string]interface{}{
		"id":          id,
		"startTime":   timestamp,
		"application": application,
		"model":       "test-device",
	}
}

func sessionDoc(id string, timestamp string) map[string]interface{} {
	return map[string]interface{}{
		"id":         id,
		"timestamp":  timestamp,
		"session on": true,
	}
}

func notificationDoc(id string, timestamp string, application string) map[string]interface{} {
	return map[string]interface{}{
		"id":          id,
		"time":        timestamp,
		"application": application,
		"posted":      true,
	}
}

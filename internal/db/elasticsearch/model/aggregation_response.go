package model

// EsCompositeAggregationResponse is the shape returned by a paginated
// composite terms aggregation over subject identifiers.
type EsCompositeAggregationResponse struct {
	Took         int                  `json:"took"`
	TimedOut     bool                 `json:"timed_out"`
	Aggregations CompositeAggregation `json:"aggregations"`
}

type CompositeAggregation struct {
	UniqueIds CompositeBuckets `json:"unique_ids"`
}

type CompositeBuckets struct {
	AfterKey map[string]interface{} `json:"after_key,omitempty"`
	Buckets  []CompositeBucket      `json:"buckets"`
}

type CompositeBucket struct {
	Key      CompositeKey `json:"key"`
	DocCount int64        `json:"doc_count"`
}

type CompositeKey struct {
	Id string `json:"id"`
}

package handler

// IdsRequestDTO asks for the identifiers active in an index over a time
// range. Timestamps are ISO-8601 with millisecond precision.
type IdsRequestDTO struct {
	Index     string `json:"index"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// IdCountDTO is one identifier and its document count.
type IdCountDTO struct {
	Id    string `json:"id"`
	Count int64  `json:"count"`
}

// IdsResponseDTO lists active identifiers, richest first.
type IdsResponseDTO struct {
	Ids   []IdCountDTO `json:"ids"`
	Total int          `json:"total"`
}

// CountRequestDTO asks for the number of documents a set of identifiers
// logged in an index over a time range.
type CountRequestDTO struct {
	Index     string   `json:"index"`
	Ids       []string `json:"ids"`
	StartTime string   `json:"start_time"`
	EndTime   string   `json:"end_time"`
}

type CountResponseDTO struct {
	Count int64 `json:"count"`
}

// ErrorMessage is the error payload returned on failed requests.
type ErrorMessage struct {
	Message string `json:"message"`
}

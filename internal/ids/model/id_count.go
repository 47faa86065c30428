package model

// IdCount is one subject identifier and its document count, used where
// ordering matters and a map cannot carry it.
type IdCount struct {
	Id    string `json:"id"`
	Count int64  `json:"count"`
}

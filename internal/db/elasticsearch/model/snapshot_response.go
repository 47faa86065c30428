package model

// SnapshotResponse is the get-snapshot API response.
type SnapshotResponse struct {
	Snapshots []SnapshotInfo `json:"snapshots"`
}

type SnapshotInfo struct {
	Snapshot  string   `json:"snapshot"`
	Uuid      string   `json:"uuid"`
	State     string   `json:"state"`
	Indices   []string `json:"indices"`
	StartTime string   `json:"start_time"`
	EndTime   string   `json:"end_time"`
}

package model

// InfoResponse is the root endpoint response, used to verify cluster
// reachability and protocol version on connect.
type InfoResponse struct {
	Name        string  `json:"name"`
	ClusterName string  `json:"cluster_name"`
	Version     Version `json:"version"`
}

type Version struct {
	Number string `json:"number"`
}

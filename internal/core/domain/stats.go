package domain

// ClientStats is the per-client counters structure of spec.md §6, reported
// by HttpClient.GetStats and rolled up by HttpClientPool.Stats.
type ClientStats struct {
	State         ConnectionState
	QueueSize     uint64
	ErrorCount    uint64
	TotalRequests uint64
	BytesWritten  uint64
	BytesRead     uint64
	TotalSeconds  float64
}

// PoolStats is the aggregate structure of spec.md §6, returned by
// HttpClientPool.Stats and served at the /stats endpoint.
type PoolStats struct {
	HostCount     uint64
	ActiveCount   uint64
	InactiveCount uint64
	QueueSize     uint64
	BytesWritten  uint64
	BytesRead     uint64
	TotalSeconds  float64
	Bandwidth     float64
}

package domain

import "time"

// ClientEvent is published onto the pool's event bus whenever an
// HttpClient completes a request (success or terminal failure), for
// observability consumers such as the demo driver's log tailer.
// It is not part of the core state machine's own decision-making — purely
// a side-channel notification.
type ClientEvent struct {
	At            time.Time
	Destination   string
	RequestID     string
	Stage         Stage
	State         ConnectionState
	Err           error
	LatencyMillis int64
}

package workers

import "time"

// WorkerStatus contains the current status of a worker.
type WorkerStatus struct {
	Running   bool        `json:"running"`
	Interval  string      `json:"interval"`
	LastRun   time.Time   `json:"lastRun,omitempty"`
	LastError string      `json:"lastError,omitempty"`
	Stats     interface{} `json:"stats"`
}

func newStatus(running bool, interval time.Duration, lastRun time.Time, lastError error, stats interface{}) WorkerStatus {
	status := WorkerStatus{
		Running:  running,
		Interval: interval.String(),
		Stats:    stats,
	}
	if !lastRun.IsZero() {
		status.LastRun = lastRun
	}
	if lastError != nil {
		status.LastError = lastError.Error()
	}
	return status
}

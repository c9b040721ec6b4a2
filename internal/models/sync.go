package models

import "time"

// SyncStatus values reported by the mandi sync job
const (
	SyncStatusCached  = "cached"
	SyncStatusEmpty   = "empty"
	SyncStatusSuccess = "success"
	SyncStatusError   = "error"
)

// SyncResult describes the outcome of one sync invocation. Upstream failures
// are reported here rather than returned as errors.
type SyncResult struct {
	Status    string     `json:"status"`
	Message   string     `json:"message"`
	Crop      string     `json:"crop"`
	Mandi     string     `json:"mandi"`
	Fetched   int        `json:"fetched,omitempty"`
	RowsSaved int64      `json:"rows_saved"`
	LastSync  *time.Time `json:"last_sync,omitempty"`
	SyncedAt  *time.Time `json:"time,omitempty"`
}

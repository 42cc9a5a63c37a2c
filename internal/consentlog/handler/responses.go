package handler

// SubmitResponse acknowledges a stored submission. Deliberately carries no
// record details: the client learns nothing about the audit trail.
type SubmitResponse struct {
	Success bool `json:"success"`
}

// PurgeResponse reports how many rows an administrative purge removed.
type PurgeResponse struct {
	Deleted int64 `json:"deleted"`
}

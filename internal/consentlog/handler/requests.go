package handler

// SubmitRequest is the anonymous consent submission body.
type SubmitRequest struct {
	// ConsentID shape is checked by the service so a malformed identifier
	// surfaces as invalid_identifier, not a generic validation failure.
	ConsentID   string   `json:"consent_id" validate:"notblank"`
	Categories  []string `json:"categories"`
	VersionHash string   `json:"version_hash" validate:"omitempty,max=64"`
	Source      string   `json:"source" validate:"omitempty,oneof=accept change"`
}

// PurgeRequest triggers the administrative retention purge.
type PurgeRequest struct {
	RetentionMonths int `json:"retention_months" validate:"required,min=1,max=120"`
}

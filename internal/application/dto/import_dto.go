package dto

// SubmitImportResponse salida de POST /api/imports.
type SubmitImportResponse struct {
	JobID string `json:"job_id"`
}

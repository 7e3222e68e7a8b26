package entity

import "time"

// JobStatus estado de un trabajo de importación masiva.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
	JobCancelled  JobStatus = "cancelled"
)

// ImportJob progreso y resultado de una importación; se persiste fuera del proceso.
type ImportJob struct {
	ID          string         `json:"id"`
	BrandID     string         `json:"brand_id"`
	StoreID     string         `json:"store_id,omitempty"`
	Mode        string         `json:"mode"`
	Status      JobStatus      `json:"status"`
	Current     int            `json:"current"`
	Total       int            `json:"total"`
	Message     string         `json:"message,omitempty"`
	Result      map[string]int `json:"result,omitempty"`
	Rejected    int            `json:"rejected"`
	CreatedBy   string         `json:"created_by,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}

// Done indica si el trabajo llegó a un estado final.
func (j *ImportJob) Done() bool {
	return j.Status == JobCompleted || j.Status == JobFailed || j.Status == JobCancelled
}

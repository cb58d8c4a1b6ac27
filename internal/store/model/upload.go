package model

import (
	"encoding/json"
	"time"
)

// Processing states persisted on uploads and exams.
const (
	ProcessingStatePending   = "pending"
	ProcessingStateProcessed = "processed"
	ProcessingStateFailed    = "failed"
)

// Upload represents a PDF pending or completed ingestion. The row is created
// by the CRUD surface; the webhook receiver fills in the derived fields once
// the worker reports an outcome.
type Upload struct {
	ID              uint      `gorm:"primaryKey;autoIncrement"`
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       *time.Time
	Username        string `gorm:"type:VARCHAR(255)"`
	OrgID           string `gorm:"index:uploads_org_id_idx;type:VARCHAR(255)"`
	URL             string `gorm:"not null;type:TEXT"`
	PdfName         *string
	ProcessingState string `gorm:"not null;type:VARCHAR(50);default:pending"`
	PdfID           *string
	Pages           *int
	Error           *string
	ProcessedAt     *time.Time
}

type UploadList []Upload

func (u Upload) String() string {
	val, _ := json.Marshal(u)
	return string(val)
}

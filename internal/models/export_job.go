package models

import "time"

type ExportStatus string

const (
	ExportQueued     ExportStatus = "QUEUED"
	ExportProcessing ExportStatus = "PROCESSING"
	ExportFinished   ExportStatus = "FINISHED"
	ExportFailed     ExportStatus = "FAILED"
)

// ExportJob tracks one asynchronous class attendance export.
type ExportJob struct {
	ID           string       `db:"id" json:"id"`
	ClassID      string       `db:"class_id" json:"classId"`
	Format       string       `db:"format" json:"format"`
	From         time.Time    `db:"date_from" json:"from"`
	To           time.Time    `db:"date_to" json:"to"`
	Status       ExportStatus `db:"status" json:"status"`
	FilePath     *string      `db:"file_path" json:"-"`
	DownloadURL  *string      `db:"-" json:"downloadUrl,omitempty"`
	ErrorMessage *string      `db:"error_message" json:"error,omitempty"`
	RequestedBy  string       `db:"requested_by" json:"requestedBy"`
	CreatedAt    time.Time    `db:"created_at" json:"createdAt"`
	FinishedAt   *time.Time   `db:"finished_at" json:"finishedAt,omitempty"`
}

// ExportRequest asks for a class attendance export over a date range.
type ExportRequest struct {
	Format string `json:"format" validate:"omitempty,oneof=csv pdf xlsx"`
	From   string `json:"from" validate:"required,isodate"`
	To     string `json:"to" validate:"required,isodate"`
}

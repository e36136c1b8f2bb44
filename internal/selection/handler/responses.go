package handler

import (
	"time"

	"reviewdraw/internal/selection/models"
)

// RecordResponse is a selection record as operators see it.
type RecordResponse struct {
	ID          string                   `json:"id"`
	Project     models.ProjectSnapshot   `json:"project"`
	Status      models.Status            `json:"status"`
	StatusLabel string                   `json:"status_label"`
	Entries     []models.AllocationEntry `json:"entries"`
	Log         []LogEntryResponse       `json:"log"`
	CreatedAt   time.Time                `json:"created_at"`
	UpdatedAt   time.Time                `json:"updated_at"`
	Version     int64                    `json:"version"`
}

type LogEntryResponse struct {
	models.AuditEntry
	Message string `json:"message"`
}

type ListResponse struct {
	Records []*RecordResponse `json:"records"`
}

func FromRecord(rec *models.Record) *RecordResponse {
	entries := rec.Entries
	if entries == nil {
		entries = []models.AllocationEntry{}
	}
	log := make([]LogEntryResponse, len(rec.Log))
	for i, e := range rec.Log {
		log[i] = LogEntryResponse{AuditEntry: e, Message: e.Message()}
	}
	return &RecordResponse{
		ID:          rec.ID.String(),
		Project:     rec.Project,
		Status:      rec.Status,
		StatusLabel: rec.Status.Label(),
		Entries:     entries,
		Log:         log,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
		Version:     rec.Version,
	}
}

func FromRecords(recs []*models.Record) *ListResponse {
	out := make([]*RecordResponse, len(recs))
	for i, rec := range recs {
		out[i] = FromRecord(rec)
	}
	return &ListResponse{Records: out}
}

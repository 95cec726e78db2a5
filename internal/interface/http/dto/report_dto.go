package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/market-moderation/internal/domain/entity"
	"github.com/ignatzorin/market-moderation/internal/usecase/report"
)

type CreateReportRequest struct {
	ReportedEntityType string    `json:"reported_entity_type" binding:"required"`
	ReportedEntityID   uuid.UUID `json:"reported_entity_id" binding:"required"`
	Reason             string    `json:"reason"`
}

type ResolveReportRequest struct {
	ResolutionNotes string `json:"resolution_notes"`
	CascadeAction   string `json:"cascade_action"`
	CascadeReason   string `json:"cascade_reason"`
}

func (r ResolveReportRequest) ToInput() report.DecideReportInput {
	input := report.DecideReportInput{Notes: r.ResolutionNotes}
	if r.CascadeAction != "" {
		input.Cascade = &report.CascadeInput{Action: r.CascadeAction, Reason: r.CascadeReason}
	}
	return input
}

type DismissReportRequest struct {
	ResolutionNotes string `json:"resolution_notes"`
	CascadeAction   string `json:"cascade_action"`
}

func (r DismissReportRequest) ToInput() report.DecideReportInput {
	input := report.DecideReportInput{Notes: r.ResolutionNotes}
	if r.CascadeAction != "" {
		// отклонённая жалоба с каскадом отвергается в usecase
		input.Cascade = &report.CascadeInput{Action: r.CascadeAction}
	}
	return input
}

type ReportResponse struct {
	ID                 uuid.UUID  `json:"id"`
	ReporterID         uuid.UUID  `json:"reporter_id"`
	Reason             string     `json:"reason"`
	ReportedEntityType string     `json:"reported_entity_type"`
	ReportedEntityID   uuid.UUID  `json:"reported_entity_id"`
	Status             string     `json:"status"`
	ResolutionNotes    *string    `json:"resolution_notes"`
	ResolvedBy         *uuid.UUID `json:"resolved_by"`
	ResolvedAt         *time.Time `json:"resolved_at"`
	CreatedAt          time.Time  `json:"created_at"`
}

type ReportStatsResponse struct {
	Pending   int `json:"pending"`
	Resolved  int `json:"resolved"`
	Dismissed int `json:"dismissed"`
	Total     int `json:"total"`
}

func ToReportResponse(r *entity.Report) ReportResponse {
	return ReportResponse{
		ID:                 r.ID,
		ReporterID:         r.ReporterID,
		Reason:             r.Reason,
		ReportedEntityType: string(r.EntityType),
		ReportedEntityID:   r.EntityID,
		Status:             string(r.Status),
		ResolutionNotes:    r.ResolutionNotes,
		ResolvedBy:         r.ResolvedBy,
		ResolvedAt:         r.ResolvedAt,
		CreatedAt:          r.CreatedAt,
	}
}

func ToReportListResponse(items []*entity.Report) []ReportResponse {
	resp := make([]ReportResponse, 0, len(items))
	for _, r := range items {
		resp = append(resp, ToReportResponse(r))
	}
	return resp
}

func ToReportStatsResponse(s *report.ReportStats) ReportStatsResponse {
	return ReportStatsResponse{
		Pending:   s.Pending,
		Resolved:  s.Resolved,
		Dismissed: s.Dismissed,
		Total:     s.Total,
	}
}

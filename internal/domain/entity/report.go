package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/market-moderation/internal/domain/valueobject"
	"github.com/ignatzorin/market-moderation/internal/pkg/apperror"
	"github.com/ignatzorin/market-moderation/internal/validation"
)

const (
	ReportActionResolve = "resolve"
	ReportActionDismiss = "dismiss"
)

type Report struct {
	ID              uuid.UUID
	ReporterID      uuid.UUID
	Reason          string
	EntityID        uuid.UUID
	EntityType      valueobject.ReportedEntityType
	Status          valueobject.ReportStatus
	ResolutionNotes *string
	ResolvedBy      *uuid.UUID
	ResolvedAt      *time.Time
	Version         int
	CreatedAt       time.Time
}

func NewReport(reporterID uuid.UUID, entityType valueobject.ReportedEntityType, entityID uuid.UUID, reason string, now time.Time) (*Report, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperror.Validation("причина жалобы обязательна")
	}
	if err := validation.ValidateLength("причина жалобы", reason, 1, validation.MaxReportReasonLength); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	if entityID == uuid.Nil {
		return nil, apperror.Validation("объект жалобы обязателен")
	}

	return &Report{
		ID:         uuid.New(),
		ReporterID: reporterID,
		Reason:     reason,
		EntityID:   entityID,
		EntityType: entityType,
		Status:     valueobject.ReportStatusPending,
		Version:    1,
		CreatedAt:  now,
	}, nil
}

// Resolve переводит жалобу PENDING → RESOLVED.
func (r *Report) Resolve(moderator valueobject.Actor, notes string, now time.Time) error {
	return r.decide(moderator, ReportActionResolve, valueobject.ReportStatusResolved, notes, now)
}

// Dismiss переводит жалобу PENDING → DISMISSED.
func (r *Report) Dismiss(moderator valueobject.Actor, notes string, now time.Time) error {
	return r.decide(moderator, ReportActionDismiss, valueobject.ReportStatusDismissed, notes, now)
}

// CheckDecidable проверяет, что жалобу ещё можно рассмотреть.
func (r *Report) CheckDecidable(action string) error {
	if r.Status.IsTerminal() {
		return apperror.InvalidTransition(string(r.Status), action, nil)
	}
	return nil
}

func (r *Report) decide(moderator valueobject.Actor, action string, to valueobject.ReportStatus, notes string, now time.Time) error {
	if !moderator.IsModerator() {
		return apperror.ErrForbidden
	}
	if err := r.CheckDecidable(action); err != nil {
		return err
	}

	id := moderator.ID
	at := now
	r.Status = to
	r.ResolvedBy = &id
	r.ResolvedAt = &at
	if n := strings.TrimSpace(notes); n != "" {
		r.ResolutionNotes = &n
	}
	return nil
}

func (r *Report) Clone() *Report {
	c := *r
	c.ResolutionNotes = cloneString(r.ResolutionNotes)
	if r.ResolvedBy != nil {
		id := *r.ResolvedBy
		c.ResolvedBy = &id
	}
	if r.ResolvedAt != nil {
		at := *r.ResolvedAt
		c.ResolvedAt = &at
	}
	return &c
}

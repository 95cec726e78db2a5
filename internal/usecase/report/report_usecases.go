package report

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/market-moderation/internal/domain/entity"
	"github.com/ignatzorin/market-moderation/internal/domain/repository"
	"github.com/ignatzorin/market-moderation/internal/domain/valueobject"
	"github.com/ignatzorin/market-moderation/internal/infrastructure/events"
	"github.com/ignatzorin/market-moderation/internal/pkg/apperror"
	"github.com/ignatzorin/market-moderation/internal/pkg/pagination"
)

type CreateReportInput struct {
	EntityType string
	EntityID   uuid.UUID
	Reason     string
}

type CreateReportUseCase struct {
	reports   repository.ReportRepository
	listings  repository.ListingRepository
	publisher events.Publisher
	now       func() time.Time
}

func NewCreateReportUseCase(reports repository.ReportRepository, listings repository.ListingRepository, publisher events.Publisher) *CreateReportUseCase {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &CreateReportUseCase{
		reports:   reports,
		listings:  listings,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Execute регистрирует жалобу. Жалоба на объявление принимается только на существующее
// объявление; пользователи и отзывы живут в других сервисах и здесь не проверяются.
func (uc *CreateReportUseCase) Execute(ctx context.Context, reporter valueobject.Actor, input CreateReportInput) (*entity.Report, error) {
	if reporter.ID == uuid.Nil || reporter.IsSystem() {
		return nil, apperror.ErrForbidden
	}

	entityType, err := valueobject.NewReportedEntityType(input.EntityType)
	if err != nil {
		return nil, err
	}

	r, err := entity.NewReport(reporter.ID, entityType, input.EntityID, input.Reason, uc.now())
	if err != nil {
		return nil, err
	}

	if entityType == valueobject.ReportedEntityListing {
		if _, err := uc.listings.FindByID(ctx, input.EntityID); err != nil {
			return nil, err
		}
	}

	if err := uc.reports.Create(ctx, r); err != nil {
		return nil, err
	}

	reportID := r.ID
	_ = uc.publisher.Publish(ctx, events.Event{
		Type:       events.ReportCreated,
		ReportID:   &reportID,
		To:         string(r.Status),
		ActorID:    reporter.ID,
		ActorRole:  string(reporter.Role),
		OccurredAt: r.CreatedAt,
	})
	return r, nil
}

type ListReportsInput struct {
	Status string // пусто - все статусы
	Skip   int
	Limit  int
}

type ReportPage struct {
	Items []*entity.Report
	Total int
	Skip  int
	Limit int
}

type ListReportsUseCase struct {
	reports repository.ReportRepository
	policy  pagination.Policy
}

func NewListReportsUseCase(reports repository.ReportRepository, policy pagination.Policy) *ListReportsUseCase {
	return &ListReportsUseCase{reports: reports, policy: policy}
}

func (uc *ListReportsUseCase) Execute(ctx context.Context, actor valueobject.Actor, input ListReportsInput) (*ReportPage, error) {
	if !actor.IsModerator() {
		return nil, apperror.ErrForbidden
	}
	filter, page, err := uc.filter(input)
	if err != nil {
		return nil, err
	}
	return uc.list(ctx, filter, page)
}

// ExecuteForReporter возвращает жалобы, поданные самим пользователем.
func (uc *ListReportsUseCase) ExecuteForReporter(ctx context.Context, reporter valueobject.Actor, input ListReportsInput) (*ReportPage, error) {
	if reporter.ID == uuid.Nil {
		return nil, apperror.ErrUnauthorized
	}
	filter, page, err := uc.filter(input)
	if err != nil {
		return nil, err
	}
	reporterID := reporter.ID
	filter.ReporterID = &reporterID
	return uc.list(ctx, filter, page)
}

func (uc *ListReportsUseCase) filter(input ListReportsInput) (repository.ReportFilter, pagination.Page, error) {
	page, err := uc.policy.Normalize(input.Skip, input.Limit)
	if err != nil {
		return repository.ReportFilter{}, pagination.Page{}, err
	}

	filter := repository.ReportFilter{Limit: page.Limit, Offset: page.Skip}
	if strings.TrimSpace(input.Status) != "" {
		status, err := valueobject.NewReportStatus(input.Status)
		if err != nil {
			return repository.ReportFilter{}, pagination.Page{}, err
		}
		filter.Status = status
	}
	return filter, page, nil
}

func (uc *ListReportsUseCase) list(ctx context.Context, filter repository.ReportFilter, page pagination.Page) (*ReportPage, error) {
	items, total, err := uc.reports.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &ReportPage{Items: items, Total: total, Skip: page.Skip, Limit: page.Limit}, nil
}

type ReportStats struct {
	Pending   int
	Resolved  int
	Dismissed int
	Total     int
}

type GetReportStatsUseCase struct {
	reports repository.ReportRepository
}

func NewGetReportStatsUseCase(reports repository.ReportRepository) *GetReportStatsUseCase {
	return &GetReportStatsUseCase{reports: reports}
}

// Execute считает жалобы по статусам в том же хранилище, из которого читает список.
func (uc *GetReportStatsUseCase) Execute(ctx context.Context, actor valueobject.Actor) (*ReportStats, error) {
	if !actor.IsModerator() {
		return nil, apperror.ErrForbidden
	}

	counts, err := uc.reports.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	stats := &ReportStats{
		Pending:   counts[valueobject.ReportStatusPending],
		Resolved:  counts[valueobject.ReportStatusResolved],
		Dismissed: counts[valueobject.ReportStatusDismissed],
	}
	stats.Total = stats.Pending + stats.Resolved + stats.Dismissed
	return stats, nil
}

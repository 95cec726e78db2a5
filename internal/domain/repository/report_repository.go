package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/market-moderation/internal/domain/entity"
	"github.com/ignatzorin/market-moderation/internal/domain/valueobject"
)

// ReportRepository - хранилище жалоб. Save работает так же, как у объявлений.
type ReportRepository interface {
	Create(ctx context.Context, r *entity.Report) error
	Save(ctx context.Context, r *entity.Report) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Report, error)
	List(ctx context.Context, filter ReportFilter) ([]*entity.Report, int, error)
	CountByStatus(ctx context.Context) (map[valueobject.ReportStatus]int, error)
}

type ReportFilter struct {
	Status     valueobject.ReportStatus
	ReporterID *uuid.UUID
	Limit      int
	Offset     int
}

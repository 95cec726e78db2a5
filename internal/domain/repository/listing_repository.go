package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/market-moderation/internal/domain/entity"
	"github.com/ignatzorin/market-moderation/internal/domain/valueobject"
)

// ListingRepository - хранилище объявлений.
//
// Save выполняет оптимистичную запись: обновление проходит только если версия в хранилище
// совпадает с l.Version, иначе возвращается apperror.ErrConflict. После успешной записи
// версия увеличивается, а новые записи журнала сохраняются в той же транзакции.
type ListingRepository interface {
	Create(ctx context.Context, l *entity.Listing) error
	Save(ctx context.Context, l *entity.Listing) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Listing, error)
	FindDetail(ctx context.Context, id uuid.UUID) (*entity.Listing, error)
	List(ctx context.Context, filter ListingFilter) ([]*entity.Listing, int, error)
	CountByStatus(ctx context.Context, sellerID uuid.UUID) (map[valueobject.ListingStatus]int, error)
	AddImage(ctx context.Context, img *entity.ListingImage) error
	Ping(ctx context.Context) error
}

type ListingFilter struct {
	Statuses []valueobject.ListingStatus
	SellerID *uuid.UUID
	// NewestFirst меняет порядок выдачи; по умолчанию старые объявления идут первыми.
	NewestFirst bool
	Limit       int
	Offset      int
}

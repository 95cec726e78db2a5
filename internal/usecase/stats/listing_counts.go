package stats

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/market-moderation/internal/domain/repository"
	"github.com/ignatzorin/market-moderation/internal/domain/valueobject"
	"github.com/ignatzorin/market-moderation/internal/pkg/apperror"
)

type ListingCounts struct {
	Active   int
	Pending  int
	Inactive int
	Total    int
}

type GetListingCountsUseCase struct {
	listings repository.ListingRepository
}

func NewGetListingCountsUseCase(listings repository.ListingRepository) *GetListingCountsUseCase {
	return &GetListingCountsUseCase{listings: listings}
}

// Execute считает объявления продавца по вкладкам. Группировка статусов берётся из
// valueobject.ListingBucket - той же, по которой фильтруются вкладки списка.
// Модератор может запросить счётчики любого продавца.
func (uc *GetListingCountsUseCase) Execute(ctx context.Context, actor valueobject.Actor, sellerID uuid.UUID) (*ListingCounts, error) {
	if actor.ID != sellerID && !actor.IsModerator() {
		return nil, apperror.ErrForbidden
	}

	byStatus, err := uc.listings.CountByStatus(ctx, sellerID)
	if err != nil {
		return nil, err
	}

	counts := &ListingCounts{}
	for status, n := range byStatus {
		counts.Total += n
		switch status.Bucket() {
		case valueobject.BucketActive:
			counts.Active += n
		case valueobject.BucketPending:
			counts.Pending += n
		case valueobject.BucketInactive:
			counts.Inactive += n
		}
	}
	return counts, nil
}

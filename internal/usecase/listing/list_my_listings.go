package listing

import (
	"context"
	"strings"

	"github.com/ignatzorin/market-moderation/internal/domain/entity"
	"github.com/ignatzorin/market-moderation/internal/domain/repository"
	"github.com/ignatzorin/market-moderation/internal/domain/valueobject"
	"github.com/ignatzorin/market-moderation/internal/pkg/pagination"
)

type ListMyListingsInput struct {
	Tab   string // active | pending | inactive, пусто - все
	Skip  int
	Limit int
}

type ListingPage struct {
	Items []*entity.Listing
	Total int
	Skip  int
	Limit int
}

type ListMyListingsUseCase struct {
	listings repository.ListingRepository
	policy   pagination.Policy
}

func NewListMyListingsUseCase(listings repository.ListingRepository, policy pagination.Policy) *ListMyListingsUseCase {
	return &ListMyListingsUseCase{listings: listings, policy: policy}
}

// Execute возвращает объявления продавца по вкладке. Вкладки используют те же группы
// статусов, что и счётчики продавца.
func (uc *ListMyListingsUseCase) Execute(ctx context.Context, actor valueobject.Actor, input ListMyListingsInput) (*ListingPage, error) {
	page, err := uc.policy.Normalize(input.Skip, input.Limit)
	if err != nil {
		return nil, err
	}

	sellerID := actor.ID
	filter := repository.ListingFilter{
		SellerID:    &sellerID,
		NewestFirst: true,
		Limit:       page.Limit,
		Offset:      page.Skip,
	}
	if strings.TrimSpace(input.Tab) != "" {
		bucket, err := valueobject.NewListingBucket(input.Tab)
		if err != nil {
			return nil, err
		}
		filter.Statuses = bucket.Statuses()
	}

	items, total, err := uc.listings.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &ListingPage{Items: items, Total: total, Skip: page.Skip, Limit: page.Limit}, nil
}

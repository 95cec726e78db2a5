package stats_test

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/market-moderation/internal/domain/entity"
	"github.com/ignatzorin/market-moderation/internal/domain/repository"
	"github.com/ignatzorin/market-moderation/internal/domain/valueobject"
	"github.com/ignatzorin/market-moderation/internal/infrastructure/memory"
	"github.com/ignatzorin/market-moderation/internal/pkg/apperror"
	"github.com/ignatzorin/market-moderation/internal/pkg/keylock"
	"github.com/ignatzorin/market-moderation/internal/pkg/pagination"
	"github.com/ignatzorin/market-moderation/internal/usecase/listing"
	"github.com/ignatzorin/market-moderation/internal/usecase/stats"
)

func newListing(t *testing.T, store repository.ListingRepository, sellerID uuid.UUID) *entity.Listing {
	t.Helper()
	price, err := valueobject.ParsePrice("10", "")
	require.NoError(t, err)
	l, err := entity.NewListing(sellerID, entity.ListingFields{
		Title:       "Плитка керамическая",
		Description: "Остаток плитки после ремонта ванной",
		Price:       price,
		Quantity:    2,
		CategoryID:  uuid.New(),
		Type:        valueobject.ListingTypeProduct,
	}, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, store.Create(context.Background(), l))
	return l
}

func TestGetListingCounts_Buckets(t *testing.T) {
	store := memory.NewListingStore()
	engine := listing.NewEngine(store, keylock.New())
	seller := valueobject.Actor{ID: uuid.New(), Role: valueobject.RoleSeller}
	mod := valueobject.Actor{ID: uuid.New(), Role: valueobject.RoleModerator}
	sys := valueobject.Actor{ID: uuid.New(), Role: valueobject.RoleSystem}
	ctx := context.Background()

	newListing(t, store, seller.ID) // PENDING
	active := newListing(t, store, seller.ID)
	sold := newListing(t, store, seller.ID)
	rejected := newListing(t, store, seller.ID)
	inactive := newListing(t, store, seller.ID)

	for _, l := range []*entity.Listing{active, sold, inactive} {
		_, err := engine.ApplyTransition(ctx, l.ID, mod, entity.TransitionRequest{Action: entity.ActionApprove})
		require.NoError(t, err)
	}
	_, err := engine.ApplyTransition(ctx, sold.ID, sys, entity.TransitionRequest{Action: entity.ActionRecordSale, QuantitySold: 2})
	require.NoError(t, err)
	_, err = engine.ApplyTransition(ctx, rejected.ID, mod, entity.TransitionRequest{Action: entity.ActionReject, Reason: "плохие фото"})
	require.NoError(t, err)
	_, err = engine.ApplyTransition(ctx, inactive.ID, seller, entity.TransitionRequest{Action: entity.ActionDeactivate})
	require.NoError(t, err)

	counts, err := stats.NewGetListingCountsUseCase(store).Execute(ctx, seller, seller.ID)
	require.NoError(t, err)

	assert.Equal(t, stats.ListingCounts{Active: 2, Pending: 1, Inactive: 2, Total: 5}, *counts)
}

func TestGetListingCounts_Access(t *testing.T) {
	store := memory.NewListingStore()
	sellerID := uuid.New()
	newListing(t, store, sellerID)
	uc := stats.NewGetListingCountsUseCase(store)

	_, err := uc.Execute(context.Background(), valueobject.Actor{ID: uuid.New(), Role: valueobject.RoleSeller}, sellerID)
	assert.True(t, apperror.IsForbidden(err))

	counts, err := uc.Execute(context.Background(), valueobject.Actor{ID: uuid.New(), Role: valueobject.RoleAdmin}, sellerID)
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Total)
}

// Сумма вкладок совпадает с общим числом объявлений продавца, а каждая вкладка -
// с размером соответствующего списка, после любой последовательности действий.
func TestGetListingCounts_SumMatchesTotalAndTabs(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	store := memory.NewListingStore()
	engine := listing.NewEngine(store, keylock.New())
	countsUC := stats.NewGetListingCountsUseCase(store)
	listUC := listing.NewListMyListingsUseCase(store, pagination.DefaultPolicy())
	ctx := context.Background()

	mod := valueobject.Actor{ID: uuid.New(), Role: valueobject.RoleModerator}
	sys := valueobject.Actor{ID: uuid.New(), Role: valueobject.RoleSystem}
	sellers := []valueobject.Actor{
		{ID: uuid.New(), Role: valueobject.RoleSeller},
		{ID: uuid.New(), Role: valueobject.RoleSeller},
		{ID: uuid.New(), Role: valueobject.RoleUser},
	}

	var all []*entity.Listing
	requestFor := func(seller valueobject.Actor) (valueobject.Actor, entity.TransitionRequest) {
		switch rng.Intn(6) {
		case 0:
			return mod, entity.TransitionRequest{Action: entity.ActionApprove}
		case 1:
			return mod, entity.TransitionRequest{Action: entity.ActionReject, Reason: "причина"}
		case 2:
			return seller, entity.TransitionRequest{Action: entity.ActionDeactivate}
		case 3:
			return seller, entity.TransitionRequest{Action: entity.ActionReactivate}
		case 4:
			return sys, entity.TransitionRequest{Action: entity.ActionRecordSale, QuantitySold: 1}
		default:
			price, _ := valueobject.ParsePrice("12", "")
			fields := entity.ListingFields{
				Title:       "Исправленный заголовок",
				Description: "Исправленное описание объявления",
				Price:       price,
				Quantity:    1,
				CategoryID:  uuid.New(),
				Type:        valueobject.ListingTypeMaterial,
			}
			return seller, entity.TransitionRequest{Action: entity.ActionResubmit, Fields: &fields}
		}
	}

	for step := 0; step < 300; step++ {
		seller := sellers[rng.Intn(len(sellers))]
		if len(all) == 0 || rng.Intn(5) == 0 {
			all = append(all, newListing(t, store, seller.ID))
		} else {
			l := all[rng.Intn(len(all))]
			owner := valueobject.Actor{ID: l.SellerID, Role: valueobject.RoleSeller}
			actor, req := requestFor(owner)
			_, err := engine.ApplyTransition(ctx, l.ID, actor, req)
			if err != nil {
				require.True(t, apperror.IsInvalidTransition(err) || apperror.IsValidation(err), "step %d: %v", step, err)
			}
		}

		for _, seller := range sellers {
			counts, err := countsUC.Execute(ctx, seller, seller.ID)
			require.NoError(t, err)
			require.Equal(t, counts.Total, counts.Active+counts.Pending+counts.Inactive)

			everything, err := listUC.Execute(ctx, seller, listing.ListMyListingsInput{})
			require.NoError(t, err)
			require.Equal(t, everything.Total, counts.Total)

			tabs := map[string]int{"active": counts.Active, "pending": counts.Pending, "inactive": counts.Inactive}
			for tab, want := range tabs {
				page, err := listUC.Execute(ctx, seller, listing.ListMyListingsInput{Tab: tab, Limit: 1})
				require.NoError(t, err)
				require.Equal(t, want, page.Total, "step %d tab %s", step, tab)
			}
		}
	}
}

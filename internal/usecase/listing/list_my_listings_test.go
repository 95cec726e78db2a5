package listing_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/market-moderation/internal/domain/entity"
	"github.com/ignatzorin/market-moderation/internal/domain/valueobject"
	"github.com/ignatzorin/market-moderation/internal/pkg/apperror"
	"github.com/ignatzorin/market-moderation/internal/pkg/pagination"
	"github.com/ignatzorin/market-moderation/internal/usecase/listing"
)

func TestListMyListings_TabsMatchBuckets(t *testing.T) {
	env := newTestEnv()
	seller := sellerActor()
	mod := moderatorActor()

	pending := env.create(t, seller)
	active := env.create(t, seller)
	rejected := env.create(t, seller)
	sold := env.create(t, seller)
	env.create(t, sellerActor()) // чужое

	_, err := env.apply(active, mod, entity.TransitionRequest{Action: entity.ActionApprove})
	require.NoError(t, err)
	_, err = env.apply(rejected, mod, entity.TransitionRequest{Action: entity.ActionReject, Reason: "нет фото"})
	require.NoError(t, err)
	_, err = env.apply(sold, mod, entity.TransitionRequest{Action: entity.ActionApprove})
	require.NoError(t, err)
	_, err = env.apply(sold, systemActor(), entity.TransitionRequest{Action: entity.ActionRecordSale, QuantitySold: 3})
	require.NoError(t, err)

	uc := listing.NewListMyListingsUseCase(env.store, pagination.DefaultPolicy())
	ids := func(tab string) []uuid.UUID {
		page, err := uc.Execute(context.Background(), seller, listing.ListMyListingsInput{Tab: tab})
		require.NoError(t, err)
		var out []uuid.UUID
		for _, l := range page.Items {
			out = append(out, l.ID)
		}
		return out
	}

	assert.ElementsMatch(t, []uuid.UUID{active.ID, sold.ID}, ids("ACTIVE"))
	assert.ElementsMatch(t, []uuid.UUID{pending.ID}, ids("pending"))
	assert.ElementsMatch(t, []uuid.UUID{rejected.ID}, ids("inactive"))
	assert.Len(t, ids(""), 4)

	_, err = uc.Execute(context.Background(), seller, listing.ListMyListingsInput{Tab: "archived"})
	assert.True(t, apperror.IsValidation(err))
}

func TestListMyListings_Pagination(t *testing.T) {
	env := newTestEnv()
	seller := sellerActor()
	for i := 0; i < 3; i++ {
		env.create(t, seller)
	}
	uc := listing.NewListMyListingsUseCase(env.store, pagination.Policy{DefaultLimit: 2, MaxLimit: 2})

	page, err := uc.Execute(context.Background(), seller, listing.ListMyListingsInput{Limit: 50})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.Limit)

	page, err = uc.Execute(context.Background(), seller, listing.ListMyListingsInput{Skip: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 3, page.Total)
}

type mockImageStorage struct {
	mock.Mock
}

func (m *mockImageStorage) Save(ctx context.Context, listingID uuid.UUID, originalName string, r io.Reader) (string, int64, error) {
	args := m.Called(ctx, listingID, originalName, r)
	return args.String(0), args.Get(1).(int64), args.Error(2)
}

func (m *mockImageStorage) Delete(ctx context.Context, relativePath string) error {
	return m.Called(ctx, relativePath).Error(0)
}

func TestAddListingImage(t *testing.T) {
	env := newTestEnv()
	seller := sellerActor()
	l := env.create(t, seller)
	body := bytes.NewReader([]byte("jpeg"))

	storage := new(mockImageStorage)
	storage.On("Save", mock.Anything, l.ID, "photo.jpg", body).Return(l.ID.String()+"/a.jpg", int64(4), nil)

	img, err := listing.NewAddListingImageUseCase(env.store, storage).Execute(context.Background(), l.ID, seller, "photo.jpg", body)
	require.NoError(t, err)
	assert.Equal(t, l.ID.String()+"/a.jpg", img.Path)

	detail, err := env.store.FindDetail(context.Background(), l.ID)
	require.NoError(t, err)
	require.Len(t, detail.Images, 1)
	assert.Equal(t, valueobject.ListingStatusPending, detail.Status)
	storage.AssertExpectations(t)
}

func TestAddListingImage_OnlyOwner(t *testing.T) {
	env := newTestEnv()
	l := env.create(t, sellerActor())
	storage := new(mockImageStorage)

	_, err := listing.NewAddListingImageUseCase(env.store, storage).Execute(context.Background(), l.ID, sellerActor(), "photo.jpg", bytes.NewReader(nil))
	assert.True(t, apperror.IsForbidden(err))
	storage.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAddListingImage_MissingListingLooksForbidden(t *testing.T) {
	env := newTestEnv()
	storage := new(mockImageStorage)
	uc := listing.NewAddListingImageUseCase(env.store, storage)

	_, err := uc.Execute(context.Background(), uuid.New(), sellerActor(), "photo.jpg", bytes.NewReader(nil))
	assert.True(t, apperror.IsForbidden(err))

	_, err = uc.Execute(context.Background(), uuid.New(), moderatorActor(), "photo.jpg", bytes.NewReader(nil))
	assert.True(t, apperror.IsNotFound(err))
	storage.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAddListingImage_StorageError(t *testing.T) {
	env := newTestEnv()
	seller := sellerActor()
	l := env.create(t, seller)
	storage := new(mockImageStorage)
	storage.On("Save", mock.Anything, l.ID, "big.jpg", mock.Anything).Return("", int64(0), errors.New("слишком большой"))

	_, err := listing.NewAddListingImageUseCase(env.store, storage).Execute(context.Background(), l.ID, seller, "big.jpg", bytes.NewReader(nil))
	assert.Equal(t, apperror.ErrCodeBadRequest, apperror.CodeOf(err))
}

func TestCreateListing(t *testing.T) {
	env := newTestEnv()
	seller := sellerActor()
	uc := listing.NewCreateListingUseCase(env.store, env.publisher)

	l, err := uc.Execute(context.Background(), seller, validInput())
	require.NoError(t, err)
	assert.Equal(t, valueobject.ListingStatusPending, l.Status)
	assert.Equal(t, seller.ID, l.SellerID)
	assert.Equal(t, "1250.5", l.Price.Amount.String())
	assert.Equal(t, valueobject.ListingTypeMaterial, l.Type)
	assert.WithinDuration(t, time.Now(), l.CreatedAt, time.Minute)

	history := env.history(t, l.ID)
	require.Len(t, history, 1)
	assert.Equal(t, valueobject.ListingStatus(""), history[0].From)
	assert.Equal(t, valueobject.ListingStatusPending, history[0].To)
	assert.Len(t, env.publisher.Events(), 1)

	t.Run("validation", func(t *testing.T) {
		cases := map[string]func(in *listing.ListingInput){
			"zero price":        func(in *listing.ListingInput) { in.Price = "0" },
			"bad price":         func(in *listing.ListingInput) { in.Price = "abc" },
			"negative quantity": func(in *listing.ListingInput) { in.Quantity = -1 },
			"zero quantity":     func(in *listing.ListingInput) { in.Quantity = 0 },
			"sub-cent price":    func(in *listing.ListingInput) { in.Price = "0.001" },
			"price overflow":    func(in *listing.ListingInput) { in.Price = "1e13" },
			"no category":       func(in *listing.ListingInput) { in.CategoryID = uuid.Nil },
			"bad type":          func(in *listing.ListingInput) { in.ListingType = "SERVICE" },
			"short title":       func(in *listing.ListingInput) { in.Title = "ab" },
		}
		for name, mutate := range cases {
			in := validInput()
			mutate(&in)
			_, err := uc.Execute(context.Background(), seller, in)
			assert.True(t, apperror.IsValidation(err), name)
		}
	})

	t.Run("moderators do not create listings", func(t *testing.T) {
		_, err := uc.Execute(context.Background(), moderatorActor(), validInput())
		assert.True(t, apperror.IsForbidden(err))
	})
}

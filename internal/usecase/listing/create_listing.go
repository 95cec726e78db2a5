package listing

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/market-moderation/internal/domain/entity"
	"github.com/ignatzorin/market-moderation/internal/domain/repository"
	"github.com/ignatzorin/market-moderation/internal/domain/valueobject"
	"github.com/ignatzorin/market-moderation/internal/infrastructure/events"
	"github.com/ignatzorin/market-moderation/internal/pkg/apperror"
)

// ListingInput - поля объявления в том виде, в каком они пришли от продавца.
type ListingInput struct {
	Title             string
	Description       string
	Price             string
	PriceUnit         string
	Quantity          int
	CategoryID        uuid.UUID
	ListingType       string
	OriginDescription string
}

func (in ListingInput) ToFields() (entity.ListingFields, error) {
	price, err := valueobject.ParsePrice(in.Price, in.PriceUnit)
	if err != nil {
		return entity.ListingFields{}, err
	}
	listingType, err := valueobject.NewListingType(in.ListingType)
	if err != nil {
		return entity.ListingFields{}, err
	}

	fields := entity.ListingFields{
		Title:             in.Title,
		Description:       in.Description,
		Price:             price,
		Quantity:          in.Quantity,
		CategoryID:        in.CategoryID,
		Type:              listingType,
		OriginDescription: in.OriginDescription,
	}
	if err := fields.Validate(); err != nil {
		return entity.ListingFields{}, err
	}
	return fields, nil
}

type CreateListingUseCase struct {
	listings  repository.ListingRepository
	publisher events.Publisher
	now       func() time.Time
}

func NewCreateListingUseCase(listings repository.ListingRepository, publisher events.Publisher) *CreateListingUseCase {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &CreateListingUseCase{
		listings:  listings,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Execute создаёт объявление в статусе PENDING - оно сразу попадает в очередь модерации.
func (uc *CreateListingUseCase) Execute(ctx context.Context, actor valueobject.Actor, input ListingInput) (*entity.Listing, error) {
	if actor.Role != valueobject.RoleSeller && actor.Role != valueobject.RoleUser {
		return nil, apperror.ErrForbidden
	}

	fields, err := input.ToFields()
	if err != nil {
		return nil, err
	}

	l, err := entity.NewListing(actor.ID, fields, uc.now())
	if err != nil {
		return nil, err
	}

	if err := uc.listings.Create(ctx, l); err != nil {
		return nil, err
	}

	listingID := l.ID
	sellerID := l.SellerID
	_ = uc.publisher.Publish(ctx, events.Event{
		Type:       events.ListingCreated,
		ListingID:  &listingID,
		SellerID:   &sellerID,
		To:         string(l.Status),
		Action:     "create",
		ActorID:    actor.ID,
		ActorRole:  string(actor.Role),
		OccurredAt: l.CreatedAt,
	})

	return l, nil
}

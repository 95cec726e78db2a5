package listing

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/market-moderation/internal/domain/entity"
	"github.com/ignatzorin/market-moderation/internal/domain/valueobject"
)

type DeactivateListingUseCase struct {
	engine *Engine
}

func NewDeactivateListingUseCase(engine *Engine) *DeactivateListingUseCase {
	return &DeactivateListingUseCase{engine: engine}
}

// Execute снимает объявление с публикации. Для продавца это и есть «удаление».
func (uc *DeactivateListingUseCase) Execute(ctx context.Context, listingID uuid.UUID, actor valueobject.Actor) (*entity.Listing, error) {
	return uc.engine.ApplyTransition(ctx, listingID, actor, entity.TransitionRequest{Action: entity.ActionDeactivate})
}

type ReactivateListingUseCase struct {
	engine *Engine
}

func NewReactivateListingUseCase(engine *Engine) *ReactivateListingUseCase {
	return &ReactivateListingUseCase{engine: engine}
}

// Execute возвращает снятое объявление в очередь модерации.
func (uc *ReactivateListingUseCase) Execute(ctx context.Context, listingID uuid.UUID, actor valueobject.Actor) (*entity.Listing, error) {
	return uc.engine.ApplyTransition(ctx, listingID, actor, entity.TransitionRequest{Action: entity.ActionReactivate})
}

type ResubmitListingUseCase struct {
	engine *Engine
}

func NewResubmitListingUseCase(engine *Engine) *ResubmitListingUseCase {
	return &ResubmitListingUseCase{engine: engine}
}

// Execute заменяет поля отклонённого объявления и отправляет его на повторную модерацию.
func (uc *ResubmitListingUseCase) Execute(ctx context.Context, listingID uuid.UUID, actor valueobject.Actor, input ListingInput) (*entity.Listing, error) {
	fields, err := input.ToFields()
	if err != nil {
		return nil, err
	}
	return uc.engine.ApplyTransition(ctx, listingID, actor, entity.TransitionRequest{
		Action: entity.ActionResubmit,
		Fields: &fields,
	})
}

type RecordSaleUseCase struct {
	engine *Engine
}

func NewRecordSaleUseCase(engine *Engine) *RecordSaleUseCase {
	return &RecordSaleUseCase{engine: engine}
}

// Execute списывает проданное количество; при нулевом остатке объявление переходит в SOLD.
func (uc *RecordSaleUseCase) Execute(ctx context.Context, listingID uuid.UUID, actor valueobject.Actor, quantity int) (*entity.Listing, error) {
	return uc.engine.ApplyTransition(ctx, listingID, actor, entity.TransitionRequest{
		Action:       entity.ActionRecordSale,
		QuantitySold: quantity,
	})
}

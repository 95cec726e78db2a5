package moderation

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/ignatzorin/market-moderation/internal/domain/entity"
	"github.com/ignatzorin/market-moderation/internal/domain/repository"
	"github.com/ignatzorin/market-moderation/internal/domain/valueobject"
	"github.com/ignatzorin/market-moderation/internal/pkg/apperror"
	"github.com/ignatzorin/market-moderation/internal/pkg/pagination"
	"github.com/ignatzorin/market-moderation/internal/usecase/listing"
	"github.com/ignatzorin/market-moderation/internal/validation"
)

type ListQueueInput struct {
	Status string // по умолчанию PENDING
	Skip   int
	Limit  int
}

type ListQueueUseCase struct {
	listings repository.ListingRepository
	policy   pagination.Policy
}

func NewListQueueUseCase(listings repository.ListingRepository, policy pagination.Policy) *ListQueueUseCase {
	return &ListQueueUseCase{listings: listings, policy: policy}
}

// Execute читает очередь напрямую из хранилища: старые заявки первыми, total не зависит от окна.
func (uc *ListQueueUseCase) Execute(ctx context.Context, actor valueobject.Actor, input ListQueueInput) (*listing.ListingPage, error) {
	if !actor.IsModerator() {
		return nil, apperror.ErrForbidden
	}

	status := valueobject.ListingStatusPending
	if strings.TrimSpace(input.Status) != "" {
		parsed, err := valueobject.NewListingStatus(input.Status)
		if err != nil {
			return nil, err
		}
		status = parsed
	}

	page, err := uc.policy.Normalize(input.Skip, input.Limit)
	if err != nil {
		return nil, err
	}

	items, total, err := uc.listings.List(ctx, repository.ListingFilter{
		Statuses: []valueobject.ListingStatus{status},
		Limit:    page.Limit,
		Offset:   page.Skip,
	})
	if err != nil {
		return nil, err
	}

	return &listing.ListingPage{Items: items, Total: total, Skip: page.Skip, Limit: page.Limit}, nil
}

type GetListingDetailUseCase struct {
	listings repository.ListingRepository
}

func NewGetListingDetailUseCase(listings repository.ListingRepository) *GetListingDetailUseCase {
	return &GetListingDetailUseCase{listings: listings}
}

// Execute возвращает объявление с фотографиями и журналом. Модератор видит любое
// объявление, продавец - только своё.
func (uc *GetListingDetailUseCase) Execute(ctx context.Context, listingID uuid.UUID, actor valueobject.Actor) (*entity.Listing, error) {
	if actor.ID == uuid.Nil {
		return nil, apperror.ErrUnauthorized
	}

	l, err := uc.listings.FindDetail(ctx, listingID)
	if err != nil {
		if apperror.IsNotFound(err) && !actor.IsModerator() {
			return nil, apperror.ErrForbidden
		}
		return nil, err
	}
	if !actor.IsModerator() && !l.IsOwnedBy(actor.ID) {
		return nil, apperror.ErrForbidden
	}
	return l, nil
}

type ApproveListingUseCase struct {
	engine *listing.Engine
}

func NewApproveListingUseCase(engine *listing.Engine) *ApproveListingUseCase {
	return &ApproveListingUseCase{engine: engine}
}

func (uc *ApproveListingUseCase) Execute(ctx context.Context, listingID uuid.UUID, moderator valueobject.Actor, notes string) (*entity.Listing, error) {
	if !moderator.IsModerator() {
		return nil, apperror.ErrForbidden
	}
	if err := validation.ValidateModerationText("заметка модератора", notes, validation.MaxResolutionNotesLength); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	return uc.engine.ApplyTransition(ctx, listingID, moderator, entity.TransitionRequest{
		Action: entity.ActionApprove,
		Notes:  notes,
	})
}

type RejectListingUseCase struct {
	engine *listing.Engine
}

func NewRejectListingUseCase(engine *listing.Engine) *RejectListingUseCase {
	return &RejectListingUseCase{engine: engine}
}

// Execute отклоняет объявление. Пустая причина - ошибка валидации ещё до обращения к движку.
func (uc *RejectListingUseCase) Execute(ctx context.Context, listingID uuid.UUID, moderator valueobject.Actor, reason string) (*entity.Listing, error) {
	if !moderator.IsModerator() {
		return nil, apperror.ErrForbidden
	}
	if err := validation.ValidateNonEmpty("причина отклонения", reason); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	if err := validation.ValidateModerationText("причина отклонения", reason, validation.MaxRejectionReasonLength); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	return uc.engine.ApplyTransition(ctx, listingID, moderator, entity.TransitionRequest{
		Action: entity.ActionReject,
		Reason: reason,
	})
}

package listing

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/market-moderation/internal/domain/entity"
	"github.com/ignatzorin/market-moderation/internal/domain/repository"
	"github.com/ignatzorin/market-moderation/internal/domain/valueobject"
	"github.com/ignatzorin/market-moderation/internal/pkg/apperror"
)

// ImageStorage - внешнее хранилище файлов изображений.
type ImageStorage interface {
	Save(ctx context.Context, listingID uuid.UUID, originalName string, r io.Reader) (string, int64, error)
	Delete(ctx context.Context, relativePath string) error
}

type AddListingImageUseCase struct {
	listings repository.ListingRepository
	storage  ImageStorage
}

func NewAddListingImageUseCase(listings repository.ListingRepository, storage ImageStorage) *AddListingImageUseCase {
	return &AddListingImageUseCase{listings: listings, storage: storage}
}

// Execute сохраняет фотографию объявления. Добавлять фото может только владелец,
// статус объявления не меняется.
func (uc *AddListingImageUseCase) Execute(ctx context.Context, listingID uuid.UUID, actor valueobject.Actor, fileName string, r io.Reader) (*entity.ListingImage, error) {
	if actor.IsSystem() || actor.ID == uuid.Nil {
		return nil, apperror.ErrForbidden
	}

	l, err := uc.listings.FindByID(ctx, listingID)
	if apperror.IsNotFound(err) && !actor.IsModerator() {
		return nil, apperror.ErrForbidden
	}
	if err != nil {
		return nil, err
	}
	if !l.IsOwnedBy(actor.ID) {
		return nil, apperror.ErrForbidden
	}

	path, _, err := uc.storage.Save(ctx, listingID, fileName, r)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeBadRequest, "не удалось сохранить файл")
	}

	img := &entity.ListingImage{
		ID:        uuid.New(),
		ListingID: listingID,
		Path:      path,
		CreatedAt: time.Now().UTC(),
	}
	if err := uc.listings.AddImage(ctx, img); err != nil {
		_ = uc.storage.Delete(ctx, path)
		return nil, err
	}
	return img, nil
}

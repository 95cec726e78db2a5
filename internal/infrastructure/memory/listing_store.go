// Package memory - хранилища в памяти процесса для разработки и тестов.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/ignatzorin/market-moderation/internal/domain/entity"
	"github.com/ignatzorin/market-moderation/internal/domain/repository"
	"github.com/ignatzorin/market-moderation/internal/domain/valueobject"
	"github.com/ignatzorin/market-moderation/internal/pkg/apperror"
)

type ListingStore struct {
	mu       sync.RWMutex
	listings map[uuid.UUID]*entity.Listing
	history  map[uuid.UUID][]entity.HistoryEntry
	images   map[uuid.UUID][]entity.ListingImage
}

func NewListingStore() *ListingStore {
	return &ListingStore{
		listings: make(map[uuid.UUID]*entity.Listing),
		history:  make(map[uuid.UUID][]entity.HistoryEntry),
		images:   make(map[uuid.UUID][]entity.ListingImage),
	}
}

var _ repository.ListingRepository = (*ListingStore)(nil)

func (s *ListingStore) Create(ctx context.Context, l *entity.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.listings[l.ID]; exists {
		return apperror.ErrConflict
	}
	stored := l.Clone()
	stored.Images = nil
	stored.HydrateHistory(nil)
	s.listings[l.ID] = stored
	s.history[l.ID] = append(s.history[l.ID], l.PendingHistory()...)
	l.MarkPersisted()
	return nil
}

func (s *ListingStore) Save(ctx context.Context, l *entity.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.listings[l.ID]
	if !ok {
		return apperror.ErrListingNotFound
	}
	if current.Version != l.Version {
		return apperror.ErrConflict
	}

	l.Version++
	stored := l.Clone()
	stored.Images = nil
	stored.HydrateHistory(nil)
	s.listings[l.ID] = stored
	s.history[l.ID] = append(s.history[l.ID], l.PendingHistory()...)
	l.MarkPersisted()
	return nil
}

func (s *ListingStore) FindByID(ctx context.Context, id uuid.UUID) (*entity.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.listings[id]
	if !ok {
		return nil, apperror.ErrListingNotFound
	}
	return l.Clone(), nil
}

func (s *ListingStore) FindDetail(ctx context.Context, id uuid.UUID) (*entity.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.listings[id]
	if !ok {
		return nil, apperror.ErrListingNotFound
	}
	detail := l.Clone()
	detail.Images = append([]entity.ListingImage(nil), s.images[id]...)
	detail.HydrateHistory(s.history[id])
	return detail, nil
}

func (s *ListingStore) List(ctx context.Context, filter repository.ListingFilter) ([]*entity.Listing, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	allowed := make(map[valueobject.ListingStatus]bool, len(filter.Statuses))
	for _, st := range filter.Statuses {
		allowed[st] = true
	}

	var matched []*entity.Listing
	for _, l := range s.listings {
		if len(allowed) > 0 && !allowed[l.Status] {
			continue
		}
		if filter.SellerID != nil && l.SellerID != *filter.SellerID {
			continue
		}
		matched = append(matched, l)
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if filter.NewestFirst {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})

	total := len(matched)
	items := make([]*entity.Listing, 0)
	if filter.Offset < total {
		end := total
		if filter.Limit > 0 && filter.Offset+filter.Limit < end {
			end = filter.Offset + filter.Limit
		}
		for _, l := range matched[filter.Offset:end] {
			items = append(items, l.Clone())
		}
	}
	return items, total, nil
}

func (s *ListingStore) CountByStatus(ctx context.Context, sellerID uuid.UUID) (map[valueobject.ListingStatus]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[valueobject.ListingStatus]int)
	for _, l := range s.listings {
		if l.SellerID == sellerID {
			counts[l.Status]++
		}
	}
	return counts, nil
}

func (s *ListingStore) AddImage(ctx context.Context, img *entity.ListingImage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.listings[img.ListingID]; !ok {
		return apperror.ErrListingNotFound
	}
	s.images[img.ListingID] = append(s.images[img.ListingID], *img)
	return nil
}

func (s *ListingStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

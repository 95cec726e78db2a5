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

type ReportStore struct {
	mu      sync.RWMutex
	reports map[uuid.UUID]*entity.Report
}

func NewReportStore() *ReportStore {
	return &ReportStore{reports: make(map[uuid.UUID]*entity.Report)}
}

var _ repository.ReportRepository = (*ReportStore)(nil)

func (s *ReportStore) Create(ctx context.Context, r *entity.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.reports[r.ID]; exists {
		return apperror.ErrConflict
	}
	s.reports[r.ID] = r.Clone()
	return nil
}

func (s *ReportStore) Save(ctx context.Context, r *entity.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.reports[r.ID]
	if !ok {
		return apperror.ErrReportNotFound
	}
	if current.Version != r.Version {
		return apperror.ErrConflict
	}
	r.Version++
	s.reports[r.ID] = r.Clone()
	return nil
}

func (s *ReportStore) FindByID(ctx context.Context, id uuid.UUID) (*entity.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reports[id]
	if !ok {
		return nil, apperror.ErrReportNotFound
	}
	return r.Clone(), nil
}

func (s *ReportStore) List(ctx context.Context, filter repository.ReportFilter) ([]*entity.Report, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*entity.Report
	for _, r := range s.reports {
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.ReporterID != nil && r.ReporterID != *filter.ReporterID {
			continue
		}
		matched = append(matched, r)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})

	total := len(matched)
	items := make([]*entity.Report, 0)
	if filter.Offset < total {
		end := total
		if filter.Limit > 0 && filter.Offset+filter.Limit < end {
			end = filter.Offset + filter.Limit
		}
		for _, r := range matched[filter.Offset:end] {
			items = append(items, r.Clone())
		}
	}
	return items, total, nil
}

func (s *ReportStore) CountByStatus(ctx context.Context) (map[valueobject.ReportStatus]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[valueobject.ReportStatus]int)
	for _, r := range s.reports {
		counts[r.Status]++
	}
	return counts, nil
}

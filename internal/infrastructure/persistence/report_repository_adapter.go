package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/market-moderation/internal/domain/entity"
	"github.com/ignatzorin/market-moderation/internal/domain/repository"
	"github.com/ignatzorin/market-moderation/internal/domain/valueobject"
	"github.com/ignatzorin/market-moderation/internal/pkg/apperror"
)

const reportColumns = `id, reporter_id, reason, reported_entity_id, reported_entity_type, status, resolution_notes, resolved_by,
	resolved_at, version, created_at`

type reportRow struct {
	ID              uuid.UUID  `db:"id"`
	ReporterID      uuid.UUID  `db:"reporter_id"`
	Reason          string     `db:"reason"`
	EntityID        uuid.UUID  `db:"reported_entity_id"`
	EntityType      string     `db:"reported_entity_type"`
	Status          string     `db:"status"`
	ResolutionNotes *string    `db:"resolution_notes"`
	ResolvedBy      *uuid.UUID `db:"resolved_by"`
	ResolvedAt      *time.Time `db:"resolved_at"`
	Version         int        `db:"version"`
	CreatedAt       time.Time  `db:"created_at"`
}

func (r reportRow) toEntity() *entity.Report {
	return &entity.Report{
		ID:              r.ID,
		ReporterID:      r.ReporterID,
		Reason:          r.Reason,
		EntityID:        r.EntityID,
		EntityType:      valueobject.ReportedEntityType(r.EntityType),
		Status:          valueobject.ReportStatus(r.Status),
		ResolutionNotes: r.ResolutionNotes,
		ResolvedBy:      r.ResolvedBy,
		ResolvedAt:      r.ResolvedAt,
		Version:         r.Version,
		CreatedAt:       r.CreatedAt,
	}
}

type ReportRepositoryAdapter struct {
	db *sqlx.DB
}

func NewReportRepositoryAdapter(db *sqlx.DB) *ReportRepositoryAdapter {
	return &ReportRepositoryAdapter{db: db}
}

var _ repository.ReportRepository = (*ReportRepositoryAdapter)(nil)

func (r *ReportRepositoryAdapter) Create(ctx context.Context, report *entity.Report) error {
	query := `
		INSERT INTO reports (id, reporter_id, reason, reported_entity_id, reported_entity_type, status, version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		report.ID,
		report.ReporterID,
		report.Reason,
		report.EntityID,
		string(report.EntityType),
		string(report.Status),
		report.Version,
		report.CreatedAt,
	)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось создать жалобу")
	}
	return nil
}

func (r *ReportRepositoryAdapter) Save(ctx context.Context, report *entity.Report) error {
	query := `
		UPDATE reports
		SET status = $3, resolution_notes = $4, resolved_by = $5, resolved_at = $6, version = version + 1
		WHERE id = $1 AND version = $2
	`
	result, err := r.db.ExecContext(ctx, query,
		report.ID,
		report.Version,
		string(report.Status),
		report.ResolutionNotes,
		report.ResolvedBy,
		report.ResolvedAt,
	)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось обновить жалобу")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось проверить результат обновления")
	}
	if rows == 0 {
		// различаем удалённую жалобу и гонку версий
		if _, findErr := r.FindByID(ctx, report.ID); findErr != nil {
			return findErr
		}
		return apperror.ErrConflict
	}

	report.Version++
	return nil
}

func (r *ReportRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.Report, error) {
	var row reportRow
	err := r.db.GetContext(ctx, &row, `SELECT `+reportColumns+` FROM reports WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.ErrReportNotFound
	}
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить жалобу")
	}
	return row.toEntity(), nil
}

func (r *ReportRepositoryAdapter) List(ctx context.Context, filter repository.ReportFilter) ([]*entity.Report, int, error) {
	baseQuery := `FROM reports WHERE 1=1`
	args := []interface{}{}
	argNum := 1

	if filter.Status != "" {
		baseQuery += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, string(filter.Status))
		argNum++
	}
	if filter.ReporterID != nil {
		baseQuery += fmt.Sprintf(" AND reporter_id = $%d", argNum)
		args = append(args, *filter.ReporterID)
		argNum++
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+baseQuery, args...); err != nil {
		return nil, 0, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось посчитать жалобы")
	}

	selectQuery := fmt.Sprintf(`SELECT %s %s ORDER BY created_at ASC, id ASC LIMIT $%d OFFSET $%d`,
		reportColumns, baseQuery, argNum, argNum+1)
	args = append(args, filter.Limit, filter.Offset)

	var rows []reportRow
	if err := r.db.SelectContext(ctx, &rows, selectQuery, args...); err != nil {
		return nil, 0, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить жалобы")
	}

	reports := make([]*entity.Report, 0, len(rows))
	for _, row := range rows {
		reports = append(reports, row.toEntity())
	}
	return reports, total, nil
}

func (r *ReportRepositoryAdapter) CountByStatus(ctx context.Context) (map[valueobject.ReportStatus]int, error) {
	var rows []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &rows, `SELECT status, COUNT(*) AS count FROM reports GROUP BY status`); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось посчитать жалобы")
	}

	counts := make(map[valueobject.ReportStatus]int, len(rows))
	for _, row := range rows {
		counts[valueobject.ReportStatus(row.Status)] = row.Count
	}
	return counts, nil
}

package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/market-moderation/internal/domain/entity"
	"github.com/ignatzorin/market-moderation/internal/domain/repository"
	"github.com/ignatzorin/market-moderation/internal/domain/valueobject"
	"github.com/ignatzorin/market-moderation/internal/pkg/apperror"
)

const listingColumns = `id, seller_id, title, description, price, price_unit, quantity, category_id, listing_type,
	origin_description, status, rejection_reason, moderated_by, moderated_at, moderation_notes, version,
	created_at, updated_at`

type listingRow struct {
	ID                uuid.UUID       `db:"id"`
	SellerID          uuid.UUID       `db:"seller_id"`
	Title             string          `db:"title"`
	Description       string          `db:"description"`
	Price             decimal.Decimal `db:"price"`
	PriceUnit         string          `db:"price_unit"`
	Quantity          int             `db:"quantity"`
	CategoryID        uuid.UUID       `db:"category_id"`
	ListingType       string          `db:"listing_type"`
	OriginDescription string          `db:"origin_description"`
	Status            string          `db:"status"`
	RejectionReason   *string         `db:"rejection_reason"`
	ModeratedBy       *uuid.UUID      `db:"moderated_by"`
	ModeratedAt       *time.Time      `db:"moderated_at"`
	ModerationNotes   *string         `db:"moderation_notes"`
	Version           int             `db:"version"`
	CreatedAt         time.Time       `db:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at"`
}

func (r listingRow) toEntity() *entity.Listing {
	return &entity.Listing{
		ID:       r.ID,
		SellerID: r.SellerID,
		ListingFields: entity.ListingFields{
			Title:             r.Title,
			Description:       r.Description,
			Price:             valueobject.Price{Amount: r.Price, Unit: r.PriceUnit},
			Quantity:          r.Quantity,
			CategoryID:        r.CategoryID,
			Type:              valueobject.ListingType(r.ListingType),
			OriginDescription: r.OriginDescription,
		},
		Status:          valueobject.ListingStatus(r.Status),
		RejectionReason: r.RejectionReason,
		ModeratedBy:     r.ModeratedBy,
		ModeratedAt:     r.ModeratedAt,
		ModerationNotes: r.ModerationNotes,
		Version:         r.Version,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

type historyRow struct {
	ID         uuid.UUID      `db:"id"`
	ListingID  uuid.UUID      `db:"listing_id"`
	FromStatus sql.NullString `db:"from_status"`
	ToStatus   string         `db:"to_status"`
	Action     string         `db:"action"`
	ActorID    uuid.UUID      `db:"actor_id"`
	ActorRole  string         `db:"actor_role"`
	Reason     *string        `db:"reason"`
	CreatedAt  time.Time      `db:"created_at"`
}

type imageRow struct {
	ID        uuid.UUID `db:"id"`
	ListingID uuid.UUID `db:"listing_id"`
	Path      string    `db:"path"`
	CreatedAt time.Time `db:"created_at"`
}

type ListingRepositoryAdapter struct {
	db *sqlx.DB
}

func NewListingRepositoryAdapter(db *sqlx.DB) *ListingRepositoryAdapter {
	return &ListingRepositoryAdapter{db: db}
}

var _ repository.ListingRepository = (*ListingRepositoryAdapter)(nil)

func (r *ListingRepositoryAdapter) Create(ctx context.Context, l *entity.Listing) error {
	err := WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO listings (id, seller_id, title, description, price, price_unit, quantity, category_id,
				listing_type, origin_description, status, version, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		`
		if _, err := tx.ExecContext(ctx, query,
			l.ID,
			l.SellerID,
			l.Title,
			l.Description,
			l.Price.Amount,
			l.Price.Unit,
			l.Quantity,
			l.CategoryID,
			string(l.Type),
			l.OriginDescription,
			string(l.Status),
			l.Version,
			l.CreatedAt,
			l.UpdatedAt,
		); err != nil {
			return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось создать объявление")
		}
		return insertHistory(ctx, tx, l.PendingHistory())
	})
	if err != nil {
		return err
	}
	l.MarkPersisted()
	return nil
}

// Save блокирует строку, сверяет версию и записывает статус вместе с журналом.
func (r *ListingRepositoryAdapter) Save(ctx context.Context, l *entity.Listing) error {
	err := WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		var current int
		err := tx.GetContext(ctx, &current, `SELECT version FROM listings WHERE id = $1 FOR UPDATE`, l.ID)
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.ErrListingNotFound
		}
		if err != nil {
			return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось заблокировать объявление")
		}
		if current != l.Version {
			return apperror.ErrConflict
		}

		query := `
			UPDATE listings
			SET title = $3, description = $4, price = $5, price_unit = $6, quantity = $7, category_id = $8,
			    listing_type = $9, origin_description = $10, status = $11, rejection_reason = $12,
			    moderated_by = $13, moderated_at = $14, moderation_notes = $15, version = version + 1,
			    updated_at = $16
			WHERE id = $1 AND version = $2
		`
		result, err := tx.ExecContext(ctx, query,
			l.ID,
			l.Version,
			l.Title,
			l.Description,
			l.Price.Amount,
			l.Price.Unit,
			l.Quantity,
			l.CategoryID,
			string(l.Type),
			l.OriginDescription,
			string(l.Status),
			l.RejectionReason,
			l.ModeratedBy,
			l.ModeratedAt,
			l.ModerationNotes,
			l.UpdatedAt,
		)
		if err != nil {
			return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось обновить объявление")
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось проверить результат обновления")
		}
		if rows == 0 {
			return apperror.ErrConflict
		}

		return insertHistory(ctx, tx, l.PendingHistory())
	})
	if err != nil {
		return err
	}

	l.Version++
	l.MarkPersisted()
	return nil
}

func insertHistory(ctx context.Context, tx *sqlx.Tx, entries []entity.HistoryEntry) error {
	for _, e := range entries {
		var from sql.NullString
		if e.From != "" {
			from = sql.NullString{String: string(e.From), Valid: true}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO listing_history (id, listing_id, from_status, to_status, action, actor_id, actor_role, reason, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, e.ID, e.ListingID, from, string(e.To), e.Action, e.ActorID, string(e.ActorRole), e.Reason, e.CreatedAt)
		if err != nil {
			return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось записать журнал объявления")
		}
	}
	return nil
}

func (r *ListingRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.Listing, error) {
	var row listingRow
	err := r.db.GetContext(ctx, &row, `SELECT `+listingColumns+` FROM listings WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.ErrListingNotFound
	}
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить объявление")
	}
	return row.toEntity(), nil
}

func (r *ListingRepositoryAdapter) FindDetail(ctx context.Context, id uuid.UUID) (*entity.Listing, error) {
	l, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var images []imageRow
	if err := r.db.SelectContext(ctx, &images, `
		SELECT id, listing_id, path, created_at FROM listing_images WHERE listing_id = $1 ORDER BY created_at
	`, id); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить фотографии объявления")
	}
	for _, img := range images {
		l.Images = append(l.Images, entity.ListingImage{ID: img.ID, ListingID: img.ListingID, Path: img.Path, CreatedAt: img.CreatedAt})
	}

	var rows []historyRow
	if err := r.db.SelectContext(ctx, &rows, `
		SELECT id, listing_id, from_status, to_status, action, actor_id, actor_role, reason, created_at
		FROM listing_history WHERE listing_id = $1 ORDER BY created_at, id
	`, id); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить журнал объявления")
	}
	entries := make([]entity.HistoryEntry, 0, len(rows))
	for _, h := range rows {
		entries = append(entries, entity.HistoryEntry{
			ID:        h.ID,
			ListingID: h.ListingID,
			From:      valueobject.ListingStatus(h.FromStatus.String),
			To:        valueobject.ListingStatus(h.ToStatus),
			Action:    h.Action,
			ActorID:   h.ActorID,
			ActorRole: valueobject.Role(h.ActorRole),
			Reason:    h.Reason,
			CreatedAt: h.CreatedAt,
		})
	}
	l.HydrateHistory(entries)

	return l, nil
}

func (r *ListingRepositoryAdapter) List(ctx context.Context, filter repository.ListingFilter) ([]*entity.Listing, int, error) {
	baseQuery := `FROM listings WHERE 1=1`
	args := []interface{}{}
	argNum := 1

	if len(filter.Statuses) > 0 {
		baseQuery += fmt.Sprintf(" AND status IN (%s)", placeholders(argNum, len(filter.Statuses)))
		for _, st := range filter.Statuses {
			args = append(args, string(st))
		}
		argNum += len(filter.Statuses)
	}

	if filter.SellerID != nil {
		baseQuery += fmt.Sprintf(" AND seller_id = $%d", argNum)
		args = append(args, *filter.SellerID)
		argNum++
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+baseQuery, args...); err != nil {
		return nil, 0, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось посчитать объявления")
	}

	sortOrder := "ASC"
	if filter.NewestFirst {
		sortOrder = "DESC"
	}

	selectQuery := fmt.Sprintf(`SELECT %s %s ORDER BY created_at %s, id %s LIMIT $%d OFFSET $%d`,
		listingColumns, baseQuery, sortOrder, sortOrder, argNum, argNum+1)
	args = append(args, filter.Limit, filter.Offset)

	var rows []listingRow
	if err := r.db.SelectContext(ctx, &rows, selectQuery, args...); err != nil {
		return nil, 0, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить объявления")
	}

	listings := make([]*entity.Listing, 0, len(rows))
	for _, row := range rows {
		listings = append(listings, row.toEntity())
	}

	return listings, total, nil
}

func (r *ListingRepositoryAdapter) CountByStatus(ctx context.Context, sellerID uuid.UUID) (map[valueobject.ListingStatus]int, error) {
	var rows []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &rows, `
		SELECT status, COUNT(*) AS count FROM listings WHERE seller_id = $1 GROUP BY status
	`, sellerID); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось посчитать объявления продавца")
	}

	counts := make(map[valueobject.ListingStatus]int, len(rows))
	for _, row := range rows {
		counts[valueobject.ListingStatus(row.Status)] = row.Count
	}
	return counts, nil
}

func (r *ListingRepositoryAdapter) AddImage(ctx context.Context, img *entity.ListingImage) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO listing_images (id, listing_id, path, created_at) VALUES ($1, $2, $3, $4)
	`, img.ID, img.ListingID, img.Path, img.CreatedAt)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось сохранить фотографию объявления")
	}
	return nil
}

func (r *ListingRepositoryAdapter) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/market-moderation/internal/domain/entity"
	"github.com/ignatzorin/market-moderation/internal/usecase/listing"
	"github.com/ignatzorin/market-moderation/internal/usecase/stats"
)

type ListingRequest struct {
	Title             string    `json:"title" binding:"required"`
	Description       string    `json:"description" binding:"required"`
	Price             string    `json:"price" binding:"required"`
	PriceUnit         string    `json:"price_unit"`
	Quantity          int       `json:"quantity"`
	CategoryID        uuid.UUID `json:"category_id" binding:"required"`
	ListingType       string    `json:"listing_type" binding:"required"`
	OriginDescription string    `json:"origin_description"`
}

func (r ListingRequest) ToInput() listing.ListingInput {
	return listing.ListingInput{
		Title:             r.Title,
		Description:       r.Description,
		Price:             r.Price,
		PriceUnit:         r.PriceUnit,
		Quantity:          r.Quantity,
		CategoryID:        r.CategoryID,
		ListingType:       r.ListingType,
		OriginDescription: r.OriginDescription,
	}
}

type ApproveListingRequest struct {
	Notes string `json:"notes"`
}

type RejectListingRequest struct {
	Reason string `json:"reason"`
}

type RecordSaleRequest struct {
	Quantity int `json:"quantity"`
}

type ListingResponse struct {
	ID                uuid.UUID  `json:"id"`
	SellerID          uuid.UUID  `json:"seller_id"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	Price             string     `json:"price"`
	PriceUnit         string     `json:"price_unit"`
	Quantity          int        `json:"quantity"`
	CategoryID        uuid.UUID  `json:"category_id"`
	ListingType       string     `json:"listing_type"`
	OriginDescription string     `json:"origin_description,omitempty"`
	Status            string     `json:"status"`
	RejectionReason   *string    `json:"rejection_reason"`
	ModeratedBy       *uuid.UUID `json:"moderated_by"`
	ModeratedAt       *time.Time `json:"moderated_at"`
	ModerationNotes   *string    `json:"moderation_notes"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

type ListingImageResponse struct {
	ID        uuid.UUID `json:"id"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
}

type HistoryEntryResponse struct {
	ID        uuid.UUID `json:"id"`
	From      *string   `json:"from"`
	To        string    `json:"to"`
	Action    string    `json:"action"`
	ActorID   uuid.UUID `json:"actor_id"`
	ActorRole string    `json:"actor_role"`
	Reason    *string   `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type ListingDetailResponse struct {
	ListingResponse
	Images  []ListingImageResponse `json:"images"`
	History []HistoryEntryResponse `json:"history"`
}

type ListingCountsResponse struct {
	Active   int `json:"active"`
	Pending  int `json:"pending"`
	Inactive int `json:"inactive"`
	Total    int `json:"total"`
}

func ToListingResponse(l *entity.Listing) ListingResponse {
	return ListingResponse{
		ID:                l.ID,
		SellerID:          l.SellerID,
		Title:             l.Title,
		Description:       l.Description,
		Price:             l.Price.Amount.StringFixed(2),
		PriceUnit:         l.Price.Unit,
		Quantity:          l.Quantity,
		CategoryID:        l.CategoryID,
		ListingType:       string(l.Type),
		OriginDescription: l.OriginDescription,
		Status:            string(l.Status),
		RejectionReason:   l.RejectionReason,
		ModeratedBy:       l.ModeratedBy,
		ModeratedAt:       l.ModeratedAt,
		ModerationNotes:   l.ModerationNotes,
		CreatedAt:         l.CreatedAt,
		UpdatedAt:         l.UpdatedAt,
	}
}

func ToListingListResponse(items []*entity.Listing) []ListingResponse {
	resp := make([]ListingResponse, 0, len(items))
	for _, l := range items {
		resp = append(resp, ToListingResponse(l))
	}
	return resp
}

func ToListingImageResponse(img *entity.ListingImage) ListingImageResponse {
	return ListingImageResponse{ID: img.ID, Path: img.Path, CreatedAt: img.CreatedAt}
}

func ToListingDetailResponse(l *entity.Listing) ListingDetailResponse {
	resp := ListingDetailResponse{
		ListingResponse: ToListingResponse(l),
		Images:          make([]ListingImageResponse, 0, len(l.Images)),
	}
	for i := range l.Images {
		resp.Images = append(resp.Images, ToListingImageResponse(&l.Images[i]))
	}

	history := l.History()
	resp.History = make([]HistoryEntryResponse, 0, len(history))
	for _, h := range history {
		entry := HistoryEntryResponse{
			ID:        h.ID,
			To:        string(h.To),
			Action:    h.Action,
			ActorID:   h.ActorID,
			ActorRole: string(h.ActorRole),
			Reason:    h.Reason,
			CreatedAt: h.CreatedAt,
		}
		if h.From != "" {
			from := string(h.From)
			entry.From = &from
		}
		resp.History = append(resp.History, entry)
	}
	return resp
}

func ToListingCountsResponse(c *stats.ListingCounts) ListingCountsResponse {
	return ListingCountsResponse{
		Active:   c.Active,
		Pending:  c.Pending,
		Inactive: c.Inactive,
		Total:    c.Total,
	}
}

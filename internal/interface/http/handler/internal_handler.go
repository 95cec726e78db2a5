package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/market-moderation/internal/interface/http/dto"
	"github.com/ignatzorin/market-moderation/internal/interface/http/response"
	"github.com/ignatzorin/market-moderation/internal/usecase/listing"
)

// InternalHandler принимает вызовы от других сервисов площадки (роль system).
type InternalHandler struct {
	recordSaleUC *listing.RecordSaleUseCase
}

func NewInternalHandler(recordSaleUC *listing.RecordSaleUseCase) *InternalHandler {
	return &InternalHandler{recordSaleUC: recordSaleUC}
}

// RecordSale обрабатывает POST /api/internal/listings/:id/sales.
func (h *InternalHandler) RecordSale(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.RecordSaleRequest
	if !bindJSON(c, &req) {
		return
	}

	l, err := h.recordSaleUC.Execute(c.Request.Context(), id, actor, req.Quantity)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToListingResponse(l))
}

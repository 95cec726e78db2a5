package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/market-moderation/internal/interface/http/dto"
	"github.com/ignatzorin/market-moderation/internal/interface/http/response"
	"github.com/ignatzorin/market-moderation/internal/usecase/report"
)

type ReportHandler struct {
	createUC *report.CreateReportUseCase
	listUC   *report.ListReportsUseCase
}

func NewReportHandler(createUC *report.CreateReportUseCase, listUC *report.ListReportsUseCase) *ReportHandler {
	return &ReportHandler{createUC: createUC, listUC: listUC}
}

// Create обрабатывает POST /api/reports.
func (h *ReportHandler) Create(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req dto.CreateReportRequest
	if !bindJSON(c, &req) {
		return
	}

	r, err := h.createUC.Execute(c.Request.Context(), actor, report.CreateReportInput{
		EntityType: req.ReportedEntityType,
		EntityID:   req.ReportedEntityID,
		Reason:     req.Reason,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToReportResponse(r))
}

// ListMy обрабатывает GET /api/reports/my.
func (h *ReportHandler) ListMy(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	skip, limit, ok := parseWindow(c)
	if !ok {
		return
	}

	page, err := h.listUC.ExecuteForReporter(c.Request.Context(), actor, report.ListReportsInput{
		Status: c.Query("status"),
		Skip:   skip,
		Limit:  limit,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, dto.ToReportListResponse(page.Items), page.Total, page.Limit, page.Skip)
}

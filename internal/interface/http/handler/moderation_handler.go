package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/market-moderation/internal/interface/http/dto"
	"github.com/ignatzorin/market-moderation/internal/interface/http/response"
	"github.com/ignatzorin/market-moderation/internal/usecase/moderation"
	"github.com/ignatzorin/market-moderation/internal/usecase/report"
)

// ModerationHandler обслуживает рабочее место модератора: очередь объявлений и жалобы.
type ModerationHandler struct {
	queueUC       *moderation.ListQueueUseCase
	detailUC      *moderation.GetListingDetailUseCase
	approveUC     *moderation.ApproveListingUseCase
	rejectUC      *moderation.RejectListingUseCase
	listReportsUC *report.ListReportsUseCase
	reportStatsUC *report.GetReportStatsUseCase
	decideUC      *report.DecideReportUseCase
}

func NewModerationHandler(
	queueUC *moderation.ListQueueUseCase,
	detailUC *moderation.GetListingDetailUseCase,
	approveUC *moderation.ApproveListingUseCase,
	rejectUC *moderation.RejectListingUseCase,
	listReportsUC *report.ListReportsUseCase,
	reportStatsUC *report.GetReportStatsUseCase,
	decideUC *report.DecideReportUseCase,
) *ModerationHandler {
	return &ModerationHandler{
		queueUC:       queueUC,
		detailUC:      detailUC,
		approveUC:     approveUC,
		rejectUC:      rejectUC,
		listReportsUC: listReportsUC,
		reportStatsUC: reportStatsUC,
		decideUC:      decideUC,
	}
}

// Queue обрабатывает GET /api/moderation/queue?status=&skip=&limit=.
func (h *ModerationHandler) Queue(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	skip, limit, ok := parseWindow(c)
	if !ok {
		return
	}

	page, err := h.queueUC.Execute(c.Request.Context(), actor, moderation.ListQueueInput{
		Status: c.Query("status"),
		Skip:   skip,
		Limit:  limit,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, dto.ToListingListResponse(page.Items), page.Total, page.Limit, page.Skip)
}

func (h *ModerationHandler) GetListing(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	l, err := h.detailUC.Execute(c.Request.Context(), id, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToListingDetailResponse(l))
}

func (h *ModerationHandler) Approve(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.ApproveListingRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	l, err := h.approveUC.Execute(c.Request.Context(), id, actor, req.Notes)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToListingResponse(l))
}

func (h *ModerationHandler) Reject(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.RejectListingRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	l, err := h.rejectUC.Execute(c.Request.Context(), id, actor, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToListingResponse(l))
}

// Reports обрабатывает GET /api/moderation/reports. Без status возвращаются жалобы всех статусов.
func (h *ModerationHandler) Reports(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	skip, limit, ok := parseWindow(c)
	if !ok {
		return
	}

	page, err := h.listReportsUC.Execute(c.Request.Context(), actor, report.ListReportsInput{
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

func (h *ModerationHandler) ReportStats(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	stats, err := h.reportStatsUC.Execute(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToReportStatsResponse(stats))
}

func (h *ModerationHandler) ResolveReport(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.ResolveReportRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	r, err := h.decideUC.Resolve(c.Request.Context(), id, actor, req.ToInput())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToReportResponse(r))
}

func (h *ModerationHandler) DismissReport(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.DismissReportRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	r, err := h.decideUC.Dismiss(c.Request.Context(), id, actor, req.ToInput())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToReportResponse(r))
}

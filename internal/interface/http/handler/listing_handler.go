package handler

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/h2non/filetype"

	"github.com/ignatzorin/market-moderation/internal/interface/http/dto"
	"github.com/ignatzorin/market-moderation/internal/interface/http/response"
	"github.com/ignatzorin/market-moderation/internal/pkg/apperror"
	"github.com/ignatzorin/market-moderation/internal/usecase/listing"
	"github.com/ignatzorin/market-moderation/internal/usecase/moderation"
	"github.com/ignatzorin/market-moderation/internal/usecase/stats"
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

type ListingHandler struct {
	createUC     *listing.CreateListingUseCase
	resubmitUC   *listing.ResubmitListingUseCase
	deactivateUC *listing.DeactivateListingUseCase
	reactivateUC *listing.ReactivateListingUseCase
	listMyUC     *listing.ListMyListingsUseCase
	countsUC     *stats.GetListingCountsUseCase
	detailUC     *moderation.GetListingDetailUseCase
	addImageUC   *listing.AddListingImageUseCase
	maxUpload    int64
}

func NewListingHandler(
	createUC *listing.CreateListingUseCase,
	resubmitUC *listing.ResubmitListingUseCase,
	deactivateUC *listing.DeactivateListingUseCase,
	reactivateUC *listing.ReactivateListingUseCase,
	listMyUC *listing.ListMyListingsUseCase,
	countsUC *stats.GetListingCountsUseCase,
	detailUC *moderation.GetListingDetailUseCase,
	addImageUC *listing.AddListingImageUseCase,
	maxUploadBytes int64,
) *ListingHandler {
	return &ListingHandler{
		createUC:     createUC,
		resubmitUC:   resubmitUC,
		deactivateUC: deactivateUC,
		reactivateUC: reactivateUC,
		listMyUC:     listMyUC,
		countsUC:     countsUC,
		detailUC:     detailUC,
		addImageUC:   addImageUC,
		maxUpload:    maxUploadBytes,
	}
}

// Create обрабатывает POST /api/listings.
func (h *ListingHandler) Create(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req dto.ListingRequest
	if !bindJSON(c, &req) {
		return
	}

	l, err := h.createUC.Execute(c.Request.Context(), actor, req.ToInput())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToListingResponse(l))
}

// Resubmit обрабатывает PUT /api/listings/:id/resubmit.
func (h *ListingHandler) Resubmit(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.ListingRequest
	if !bindJSON(c, &req) {
		return
	}

	l, err := h.resubmitUC.Execute(c.Request.Context(), id, actor, req.ToInput())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToListingResponse(l))
}

func (h *ListingHandler) Deactivate(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	l, err := h.deactivateUC.Execute(c.Request.Context(), id, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToListingResponse(l))
}

func (h *ListingHandler) Reactivate(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	l, err := h.reactivateUC.Execute(c.Request.Context(), id, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToListingResponse(l))
}

// ListMy обрабатывает GET /api/listings/my?tab=active|pending|inactive.
func (h *ListingHandler) ListMy(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	skip, limit, ok := parseWindow(c)
	if !ok {
		return
	}

	page, err := h.listMyUC.Execute(c.Request.Context(), actor, listing.ListMyListingsInput{
		Tab:   c.Query("tab"),
		Skip:  skip,
		Limit: limit,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, dto.ToListingListResponse(page.Items), page.Total, page.Limit, page.Skip)
}

func (h *ListingHandler) MyCounts(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	counts, err := h.countsUC.Execute(c.Request.Context(), actor, actor.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToListingCountsResponse(counts))
}

// Get обрабатывает GET /api/listings/:id: продавец видит своё объявление с журналом.
func (h *ListingHandler) Get(c *gin.Context) {
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

// UploadImage обрабатывает POST /api/listings/:id/images (multipart, поле image).
func (h *ListingHandler) UploadImage(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		response.Error(c, apperror.Validation("поле image обязательно"))
		return
	}
	if file.Size == 0 {
		response.Error(c, apperror.Validation("файл не может быть пустым"))
		return
	}
	if h.maxUpload > 0 && file.Size > h.maxUpload {
		response.Error(c, apperror.Validation(fmt.Sprintf("размер файла превышает лимит %d байт", h.maxUpload)))
		return
	}

	src, err := file.Open()
	if err != nil {
		response.Error(c, apperror.Wrap(err, apperror.ErrCodeBadRequest, "не удалось прочитать файл"))
		return
	}
	defer src.Close()

	// Тип определяется по магическим байтам, а не по расширению из имени.
	head := make([]byte, 512)
	n, err := io.ReadFull(src, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		response.Error(c, apperror.Wrap(err, apperror.ErrCodeBadRequest, "не удалось прочитать файл"))
		return
	}
	head = head[:n]

	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown || !allowedImageTypes[kind.MIME.Value] {
		response.Error(c, apperror.Validation("разрешены только изображения: "+strings.Join(allowedImageList(), ", ")))
		return
	}

	img, err := h.addImageUC.Execute(c.Request.Context(), id, actor, "image."+kind.Extension, io.MultiReader(bytes.NewReader(head), src))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToListingImageResponse(img))
}

func allowedImageList() []string {
	return []string{"image/jpeg", "image/png", "image/gif", "image/webp"}
}

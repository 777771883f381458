package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/sangkips/investify-docs/internal/application/service"
	"github.com/sangkips/investify-docs/internal/domain/enum"
	"github.com/sangkips/investify-docs/internal/domain/repository"
	"github.com/sangkips/investify-docs/internal/presentation/http/dto/request"
	"github.com/sangkips/investify-docs/internal/presentation/http/dto/response"
	"github.com/sangkips/investify-docs/pkg/apperror"
	"github.com/sangkips/investify-docs/pkg/pagination"
	"github.com/sangkips/investify-docs/pkg/validation"
)

// DocumentHandler handles receipt or invoice HTTP requests. One instance
// serves one document kind.
type DocumentHandler struct {
	kind       enum.DocumentKind
	generation *service.GenerationService
	lifecycle  *service.LifecycleService
	documents  *service.DocumentService
	logos      *service.LogoService
}

// NewDocumentHandler creates a new document handler for kind
func NewDocumentHandler(
	kind enum.DocumentKind,
	generation *service.GenerationService,
	lifecycle *service.LifecycleService,
	documents *service.DocumentService,
	logos *service.LogoService,
) *DocumentHandler {
	return &DocumentHandler{
		kind:       kind,
		generation: generation,
		lifecycle:  lifecycle,
		documents:  documents,
		logos:      logos,
	}
}

// Generate issues a single document. A multipart request carries the JSON
// body in the "payload" field and an optional "logo" file for this document.
func (h *DocumentHandler) Generate(c *gin.Context) {
	var req request.GenerateDocumentRequest
	if isMultipart(c) {
		if err := h.bindMultipart(c, &req); err != nil {
			response.Error(c, err)
			return
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, validation.BindingError(err))
		return
	}

	input, err := req.ToInput(h.kind, GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	doc, err := h.generation.Generate(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, h.kind.Title()+" generated successfully", doc)
}

func (h *DocumentHandler) bindMultipart(c *gin.Context, req *request.GenerateDocumentRequest) error {
	payload := c.PostForm("payload")
	if payload == "" {
		return apperror.NewFieldError("payload", "is required")
	}
	if err := json.Unmarshal([]byte(payload), req); err != nil {
		return apperror.NewBadRequestError("Invalid payload: " + err.Error())
	}
	if err := binding.Validator.ValidateStruct(req); err != nil {
		return validation.BindingError(err)
	}

	upload, file, err := formLogo(c, "logo")
	if err != nil || upload == nil {
		return err
	}
	defer file.Close()

	url, err := h.logos.Upload(c.Request.Context(), upload)
	if err != nil {
		return err
	}
	if req.CompanyInfo == nil {
		req.CompanyInfo = &request.CompanyInfoRequest{}
	}
	req.CompanyInfo.Logo = url
	return nil
}

// GenerateBulk issues one document per item and reports each outcome
func (h *DocumentHandler) GenerateBulk(c *gin.Context) {
	var req request.BulkGenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, validation.BindingError(err))
		return
	}

	input, err := req.ToInput(h.kind, GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.generation.GenerateBulk(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	status := http.StatusOK
	if result.Generated > 0 {
		status = http.StatusCreated
	}
	response.Success(c, status,
		fmt.Sprintf("%d of %d %ss generated", result.Generated, result.Requested, h.kind),
		result)
}

// List handles listing documents
func (h *DocumentHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "15"))

	params := &repository.DocumentFilterParams{
		Pagination: &pagination.PaginationParams{
			Page:    page,
			PerPage: perPage,
		},
		Kind:      h.kind,
		Search:    c.Query("search"),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}

	if statusStr := c.Query("status"); statusStr != "" {
		status, err := enum.ParseDocumentStatus(statusStr)
		if err != nil {
			response.Error(c, apperror.NewFieldError("status", "must be one of [active cancelled refunded]"))
			return
		}
		params.Status = &status
	}

	if scenario := enum.Scenario(c.Query("scenario")); scenario != "" {
		if !scenario.IsValid() {
			response.Error(c, apperror.NewFieldError("scenario", "must be one of [order subscription]"))
			return
		}
		params.Scenario = scenario
	}

	if sourceIDStr := c.Query("source_id"); sourceIDStr != "" {
		if sourceID, err := uuid.Parse(sourceIDStr); err == nil {
			params.SourceID = &sourceID
		}
	}

	if startDateStr := c.Query("start_date"); startDateStr != "" {
		if startDate, err := time.Parse(time.DateOnly, startDateStr); err == nil {
			params.StartDate = &startDate
		}
	}

	if endDateStr := c.Query("end_date"); endDateStr != "" {
		if endDate, err := time.Parse(time.DateOnly, endDateStr); err == nil {
			params.EndDate = &endDate
		}
	}

	result, err := h.documents.ListDocuments(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, h.kind.Title()+"s retrieved successfully", result)
}

// Get handles getting a document by ID
func (h *DocumentHandler) Get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	doc, err := h.documents.GetDocument(c.Request.Context(), h.kind, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, h.kind.Title()+" retrieved successfully", doc)
}

// GetByNumber handles getting a document by its document number
func (h *DocumentHandler) GetByNumber(c *gin.Context) {
	number := strings.ToUpper(strings.TrimSpace(c.Param("number")))

	doc, err := h.documents.GetDocumentByNumber(c.Request.Context(), h.kind, number)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, h.kind.Title()+" retrieved successfully", doc)
}

// AuditTrail returns the recorded changes of a document
func (h *DocumentHandler) AuditTrail(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	logs, err := h.documents.AuditTrail(c.Request.Context(), h.kind, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Audit trail retrieved successfully", logs)
}

// UpdateLineItems replaces the line items of an active document
func (h *DocumentHandler) UpdateLineItems(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req request.UpdateLineItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, validation.BindingError(err))
		return
	}

	doc, err := h.lifecycle.UpdateLineItems(c.Request.Context(), h.kind, id, req.ToInput(GetUserID(c)))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, h.kind.Title()+" updated successfully", doc)
}

// Cancel handles cancelling a document
func (h *DocumentHandler) Cancel(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req request.CancelDocumentRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	doc, err := h.lifecycle.Cancel(c.Request.Context(), h.kind, id, &service.CancelInput{
		ActorID: GetUserID(c),
		Reason:  req.Reason,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, h.kind.Title()+" cancelled successfully", doc)
}

// Refund handles refunding a document
func (h *DocumentHandler) Refund(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req request.RefundDocumentRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	doc, err := h.lifecycle.Refund(c.Request.Context(), h.kind, id, &service.RefundInput{
		ActorID: GetUserID(c),
		Amount:  req.Amount,
		Reason:  req.Reason,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, h.kind.Title()+" refunded successfully", doc)
}

// bindOptionalJSON binds a body when one was sent
func bindOptionalJSON(c *gin.Context, obj interface{}) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(obj); err != nil {
		return validation.BindingError(err)
	}
	return nil
}

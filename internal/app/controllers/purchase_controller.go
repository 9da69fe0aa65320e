package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yigit/ebdashboard/internal/app/models"
	"github.com/yigit/ebdashboard/internal/app/models/dto"
	"github.com/yigit/ebdashboard/internal/app/services"
	"github.com/yigit/ebdashboard/internal/middleware"
	"github.com/yigit/ebdashboard/internal/pkg/helpers"
)

// PurchaseController handles the purchase request workflow
type PurchaseController struct {
	purchaseService services.PurchaseService
}

// NewPurchaseController creates a new PurchaseController
func NewPurchaseController(purchaseService services.PurchaseService) *PurchaseController {
	return &PurchaseController{purchaseService: purchaseService}
}

// Create submits a purchase request
// @Summary Create a purchase request
// @Description Submits a pending purchase request for the calling student. The total must fit the remaining purchase limit.
// @Tags purchase-requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreatePurchaseRequestRequest true "Items and company"
// @Success 201 {object} dto.StructuredResponse{data=models.PurchaseRequest} "Purchase request created"
// @Failure 400 {object} dto.ErrorResponse "Invalid items"
// @Failure 403 {object} dto.ErrorResponse "Only students can create purchase requests"
// @Failure 422 {object} dto.ErrorResponse "Purchase limit exceeded"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /purchase-requests [post]
func (c *PurchaseController) Create(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	var req dto.CreatePurchaseRequestRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	request, err := c.purchaseService.Create(ctx.Request.Context(), actor, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(request, "Purchase request created successfully"))
}

// List returns purchase requests for reviewers
// @Summary List purchase requests
// @Description Lists purchase requests newest first with optional filters
// @Tags purchase-requests
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter" Enums(pending, approved, rejected, cancelled)
// @Param studentId query int false "Student filter"
// @Param companyId query int false "Company filter"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.StructuredResponse{data=dto.PurchaseRequestListResponse}
// @Failure 400 {object} dto.ErrorResponse "Unknown status"
// @Failure 403 {object} dto.ErrorResponse "Reviewer access required"
// @Router /purchase-requests [get]
func (c *PurchaseController) List(ctx *gin.Context) {
	page, size := helpers.ParsePaginationParams(ctx)
	studentID, _ := strconv.ParseInt(ctx.Query("studentId"), 10, 64)
	companyID, _ := strconv.ParseInt(ctx.Query("companyId"), 10, 64)

	resp, err := c.purchaseService.List(ctx.Request.Context(), models.PurchaseRequestFilter{
		Status:    models.PurchaseStatus(ctx.Query("status")),
		StudentID: studentID,
		CompanyID: companyID,
		Page:      page,
		PageSize:  size,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, ""))
}

// ListMine returns the calling student's requests
// @Summary List my purchase requests
// @Tags purchase-requests
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.StructuredResponse{data=dto.PurchaseRequestListResponse}
// @Router /purchase-requests/mine [get]
func (c *PurchaseController) ListMine(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	page, size := helpers.ParsePaginationParams(ctx)

	resp, err := c.purchaseService.ListMine(ctx.Request.Context(), actor, models.PurchaseStatus(ctx.Query("status")), page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, ""))
}

// Get returns one purchase request
// @Summary Get a purchase request
// @Tags purchase-requests
// @Produce json
// @Security BearerAuth
// @Param id path int true "Purchase request ID" Format(int64) minimum(1)
// @Success 200 {object} dto.StructuredResponse{data=models.PurchaseRequest}
// @Failure 403 {object} dto.ErrorResponse "Not your purchase request"
// @Failure 404 {object} dto.ErrorResponse "Purchase request not found"
// @Router /purchase-requests/{id} [get]
func (c *PurchaseController) Get(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	request, err := c.purchaseService.Get(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(request, ""))
}

// Approve approves a pending request
// @Summary Approve a purchase request
// @Description Approves a pending request, charges the student's purchase limit and records the ledger entry
// @Tags purchase-requests
// @Produce json
// @Security BearerAuth
// @Param id path int true "Purchase request ID" Format(int64) minimum(1)
// @Success 200 {object} dto.StructuredResponse{data=models.PurchaseRequest}
// @Failure 404 {object} dto.ErrorResponse "Purchase request not found"
// @Failure 409 {object} dto.ErrorResponse "Purchase request is not pending"
// @Failure 422 {object} dto.ErrorResponse "Purchase limit exceeded"
// @Router /purchase-requests/{id}/approve [put]
func (c *PurchaseController) Approve(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	request, err := c.purchaseService.Approve(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(request, "Purchase request approved successfully"))
}

// Reject rejects a pending request
// @Summary Reject a purchase request
// @Tags purchase-requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Purchase request ID" Format(int64) minimum(1)
// @Param request body dto.RejectPurchaseRequestRequest true "Rejection reason"
// @Success 200 {object} dto.StructuredResponse{data=models.PurchaseRequest}
// @Failure 400 {object} dto.ErrorResponse "Rejection reason is required"
// @Failure 409 {object} dto.ErrorResponse "Purchase request is not pending"
// @Router /purchase-requests/{id}/reject [put]
func (c *PurchaseController) Reject(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.RejectPurchaseRequestRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	request, err := c.purchaseService.Reject(ctx.Request.Context(), actor, id, req.Reason)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(request, "Purchase request rejected successfully"))
}

// Cancel withdraws the calling student's pending request
// @Summary Cancel a purchase request
// @Tags purchase-requests
// @Produce json
// @Security BearerAuth
// @Param id path int true "Purchase request ID" Format(int64) minimum(1)
// @Success 200 {object} dto.StructuredResponse{data=models.PurchaseRequest}
// @Failure 403 {object} dto.ErrorResponse "Not your purchase request"
// @Failure 409 {object} dto.ErrorResponse "Purchase request is not pending"
// @Router /purchase-requests/{id}/cancel [put]
func (c *PurchaseController) Cancel(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	request, err := c.purchaseService.Cancel(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(request, "Purchase request cancelled successfully"))
}

// Stats returns workflow statistics
// @Summary Purchase request statistics
// @Tags purchase-requests
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.StructuredResponse{data=dto.PurchaseStatsResponse}
// @Router /purchase-requests/stats/overview [get]
func (c *PurchaseController) Stats(ctx *gin.Context) {
	stats, err := c.purchaseService.Stats(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(stats, ""))
}

package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/ebdashboard/internal/app/models"
	"github.com/yigit/ebdashboard/internal/app/models/dto"
	"github.com/yigit/ebdashboard/internal/app/services"
	"github.com/yigit/ebdashboard/internal/middleware"
	"github.com/yigit/ebdashboard/internal/pkg/helpers"
)

// CreditController handles carbon credit issuance
type CreditController struct {
	creditService services.CreditService
}

// NewCreditController creates a new CreditController
func NewCreditController(creditService services.CreditService) *CreditController {
	return &CreditController{creditService: creditService}
}

// Generate records a pending carbon credit for a farm
// @Summary Generate carbon credits
// @Description Credits are the reduction of actual emissions below the baseline, never negative
// @Tags credits
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.GenerateCreditsRequest true "Farm and emissions"
// @Success 201 {object} dto.StructuredResponse{data=models.CarbonCredit} "Credits generated"
// @Failure 400 {object} dto.ErrorResponse "Invalid emission figures"
// @Failure 404 {object} dto.ErrorResponse "Farm not found"
// @Failure 409 {object} dto.ErrorResponse "Farm is not active"
// @Router /credits/generate [post]
func (c *CreditController) Generate(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	var req dto.GenerateCreditsRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	credit, err := c.creditService.Generate(ctx.Request.Context(), actor, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(credit, "Carbon credits generated successfully"))
}

// List returns carbon credits
// @Summary List carbon credits
// @Tags credits
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter" Enums(pending, verified, sold)
// @Param farmId query string false "Farm code filter"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.StructuredResponse{data=dto.CreditListResponse}
// @Router /credits [get]
func (c *CreditController) List(ctx *gin.Context) {
	page, size := helpers.ParsePaginationParams(ctx)

	resp, err := c.creditService.List(ctx.Request.Context(), models.CreditFilter{
		Status:   models.CreditStatus(ctx.Query("status")),
		FarmCode: ctx.Query("farmId"),
		Page:     page,
		PageSize: size,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, ""))
}

// Get returns one carbon credit
// @Summary Get a carbon credit
// @Tags credits
// @Produce json
// @Security BearerAuth
// @Param id path int true "Credit ID" Format(int64) minimum(1)
// @Success 200 {object} dto.StructuredResponse{data=models.CarbonCredit}
// @Failure 404 {object} dto.ErrorResponse "Carbon credit not found"
// @Router /credits/{id} [get]
func (c *CreditController) Get(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	credit, err := c.creditService.Get(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(credit, ""))
}

// UpdateStatus verifies or sells a carbon credit
// @Summary Update carbon credit status
// @Tags credits
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Credit ID" Format(int64) minimum(1)
// @Param request body dto.UpdateCreditStatusRequest true "Next status"
// @Success 200 {object} dto.StructuredResponse{data=models.CarbonCredit}
// @Failure 400 {object} dto.ErrorResponse "Invalid status or missing buyer"
// @Failure 404 {object} dto.ErrorResponse "Carbon credit not found"
// @Failure 409 {object} dto.ErrorResponse "Credit is not in the expected status"
// @Router /credits/{id}/status [put]
func (c *CreditController) UpdateStatus(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.UpdateCreditStatusRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	credit, err := c.creditService.UpdateStatus(ctx.Request.Context(), actor, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(credit, "Carbon credit status updated successfully"))
}

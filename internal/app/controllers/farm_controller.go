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

// FarmController handles the partner farm registry
type FarmController struct {
	farmService services.FarmService
}

// NewFarmController creates a new FarmController
func NewFarmController(farmService services.FarmService) *FarmController {
	return &FarmController{farmService: farmService}
}

// Register adds a partner farm
// @Summary Register a farm
// @Description Registers a farm pending verification. The farm is linked to the calling account.
// @Tags farms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.RegisterFarmRequest true "Farm details"
// @Success 201 {object} dto.StructuredResponse{data=models.Farm} "Farm registered"
// @Failure 400 {object} dto.ErrorResponse "Invalid coordinates or farm size"
// @Failure 409 {object} dto.ErrorResponse "Email already registered"
// @Router /farms/register [post]
func (c *FarmController) Register(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	var req dto.RegisterFarmRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	farm, err := c.farmService.Register(ctx.Request.Context(), actor, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(farm, "Farm registered successfully"))
}

// List returns registered farms
// @Summary List farms
// @Tags farms
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter" Enums(pending_verification, active, inactive)
// @Param farmType query string false "Farm type filter"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.StructuredResponse{data=dto.FarmListResponse}
// @Failure 400 {object} dto.ErrorResponse "Unknown filter"
// @Router /farms [get]
func (c *FarmController) List(ctx *gin.Context) {
	page, size := helpers.ParsePaginationParams(ctx)

	resp, err := c.farmService.List(ctx.Request.Context(), models.FarmFilter{
		Status:   models.FarmStatus(ctx.Query("status")),
		FarmType: models.FarmType(ctx.Query("farmType")),
		Page:     page,
		PageSize: size,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, ""))
}

// Get returns one farm
// @Summary Get a farm
// @Tags farms
// @Produce json
// @Security BearerAuth
// @Param farmId path string true "Farm code"
// @Success 200 {object} dto.StructuredResponse{data=models.Farm}
// @Failure 404 {object} dto.ErrorResponse "Farm not found"
// @Router /farms/{farmId} [get]
func (c *FarmController) Get(ctx *gin.Context) {
	farm, err := c.farmService.Get(ctx.Request.Context(), ctx.Param("farmId"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(farm, ""))
}

// UpdateStatus changes a farm's verification status
// @Summary Update farm status
// @Tags farms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param farmId path string true "Farm code"
// @Param request body dto.UpdateFarmStatusRequest true "New status"
// @Success 200 {object} dto.StructuredResponse{data=models.Farm}
// @Failure 400 {object} dto.ErrorResponse "Invalid status"
// @Failure 403 {object} dto.ErrorResponse "Admin access required"
// @Failure 404 {object} dto.ErrorResponse "Farm not found"
// @Router /farms/{farmId}/status [put]
func (c *FarmController) UpdateStatus(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	var req dto.UpdateFarmStatusRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	farm, err := c.farmService.UpdateStatus(ctx.Request.Context(), actor, ctx.Param("farmId"), req.Status)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(farm, "Farm status updated successfully"))
}

// Delete removes a farm
// @Summary Delete a farm
// @Tags farms
// @Produce json
// @Security BearerAuth
// @Param farmId path string true "Farm code"
// @Success 200 {object} dto.StructuredResponse
// @Failure 404 {object} dto.ErrorResponse "Farm not found"
// @Failure 409 {object} dto.ErrorResponse "Farm has carbon credits"
// @Router /farms/{farmId} [delete]
func (c *FarmController) Delete(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	if err := c.farmService.Delete(ctx.Request.Context(), actor, ctx.Param("farmId")); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Farm deleted successfully"))
}

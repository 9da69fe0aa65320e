package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/ebdashboard/internal/app/models/dto"
	"github.com/yigit/ebdashboard/internal/app/services"
	"github.com/yigit/ebdashboard/internal/domain"
	"github.com/yigit/ebdashboard/internal/middleware"
)

// DashboardController serves the dashboard views
type DashboardController struct {
	dashboardService services.DashboardService
}

// NewDashboardController creates a new DashboardController
func NewDashboardController(dashboardService services.DashboardService) *DashboardController {
	return &DashboardController{dashboardService: dashboardService}
}

// Overview returns the student dashboard
// @Summary Dashboard overview
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Param period query string false "Period" Enums(week, month, year) default(month)
// @Success 200 {object} dto.StructuredResponse{data=dto.DashboardOverviewResponse}
// @Router /dashboard/overview [get]
func (c *DashboardController) Overview(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	resp, err := c.dashboardService.Overview(ctx.Request.Context(), actor, domain.ParsePeriod(ctx.Query("period")))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, ""))
}

// MonthlySpending returns the spending trend
// @Summary Monthly spending trend
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.StructuredResponse{data=dto.MonthlySpendingResponse}
// @Router /dashboard/trends/monthly-spending [get]
func (c *DashboardController) MonthlySpending(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	resp, err := c.dashboardService.MonthlySpending(ctx.Request.Context(), actor)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, ""))
}

// AdminStats returns system-wide counts
// @Summary Administrator statistics
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.StructuredResponse{data=dto.AdminStatsResponse}
// @Failure 403 {object} dto.ErrorResponse "Administrator access required"
// @Router /admin/stats [get]
func (c *DashboardController) AdminStats(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	resp, err := c.dashboardService.AdminStats(ctx.Request.Context(), actor)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, ""))
}

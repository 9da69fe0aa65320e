package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/ebdashboard/internal/app/models/dto"
	"github.com/yigit/ebdashboard/internal/app/services"
	"github.com/yigit/ebdashboard/internal/domain"
	"github.com/yigit/ebdashboard/internal/middleware"
)

const defaultTransactionListLimit = 50

// TransactionController handles the student ledger
type TransactionController struct {
	transactionService services.TransactionService
}

// NewTransactionController creates a new TransactionController
func NewTransactionController(transactionService services.TransactionService) *TransactionController {
	return &TransactionController{transactionService: transactionService}
}

// List returns the calling student's ledger
// @Summary List my transactions
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum entries" default(50)
// @Success 200 {object} dto.StructuredResponse{data=dto.TransactionListResponse}
// @Router /transactions [get]
func (c *TransactionController) List(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	resp, err := c.transactionService.List(ctx.Request.Context(), actor, queryInt(ctx, "limit", defaultTransactionListLimit))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, ""))
}

// Create records a manual income or expense
// @Summary Create a transaction
// @Tags transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateTransactionRequest true "Transaction"
// @Success 201 {object} dto.StructuredResponse{data=models.Transaction}
// @Failure 400 {object} dto.ErrorResponse "Invalid transaction"
// @Router /transactions [post]
func (c *TransactionController) Create(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	var req dto.CreateTransactionRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	tx, err := c.transactionService.Create(ctx.Request.Context(), actor, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(tx, "Transaction recorded successfully"))
}

// Summary totals the ledger over a period
// @Summary Transaction summary
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Param period query string false "Period" Enums(week, month, year) default(month)
// @Success 200 {object} dto.StructuredResponse{data=dto.TransactionSummaryResponse}
// @Router /transactions/summary [get]
func (c *TransactionController) Summary(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	resp, err := c.transactionService.Summary(ctx.Request.Context(), actor, domain.ParsePeriod(ctx.Query("period")))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, ""))
}

package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/ebdashboard/internal/app/controllers"
	"github.com/yigit/ebdashboard/internal/app/models"
	"github.com/yigit/ebdashboard/internal/middleware"
	"github.com/yigit/ebdashboard/internal/pkg/metrics"
)

// Controllers groups the HTTP handlers registered by SetupRouter
type Controllers struct {
	Auth        *controllers.AuthController
	Purchase    *controllers.PurchaseController
	Student     *controllers.StudentController
	Course      *controllers.CourseController
	Transaction *controllers.TransactionController
	Dashboard   *controllers.DashboardController
	Farm        *controllers.FarmController
	Credit      *controllers.CreditController
	Admin       *controllers.AdminController
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, ctrl Controllers, authMiddleware *middleware.AuthMiddleware) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// API version group
	v1 := router.Group("/api/v1")

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", ctrl.Auth.Register)
		auth.POST("/login", ctrl.Auth.Login)
	}

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())

	reviewers := authMiddleware.RoleRequired(models.RoleAdmin, models.RoleCompany)
	students := authMiddleware.RoleRequired(models.RoleStudent)
	admins := authMiddleware.RoleRequired(models.RoleAdmin)

	purchases := authenticated.Group("/purchase-requests")
	{
		purchases.POST("", students, ctrl.Purchase.Create)
		purchases.GET("", reviewers, ctrl.Purchase.List)
		purchases.GET("/mine", students, ctrl.Purchase.ListMine)
		purchases.GET("/stats/overview", admins, ctrl.Purchase.Stats)
		purchases.GET("/:id", ctrl.Purchase.Get)
		purchases.PUT("/:id/approve", reviewers, ctrl.Purchase.Approve)
		purchases.PUT("/:id/reject", reviewers, ctrl.Purchase.Reject)
		purchases.PUT("/:id/cancel", students, ctrl.Purchase.Cancel)
	}

	authenticated.GET("/recommendations/students/:id", ctrl.Course.Recommendations)

	studentRoutes := authenticated.Group("/students")
	{
		studentRoutes.GET("/me", students, ctrl.Student.GetMe)
		studentRoutes.PUT("/me", students, ctrl.Student.UpdateMe)
		studentRoutes.POST("/me/completed-courses", students, ctrl.Student.CompleteCourse)
		studentRoutes.GET("/:id", ctrl.Student.Get)
		studentRoutes.PUT("/:id/limit", admins, ctrl.Student.UpdateLimit)
		studentRoutes.POST("/:id/reset-usage", admins, ctrl.Student.ResetUsage)
	}

	courses := authenticated.Group("/courses")
	{
		courses.GET("", ctrl.Course.List)
		courses.POST("", admins, ctrl.Course.Create)
	}

	transactions := authenticated.Group("/transactions", students)
	{
		transactions.GET("", ctrl.Transaction.List)
		transactions.POST("", ctrl.Transaction.Create)
		transactions.GET("/summary", ctrl.Transaction.Summary)
	}

	dashboard := authenticated.Group("/dashboard", students)
	{
		dashboard.GET("/overview", ctrl.Dashboard.Overview)
		dashboard.GET("/trends/monthly-spending", ctrl.Dashboard.MonthlySpending)
	}

	farms := authenticated.Group("/farms")
	{
		farms.POST("/register", ctrl.Farm.Register)
		farms.GET("", ctrl.Farm.List)
		farms.GET("/:farmId", ctrl.Farm.Get)
		farms.PUT("/:farmId/status", admins, ctrl.Farm.UpdateStatus)
		farms.DELETE("/:farmId", admins, ctrl.Farm.Delete)
	}

	credits := authenticated.Group("/credits")
	{
		credits.POST("/generate", admins, ctrl.Credit.Generate)
		credits.GET("", ctrl.Credit.List)
		credits.GET("/all", ctrl.Credit.List)
		credits.GET("/:id", ctrl.Credit.Get)
		credits.PUT("/:id/status", admins, ctrl.Credit.UpdateStatus)
	}

	admin := authenticated.Group("/admin", admins)
	{
		admin.GET("/stats", ctrl.Dashboard.AdminStats)
		admin.GET("/activity", ctrl.Admin.Activity)
		admin.GET("/students", ctrl.Admin.ListStudents)
		admin.GET("/users", ctrl.Admin.ListUsers)
		admin.GET("/users/:id", ctrl.Admin.GetUser)
		admin.PUT("/users/:id", ctrl.Admin.UpdateUser)
		admin.DELETE("/users/:id", ctrl.Admin.DeleteUser)
	}
}

package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/ebdashboard/internal/app/models/dto"
	"github.com/yigit/ebdashboard/internal/app/services"
	"github.com/yigit/ebdashboard/internal/middleware"
)

// StudentController handles student profiles and purchase limits
type StudentController struct {
	studentService services.StudentService
}

// NewStudentController creates a new StudentController
func NewStudentController(studentService services.StudentService) *StudentController {
	return &StudentController{studentService: studentService}
}

// GetMe returns the calling student's profile
// @Summary Get my student profile
// @Tags students
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.StructuredResponse{data=dto.StudentResponse}
// @Failure 403 {object} dto.ErrorResponse "Only students have a profile"
// @Router /students/me [get]
func (c *StudentController) GetMe(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	resp, err := c.studentService.GetMe(ctx.Request.Context(), actor)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, ""))
}

// Get returns a student's profile
// @Summary Get a student profile
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID" Format(int64) minimum(1)
// @Success 200 {object} dto.StructuredResponse{data=dto.StudentResponse}
// @Failure 403 {object} dto.ErrorResponse "Students can only view their own profile"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /students/{id} [get]
func (c *StudentController) Get(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	resp, err := c.studentService.Get(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, ""))
}

// UpdateMe edits the calling student's profile
// @Summary Update my student profile
// @Tags students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateStudentProfileRequest true "Profile fields"
// @Success 200 {object} dto.StructuredResponse{data=dto.StudentResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid profile"
// @Router /students/me [put]
func (c *StudentController) UpdateMe(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	var req dto.UpdateStudentProfileRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	resp, err := c.studentService.UpdateProfile(ctx.Request.Context(), actor, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, "Profile updated successfully"))
}

// UpdateLimit sets a student's purchase limit
// @Summary Update a student's purchase limit
// @Tags students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID" Format(int64) minimum(1)
// @Param request body dto.UpdatePurchaseLimitRequest true "New limit"
// @Success 200 {object} dto.StructuredResponse{data=dto.StudentResponse}
// @Failure 400 {object} dto.ErrorResponse "Limit below the used amount"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /students/{id}/limit [put]
func (c *StudentController) UpdateLimit(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.UpdatePurchaseLimitRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	resp, err := c.studentService.UpdateLimit(ctx.Request.Context(), actor, id, req.PurchaseLimit)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, "Purchase limit updated successfully"))
}

// ResetUsage zeroes a student's used purchase amount
// @Summary Reset a student's purchase usage
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID" Format(int64) minimum(1)
// @Success 200 {object} dto.StructuredResponse{data=dto.StudentResponse}
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /students/{id}/reset-usage [post]
func (c *StudentController) ResetUsage(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	resp, err := c.studentService.ResetUsage(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, "Purchase usage reset successfully"))
}

// CompleteCourse marks a course as completed by the calling student
// @Summary Mark a course as completed
// @Tags students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CompleteCourseRequest true "Course"
// @Success 200 {object} dto.StructuredResponse{data=dto.StudentResponse}
// @Failure 404 {object} dto.ErrorResponse "Course not found"
// @Router /students/me/completed-courses [post]
func (c *StudentController) CompleteCourse(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	var req dto.CompleteCourseRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	resp, err := c.studentService.CompleteCourse(ctx.Request.Context(), actor, req.CourseID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, "Course marked as completed"))
}

package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/ebdashboard/internal/app/models/dto"
	"github.com/yigit/ebdashboard/internal/app/services"
	"github.com/yigit/ebdashboard/internal/middleware"
)

// CourseController handles the course catalogue and recommendations
type CourseController struct {
	courseService services.CourseService
}

// NewCourseController creates a new CourseController
func NewCourseController(courseService services.CourseService) *CourseController {
	return &CourseController{courseService: courseService}
}

// List returns the course catalogue
// @Summary List courses
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.StructuredResponse{data=[]models.Course}
// @Router /courses [get]
func (c *CourseController) List(ctx *gin.Context) {
	courses, err := c.courseService.List(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(courses, ""))
}

// Create adds a course
// @Summary Create a course
// @Tags courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateCourseRequest true "Course"
// @Success 201 {object} dto.StructuredResponse{data=models.Course}
// @Failure 409 {object} dto.ErrorResponse "Course code already exists"
// @Router /courses [post]
func (c *CourseController) Create(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	var req dto.CreateCourseRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	course, err := c.courseService.Create(ctx.Request.Context(), actor, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(course, "Course created successfully"))
}

// Recommendations ranks courses for a student
// @Summary Course recommendations for a student
// @Tags recommendations
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID" Format(int64) minimum(1)
// @Param limit query int false "Maximum recommendations" default(5)
// @Success 200 {object} dto.StructuredResponse{data=dto.RecommendationResponse}
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /recommendations/students/{id} [get]
func (c *CourseController) Recommendations(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	resp, err := c.courseService.Recommend(ctx.Request.Context(), actor, id, queryInt(ctx, "limit", 0))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, ""))
}

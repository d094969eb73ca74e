package handler

import (
	"net/http"

	"anoa.com/studentroster/internal/modules/student/dto"
	student "anoa.com/studentroster/internal/modules/student/service"
	"anoa.com/studentroster/pkg/apperror"
	"anoa.com/studentroster/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type StudentHandler struct {
	service student.Service
}

func NewStudentHandler(service student.Service) *StudentHandler {
	return &StudentHandler{service: service}
}

func (h *StudentHandler) ListStudents(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	students, err := h.service.ListStudents(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, students)
}

func (h *StudentHandler) SearchStudents(c *gin.Context) {
	var req dto.SearchStudentRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ResponseError(c, err)
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	students, err := h.service.SearchStudents(c.Request.Context(), userID, req.Query)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, students)
}

func (h *StudentHandler) GetStudent(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	id, ok := parseStudentID(c)
	if !ok {
		return
	}

	resp, err := h.service.GetStudent(c.Request.Context(), userID, id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *StudentHandler) CreateStudent(c *gin.Context) {
	var req dto.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, err)
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	resp, err := h.service.CreateStudent(c.Request.Context(), userID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *StudentHandler) UpdateStudent(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	id, ok := parseStudentID(c)
	if !ok {
		return
	}

	var req dto.UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, err)
		return
	}

	resp, err := h.service.UpdateStudent(c.Request.Context(), userID, id, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *StudentHandler) DeleteStudent(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	id, ok := parseStudentID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteStudent(c.Request.Context(), userID, id); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.DeleteStudentResponse{ID: id})
}

func parseStudentID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.New(http.StatusBadRequest, "invalid student id", apperror.ErrInvalidInput))
		return uuid.Nil, false
	}
	return id, true
}

package meeting

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/taskdash/taskdash-api/internal/middleware"
	"github.com/taskdash/taskdash-api/internal/model"
	"github.com/taskdash/taskdash-api/internal/repository/postgres"
	meetingService "github.com/taskdash/taskdash-api/internal/service/meeting"
)

type Handler struct {
	service *meetingService.Service
}

func NewHandler(service *meetingService.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	meetings := r.Group("/meetings")
	{
		meetings.POST("", h.CreateMeeting)
		meetings.GET("", h.ListMeetings)
		meetings.GET("/upcoming", h.ListUpcoming)
		meetings.GET("/:id", h.GetMeeting)
		meetings.GET("/:id/participants", h.ListParticipants)
		meetings.PUT("/:id", h.UpdateMeeting)
		meetings.DELETE("/:id", h.DeleteMeeting)
	}
}

func (h *Handler) CreateMeeting(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "not authenticated"})
		return
	}

	var req model.CreateMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	meeting, err := h.service.CreateMeeting(c.Request.Context(), userID, &req)
	if err != nil {
		if errors.Is(err, meetingService.ErrLeadTooLong) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"status": "error", "message": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "data": meeting})
}

func (h *Handler) ListMeetings(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "not authenticated"})
		return
	}

	var p model.Pagination
	if err := c.ShouldBindQuery(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	var status *model.MeetingStatus
	if s := c.Query("status"); s != "" {
		ms := model.MeetingStatus(s)
		status = &ms
	}

	meetings, total, err := h.service.ListMeetings(c.Request.Context(), userID, status, &p)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{
		"meetings": meetings,
		"total":    total,
		"page":     p.Page,
		"size":     p.PageSize,
	}})
}

func (h *Handler) ListUpcoming(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "not authenticated"})
		return
	}

	hours := 24
	if v := c.Query("hours"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 24*7 {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid hours"})
			return
		}
		hours = parsed
	}

	meetings, err := h.service.ListUpcoming(c.Request.Context(), userID, hours)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": meetings})
}

func (h *Handler) GetMeeting(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "not authenticated"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid meeting ID"})
		return
	}

	meeting, err := h.service.GetMeeting(c.Request.Context(), id, userID)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "meeting not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": meeting})
}

func (h *Handler) ListParticipants(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "not authenticated"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid meeting ID"})
		return
	}

	participants, err := h.service.ListParticipants(c.Request.Context(), id, userID)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "meeting not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": participants})
}

func (h *Handler) UpdateMeeting(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "not authenticated"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid meeting ID"})
		return
	}

	var req model.UpdateMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	meeting, err := h.service.UpdateMeeting(c.Request.Context(), id, userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, postgres.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "meeting not found"})
		case errors.Is(err, meetingService.ErrNotOrganizer):
			c.JSON(http.StatusForbidden, gin.H{"status": "error", "message": err.Error()})
		case errors.Is(err, meetingService.ErrLeadTooLong):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"status": "error", "message": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": meeting})
}

func (h *Handler) DeleteMeeting(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "not authenticated"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid meeting ID"})
		return
	}

	if err := h.service.DeleteMeeting(c.Request.Context(), id, userID); err != nil {
		switch {
		case errors.Is(err, postgres.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "meeting not found"})
		case errors.Is(err, meetingService.ErrNotOrganizer):
			c.JSON(http.StatusForbidden, gin.H{"status": "error", "message": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "meeting deleted"})
}

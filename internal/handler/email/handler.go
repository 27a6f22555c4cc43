package email

import (
	"net/http"

	"github.com/gin-gonic/gin"

	emailService "github.com/taskdash/taskdash-api/internal/email"
	"github.com/taskdash/taskdash-api/internal/middleware"
)

type Handler struct {
	service emailService.Service
}

func NewHandler(service emailService.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	email := r.Group("/email")
	{
		email.POST("/send", h.Send)
	}
}

type sendRequest struct {
	To      string `json:"to" binding:"required,email"`
	Subject string `json:"subject" binding:"required,max=200"`
	Body    string `json:"body" binding:"required"`
}

// Send delivers a one-off message to an arbitrary recipient on behalf of
// the authenticated user.
func (h *Handler) Send(c *gin.Context) {
	if _, ok := middleware.UserID(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "not authenticated"})
		return
	}

	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	if err := h.service.SendCustom(c.Request.Context(), req.To, req.Subject, req.Body); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"status": "error", "message": "failed to send email"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "email sent"})
}

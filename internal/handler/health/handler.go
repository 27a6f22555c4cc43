package health

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/taskdash/taskdash-api/internal/reminder"
	"github.com/taskdash/taskdash-api/internal/repository"
)

// EngineStatus reports the reminder jobs' most recent lifecycle states.
type EngineStatus interface {
	States() map[string]reminder.JobState
}

type Handler struct {
	pinger repository.Pinger
	engine EngineStatus
}

func NewHandler(pinger repository.Pinger, engine EngineStatus) *Handler {
	return &Handler{pinger: pinger, engine: engine}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/health", h.HealthCheck)
}

func (h *Handler) HealthCheck(c *gin.Context) {
	if err := h.pinger.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "error",
			"data": gin.H{
				"status":   "unhealthy",
				"database": err.Error(),
			},
		})
		return
	}

	data := gin.H{"status": "healthy"}
	if h.engine != nil {
		data["jobs"] = h.engine.States()
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": data})
}

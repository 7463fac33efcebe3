package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// HealthCheck returns the health status of the API. The database is optional;
// an unreachable one degrades the status without failing the check.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	status := "healthy"
	database := "disabled"

	if h.db != nil {
		database = "connected"
		sqlDB, err := h.db.DB()
		if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			database = "unreachable"
			status = "degraded"
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   status,
		"database": database,
	})
}

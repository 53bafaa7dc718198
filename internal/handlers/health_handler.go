package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const serviceName = "catalog-service"

// HealthCheck returns the liveness status of the service
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
	})
}

type HealthHandler struct {
	db    *gorm.DB
	redis *redis.Client
}

// NewHealthHandler builds the readiness probe; redis may be nil when caching is off.
func NewHealthHandler(db *gorm.DB, redisClient *redis.Client) *HealthHandler {
	return &HealthHandler{db: db, redis: redisClient}
}

// Ready reports the state of the database and redis connections
// GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	health := gin.H{
		"status":  "healthy",
		"service": serviceName,
	}
	checks := gin.H{}
	status := http.StatusOK

	if err := h.pingDB(ctx); err != nil {
		checks["database"] = gin.H{"status": "unhealthy", "error": err.Error()}
		health["status"] = "unhealthy"
		status = http.StatusServiceUnavailable
	} else {
		checks["database"] = gin.H{"status": "healthy"}
	}

	if h.redis == nil {
		checks["redis"] = gin.H{"status": "disabled"}
	} else if err := h.redis.Ping(ctx).Err(); err != nil {
		// The catalog still serves from the database without the cache
		checks["redis"] = gin.H{"status": "unhealthy", "error": err.Error()}
		if status == http.StatusOK {
			health["status"] = "degraded"
		}
	} else {
		checks["redis"] = gin.H{"status": "healthy"}
	}

	health["checks"] = checks
	c.JSON(status, health)
}

func (h *HealthHandler) pingDB(ctx context.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

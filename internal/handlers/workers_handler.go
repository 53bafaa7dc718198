package handlers

import (
	"context"
	"net/http"

	"catalog-service/internal/workers"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// BackgroundWorker is a periodic job that can be inspected and triggered
type BackgroundWorker interface {
	ForceRun(ctx context.Context) error
	Status() workers.WorkerStatus
}

type WorkersHandler struct {
	workers map[string]BackgroundWorker
	logger  *logrus.Entry
}

func NewWorkersHandler(registered map[string]BackgroundWorker, logger *logrus.Logger) *WorkersHandler {
	return &WorkersHandler{
		workers: registered,
		logger:  logger.WithField("component", "workers_handler"),
	}
}

// GET /api/v1/admin/workers
func (h *WorkersHandler) GetStatus(c *gin.Context) {
	status := make(map[string]workers.WorkerStatus, len(h.workers))
	for name, w := range h.workers {
		status[name] = w.Status()
	}
	dataResponse(c, http.StatusOK, status)
}

// RunWorker triggers one run synchronously and returns the new status
// POST /api/v1/admin/workers/:name/run
func (h *WorkersHandler) RunWorker(c *gin.Context) {
	name := c.Param("name")
	worker, ok := h.workers[name]
	if !ok {
		errorResponse(c, http.StatusNotFound, "NOT_FOUND", "Unknown worker "+name)
		return
	}
	if err := worker.ForceRun(c.Request.Context()); err != nil {
		h.logger.WithError(err).WithField("worker", name).Error("Forced worker run failed")
		errorResponse(c, http.StatusInternalServerError, "WORKER_FAILED", err.Error())
		return
	}
	dataResponse(c, http.StatusOK, worker.Status())
}

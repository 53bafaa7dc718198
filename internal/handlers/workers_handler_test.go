package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"catalog-service/internal/testutil"
	"catalog-service/internal/workers"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubWorker struct {
	runs int
	err  error
}

func (w *stubWorker) ForceRun(ctx context.Context) error {
	w.runs++
	return w.err
}

func (w *stubWorker) Status() workers.WorkerStatus {
	return workers.WorkerStatus{Running: true, Interval: "10m0s", Stats: map[string]int{"runs": w.runs}}
}

func setupWorkersRouter(registered map[string]BackgroundWorker) *gin.Engine {
	h := NewWorkersHandler(registered, testutil.Logger())
	r := gin.New()
	r.GET("/workers", h.GetStatus)
	r.POST("/workers/:name/run", h.RunWorker)
	return r
}

func TestWorkersHandler(t *testing.T) {
	sweeper := &stubWorker{}
	broken := &stubWorker{err: errors.New("erp timeout")}
	router := setupWorkersRouter(map[string]BackgroundWorker{
		"discount_sweeper": sweeper,
		"etl_sync":         broken,
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/workers", nil))
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Contains(t, data, "discount_sweeper")
	assert.Contains(t, data, "etl_sync")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/workers/discount_sweeper/run", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, sweeper.runs)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/workers/etl_sync/run", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "WORKER_FAILED", errorCode(t, w))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/workers/unknown/run", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthEndpoints(t *testing.T) {
	db := testutil.NewDB(t)

	r := gin.New()
	r.GET("/health", HealthCheck)
	r.GET("/ready", NewHealthHandler(db, nil).Ready)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "healthy", body["status"])
	checks := body["checks"].(map[string]interface{})
	assert.Equal(t, "disabled", checks["redis"].(map[string]interface{})["status"])
}

func TestReady_RedisDownIsDegraded(t *testing.T) {
	db := testutil.NewDB(t)
	// nothing listens on port 1
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	t.Cleanup(func() { client.Close() })

	r := gin.New()
	r.GET("/ready", NewHealthHandler(db, client).Ready)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "degraded", decodeBody(t, w)["status"])
}

func TestReady_DatabaseDown(t *testing.T) {
	db := testutil.NewDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	r := gin.New()
	r.GET("/ready", NewHealthHandler(db, nil).Ready)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

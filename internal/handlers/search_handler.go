package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"catalog-service/internal/middleware"
	"catalog-service/internal/repository"
	"catalog-service/internal/search"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 50
)

type SearchHandler struct {
	search *search.Service
	stocks *repository.StockRepository
	logger *logrus.Entry
}

func NewSearchHandler(svc *search.Service, stocks *repository.StockRepository, logger *logrus.Logger) *SearchHandler {
	return &SearchHandler{
		search: svc,
		stocks: stocks,
		logger: logger.WithField("component", "search_handler"),
	}
}

// resolveCity accepts ?city as a UUID or a city name. Unknown names search
// across all cities.
func (h *SearchHandler) resolveCity(c *gin.Context) *uuid.UUID {
	raw := strings.TrimSpace(c.Query("city"))
	if raw == "" {
		return nil
	}
	if id, err := uuid.Parse(raw); err == nil {
		return &id
	}
	city, err := h.stocks.GetCityByName(c.Request.Context(), raw)
	if err != nil {
		if !errors.Is(err, repository.ErrCityNotFound) {
			h.logger.WithError(err).WithField("city", raw).Warn("Failed to resolve city")
		}
		return nil
	}
	return &city.ID
}

func searchLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 {
		return defaultSearchLimit
	}
	if limit > maxSearchLimit {
		return maxSearchLimit
	}
	return limit
}

// Global is the storefront smart search over products, categories, brands and tags
// GET /api/v1/search?q=&city=
func (h *SearchHandler) Global(c *gin.Context) {
	result, err := h.search.Global(c.Request.Context(), c.Query("q"), middleware.GetLanguage(c), h.resolveCity(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	dataResponse(c, http.StatusOK, result)
}

// GET /api/v1/search/products/:query
func (h *SearchHandler) Products(c *gin.Context) {
	products, err := h.search.Products(c.Request.Context(), c.Param("query"), middleware.GetLanguage(c), h.resolveCity(c), searchLimit(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	dataResponse(c, http.StatusOK, products)
}

// GET /api/v1/search/categories/:query
func (h *SearchHandler) Categories(c *gin.Context) {
	categories, err := h.search.Categories(c.Request.Context(), c.Param("query"), middleware.GetLanguage(c), searchLimit(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	dataResponse(c, http.StatusOK, categories)
}

// Reindex rebuilds the Elasticsearch indices from the database
// POST /api/v1/admin/search/reindex
func (h *SearchHandler) Reindex(c *gin.Context) {
	stats, err := h.search.Reindex(c.Request.Context())
	if errors.Is(err, search.ErrSearchDisabled) {
		errorResponse(c, http.StatusServiceUnavailable, "SEARCH_DISABLED", err.Error())
		return
	}
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.logger.WithFields(logrus.Fields{
		"products":   stats.Products,
		"categories": stats.Categories,
	}).Info("Search indices rebuilt")
	dataResponse(c, http.StatusOK, stats)
}

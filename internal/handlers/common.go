package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"catalog-service/internal/clients"
	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"catalog-service/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Paging holds the list window limits shared by all list endpoints
type Paging struct {
	DefaultLimit int
	MaxLimit     int
}

// DefaultPaging is used when a handler is built with a zero Paging
var DefaultPaging = Paging{DefaultLimit: 10, MaxLimit: 100}

func (p Paging) orDefault() Paging {
	if p.DefaultLimit <= 0 || p.MaxLimit <= 0 {
		return DefaultPaging
	}
	return p
}

// window reads limit/offset from the query string.
func (p Paging) window(c *gin.Context) (int, int) {
	p = p.orDefault()
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	return services.NormalizePage(limit, offset, p.DefaultLimit, p.MaxLimit)
}

func errorResponse(c *gin.Context, status int, code, message string) {
	c.JSON(status, models.ErrorResponse{
		Success: false,
		Error: models.Error{
			Code:    code,
			Message: message,
		},
	})
}

func validationError(c *gin.Context, err error) {
	errorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
}

// respondError maps service and repository errors to the error envelope.
func respondError(c *gin.Context, logger *logrus.Entry, err error) {
	switch {
	case services.IsNotFound(err), errors.Is(err, services.ErrOrderNotFound):
		errorResponse(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, repository.ErrDuplicate):
		errorResponse(c, http.StatusConflict, "CONFLICT", err.Error())
	case errors.Is(err, repository.ErrCategoryHasChildren),
		errors.Is(err, repository.ErrCategoryInUse):
		errorResponse(c, http.StatusConflict, "CONFLICT", err.Error())
	case errors.Is(err, repository.ErrCategoryCycle),
		errors.Is(err, repository.ErrBannerNotRoot),
		errors.Is(err, repository.ErrEdgeScope),
		errors.Is(err, services.ErrInvalidSpecFilter),
		errors.Is(err, services.ErrInvalidPriceFilter),
		errors.Is(err, services.ErrInvalidIDList):
		errorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, clients.ErrUpstream):
		errorResponse(c, http.StatusBadGateway, "UPSTREAM_ERROR", "Basket service is unavailable")
	default:
		if logger != nil {
			logger.WithError(err).WithField("path", c.Request.URL.Path).Error("Request failed")
		}
		errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}

// uuidParam parses a path parameter, writing a 400 when it is malformed.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_ID",
				Message: "Invalid " + name + " format",
				Field:   name,
			},
		})
		return uuid.Nil, false
	}
	return id, true
}

// cityQuery parses the optional ?city= UUID.
func cityQuery(c *gin.Context) (*uuid.UUID, bool) {
	raw := strings.TrimSpace(c.Query("city"))
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_ID",
				Message: "Invalid city format",
				Field:   "city",
			},
		})
		return nil, false
	}
	return &id, true
}

func listResponse(c *gin.Context, data interface{}, limit, offset int, total int64) {
	c.JSON(http.StatusOK, models.ListResponse{
		Success:    true,
		Data:       data,
		Pagination: models.NewPagination(limit, offset, total),
	})
}

func dataResponse(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

package handler

import (
	"net/http"
	"strconv"

	"github.com/Pipe0105/visor-realtime/internal/apierror"
	"github.com/Pipe0105/visor-realtime/internal/dto"
	"github.com/Pipe0105/visor-realtime/internal/repository"
	"github.com/Pipe0105/visor-realtime/internal/rollover"

	"github.com/gin-gonic/gin"
)

const (
	defaultRecentLimit = 10
	maxRecentLimit     = 500
)

type InvoicesHandler struct {
	invoices repository.InvoiceRepository
	rollover rollover.Runner
}

func NewInvoicesHandler(invoices repository.InvoiceRepository, roll rollover.Runner) *InvoicesHandler {
	return &InvoicesHandler{invoices: invoices, rollover: roll}
}

// ListRecent handles GET /invoices?limit=N — most recent first.
func (h *InvoicesHandler) ListRecent(c *gin.Context) {
	limit := defaultRecentLimit
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	invoices, err := h.invoices.ListRecent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al listar facturas"))
		return
	}

	resp := dto.InvoiceListResponse{Count: len(invoices), Invoices: []dto.InvoiceResponse{}}
	for i := range invoices {
		resp.Invoices = append(resp.Invoices, dto.ToInvoiceResponse(&invoices[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// ListToday handles GET /invoices/today. The rollover runs first so the
// live table contains only the current day.
func (h *InvoicesHandler) ListToday(c *gin.Context) {
	if _, err := h.rollover.EnsureRollover(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al consolidar dias anteriores"))
		return
	}

	invoices, err := h.invoices.ListToday(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al listar facturas de hoy"))
		return
	}

	resp := dto.InvoiceListResponse{Count: len(invoices), Invoices: []dto.InvoiceResponse{}}
	for i := range invoices {
		resp.Invoices = append(resp.Invoices, dto.ToInvoiceResponse(&invoices[i]))
	}
	c.JSON(http.StatusOK, resp)
}

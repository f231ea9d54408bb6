package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Pipe0105/visor-realtime/internal/apierror"
	"github.com/Pipe0105/visor-realtime/internal/forecast"
	"github.com/Pipe0105/visor-realtime/internal/repository"

	"github.com/gin-gonic/gin"
)

type ForecastHandler struct {
	forecast *forecast.Service
}

func NewForecastHandler(svc *forecast.Service) *ForecastHandler {
	return &ForecastHandler{forecast: svc}
}

// Get handles GET /forecast?branch=CODE&days=N.
func (h *ForecastHandler) Get(c *gin.Context) {
	days := 0
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, apierror.New("Parametro days invalido"))
			return
		}
		days = n
	}

	resp, err := h.forecast.Forecast(c.Request.Context(), c.Query("branch"), days)
	if err != nil {
		if errors.Is(err, repository.ErrBranchNotFound) {
			c.JSON(http.StatusNotFound, apierror.New("Sucursal no encontrada"))
			return
		}
		c.JSON(http.StatusInternalServerError, apierror.New("Error al calcular la proyeccion"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

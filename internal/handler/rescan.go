package handler

import (
	"net/http"

	"github.com/Pipe0105/visor-realtime/internal/apierror"
	"github.com/Pipe0105/visor-realtime/internal/dto"
	"github.com/Pipe0105/visor-realtime/internal/ingest"

	"github.com/gin-gonic/gin"
)

type RescanHandler struct {
	rescanner *ingest.Rescanner
}

func NewRescanHandler(rescanner *ingest.Rescanner) *RescanHandler {
	return &RescanHandler{rescanner: rescanner}
}

// Trigger handles POST /invoices/rescan — a manual directory sweep.
func (h *RescanHandler) Trigger(c *gin.Context) {
	result, err := h.rescanner.Rescan(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al reescanear el directorio de facturas"))
		return
	}
	if result == nil {
		c.JSON(http.StatusAccepted, dto.RescanResponse{Message: "Ya hay un escaneo en curso"})
		return
	}
	c.JSON(http.StatusOK, dto.RescanResponse{
		Scheduled: result.Scheduled,
		Skipped:   result.Skipped,
		Message:   "Escaneo completado",
	})
}

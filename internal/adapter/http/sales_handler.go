package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mecber11/farmacia/internal/logging"
	"github.com/mecber11/farmacia/internal/usecase"
	"go.uber.org/zap"
)

type SalesHandler struct {
	report *usecase.SalesReport
}

func NewSalesHandler(report *usecase.SalesReport) *SalesHandler {
	return &SalesHandler{report: report}
}

type saleResp struct {
	ID          int64     `json:"id"`
	Fecha       time.Time `json:"fecha"`
	Cliente     string    `json:"cliente"`
	Medicamento string    `json:"medicamento"`
	Cantidad    int       `json:"cantidad"`
	Subtotal    float64   `json:"subtotal"`
}

// GET /api/ventas
func (h *SalesHandler) List(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	lines, err := h.report.List(ctx)
	if err != nil {
		logging.From(c).Error("list sales", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"detail": "Error de conexión con la base de datos: " + cause(err),
		})
		return
	}

	out := make([]saleResp, 0, len(lines))
	for _, l := range lines {
		out = append(out, saleResp{
			ID:          l.ID,
			Fecha:       l.Fecha,
			Cliente:     l.Cliente,
			Medicamento: l.Medicamento,
			Cantidad:    l.Cantidad,
			Subtotal:    l.Subtotal.InexactFloat64(),
		})
	}
	c.JSON(http.StatusOK, out)
}

// GET /
func (h *SalesHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "API de Farmacia funcionando correctamente"})
}

// cause strips the sentinel prefix so only the driver message is shown.
func cause(err error) string {
	msg := err.Error()
	prefix := usecase.ErrStoreUnavailable.Error() + ": "
	if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
		return msg[len(prefix):]
	}
	return msg
}

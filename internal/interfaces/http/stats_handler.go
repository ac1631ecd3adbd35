package http

import (
	"github.com/gofiber/fiber/v2"
)

// StatsHandler painel de totais do emitente.
type StatsHandler struct {
	uc ManifestService
}

func NewStatsHandler(uc ManifestService) *StatsHandler {
	return &StatsHandler{uc: uc}
}

// Summary godoc
// @Summary      Totais do mês por status
// @Tags         stats
// @Produce      json
// @Security     BearerAuth
// @Param        month  query     string  false  "AAAA-MM (padrão: mês corrente)"
// @Success      200    {object}  dto.StatsSummaryDTO
// @Failure      400    {object}  dto.ErrorResponse
// @Router       /api/stats/summary [get]
func (h *StatsHandler) Summary(c *fiber.Ctx) error {
	out, err := h.uc.Stats(c.UserContext(), GetCompanyID(c), c.Query("month"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

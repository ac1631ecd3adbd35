package http

import (
	"github.com/gofiber/fiber/v2"
)

// SefazHandler consultas à autoridade que não alteram manifestos.
type SefazHandler struct {
	uc ManifestService
}

func NewSefazHandler(uc ManifestService) *SefazHandler {
	return &SefazHandler{uc: uc}
}

// Status godoc
// @Summary      Status do serviço MDF-e da UF do emitente
// @Tags         sefaz
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dto.ServiceStatusResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/sefaz/status [get]
func (h *SefazHandler) Status(c *fiber.Ctx) error {
	out, err := h.uc.ServiceStatus(c.UserContext(), GetCompanyID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// PendingClosures godoc
// @Summary      MDF-e autorizados e não encerrados na SEFAZ
// @Tags         sefaz
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dto.PendingClosuresResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/sefaz/pending-closures [get]
func (h *SefazHandler) PendingClosures(c *fiber.Ctx) error {
	out, err := h.uc.PendingClosures(c.UserContext(), GetCompanyID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

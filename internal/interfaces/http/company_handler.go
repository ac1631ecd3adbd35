package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/Hacerfak/CoreMDFeApp/internal/application/dto"
)

// CompanyService implementado por *company.UseCase.
type CompanyService interface {
	Provision(ctx context.Context, in dto.ProvisionCompanyRequest) (*dto.CompanyResponse, error)
	Get(ctx context.Context, companyID string) (*dto.CompanyResponse, error)
	Update(ctx context.Context, companyID string, in dto.UpdateCompanyRequest) (*dto.CompanyResponse, error)
}

// CompanyHandler maneja as requisições HTTP do emitente do token.
type CompanyHandler struct {
	uc CompanyService
}

// NewCompanyHandler constrói o handler injetando o caso de uso.
func NewCompanyHandler(uc CompanyService) *CompanyHandler {
	return &CompanyHandler{uc: uc}
}

// Get godoc
// @Summary      Obter empresa emitente
// @Tags         company
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dto.CompanyResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/company [get]
func (h *CompanyHandler) Get(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), GetCompanyID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Atualizar configuração do emitente
// @Description  Campos omitidos ficam como estão. O contador de numeração não é alterado.
// @Tags         company
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      dto.UpdateCompanyRequest  true  "Campos a alterar"
// @Success      200   {object}  dto.CompanyResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/company [put]
func (h *CompanyHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateCompanyRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Update(c.UserContext(), GetCompanyID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Provision godoc
// @Summary      Cadastrar emitente a partir do certificado A1
// @Description  O CNPJ vem do titular do certificado. Sem id no corpo, usa a empresa do token.
// @Tags         company
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      dto.ProvisionCompanyRequest  true  "Cadastro do emitente"
// @Success      201   {object}  dto.CompanyResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      412   {object}  dto.ErrorResponse
// @Router       /api/company [post]
func (h *CompanyHandler) Provision(c *fiber.Ctx) error {
	var in dto.ProvisionCompanyRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if in.ID == "" {
		in.ID = GetCompanyID(c)
	}
	out, err := h.uc.Provision(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/Hacerfak/CoreMDFeApp/internal/application/dto"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain/entity"
)

// companyLookup contrato mínimo para conferir o emitente do token.
// Implementado por repository.CompanyRepository.
type companyLookup interface {
	GetByID(ctx context.Context, id string) (*entity.Company, error)
}

// RequireCompany verifica se a empresa do token existe e tem configuração fiscal.
// Deve vir DEPOIS do AuthMiddleware.
//
// Comportamento:
//   - 412 Precondition Failed → empresa inexistente, sem ambiente ou com série fora de 0 a 999.
//   - 503 Service Unavailable → falha ao consultar o banco.
func RequireCompany(companies companyLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID := GetCompanyID(c)
		if companyID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Code:    "UNAUTHORIZED",
				Message: "company_id ausente no token",
			})
		}

		company, err := companies.GetByID(c.UserContext(), companyID)
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
				Code:    "COMPANY_CHECK_FAILED",
				Message: "não foi possível verificar a empresa, tente mais tarde",
			})
		}
		if company == nil || !company.FiscalConfigured() {
			return c.Status(fiber.StatusPreconditionFailed).JSON(dto.ErrorResponse{
				Code:    "NOT_CONFIGURED",
				Message: "empresa sem configuração fiscal",
			})
		}
		return c.Next()
	}
}

package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/Hacerfak/CoreMDFeApp/internal/application/dto"
	"github.com/Hacerfak/CoreMDFeApp/internal/application/manifest"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain"
)

// errorStatus mapeia erros de domínio para status HTTP e código da resposta.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidCode):
		return fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrMissingProtocol),
		errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrAccessKeyImmutable):
		return fiber.StatusConflict, "CONFLICT"
	case errors.Is(err, domain.ErrCompanyNotConfigured), errors.Is(err, domain.ErrCertificate):
		return fiber.StatusPreconditionFailed, "NOT_CONFIGURED"
	case errors.Is(err, domain.ErrAuthorityUnavailable):
		return fiber.StatusServiceUnavailable, "AUTHORITY_UNAVAILABLE"
	case errors.Is(err, domain.ErrUnparseableDocument):
		return fiber.StatusUnprocessableEntity, "UNPARSEABLE_DOCUMENT"
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, "FORBIDDEN"
	}
	return fiber.StatusInternalServerError, "INTERNAL"
}

// writeError responde com dto.ErrorResponse. Erros internos não expõem detalhes.
func writeError(c *fiber.Ctx, err error) error {
	status, code := errorStatus(err)
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		msg = "erro interno"
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

// resultStatus status HTTP do desfecho de uma operação do ciclo de vida.
func resultStatus(r *manifest.Result) int {
	if r.Success {
		return fiber.StatusOK
	}
	switch r.Kind {
	case manifest.FailureNotFound:
		return fiber.StatusNotFound
	case manifest.FailureValidation:
		return fiber.StatusUnprocessableEntity
	case manifest.FailureConfiguration:
		return fiber.StatusPreconditionFailed
	case manifest.FailureUnavailable:
		return fiber.StatusServiceUnavailable
	case manifest.FailureTransport:
		return fiber.StatusBadGateway
	case manifest.FailureRejection:
		return fiber.StatusUnprocessableEntity
	case manifest.FailureReconstruction:
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

// writeResult responde com o OperationResponse e o status correspondente.
func writeResult(c *fiber.Ctx, r *manifest.Result, err error) error {
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(resultStatus(r)).JSON(manifest.ToOperationResponse(r))
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corpo inválido"})
}

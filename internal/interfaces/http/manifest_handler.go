package http

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Hacerfak/CoreMDFeApp/internal/application/dto"
	"github.com/Hacerfak/CoreMDFeApp/internal/application/manifest"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain"
)

// maxImportSize tamanho máximo do XML de NF-e/CT-e importado.
const maxImportSize = 2 << 20

// ManifestService operações do ciclo de vida usadas pelos handlers.
// Implementado por *manifest.UseCase.
type ManifestService interface {
	Emit(ctx context.Context, companyID string, req dto.EmissionRequest) (*manifest.Result, error)
	Resend(ctx context.Context, companyID, manifestID string) (*manifest.Result, error)
	Cancel(ctx context.Context, companyID, manifestID, justification string) (*manifest.Result, error)
	Close(ctx context.Context, companyID, manifestID string, in dto.ClosureRequest) (*manifest.Result, error)
	AddDriver(ctx context.Context, companyID, manifestID string, in dto.AddDriverRequest) (*manifest.Result, error)
	AddDocument(ctx context.Context, companyID, manifestID string, in dto.AddDocumentRequest) (*manifest.Result, error)

	Get(ctx context.Context, companyID, id string) (*dto.ManifestResponse, error)
	List(ctx context.Context, companyID string, in dto.ManifestListRequest) (*dto.ManifestListResponse, error)
	Delete(ctx context.Context, companyID, id string) error
	Events(ctx context.Context, companyID, id string) ([]dto.EventLogResponse, error)
	ServiceStatus(ctx context.Context, companyID string) (*dto.ServiceStatusResponse, error)
	PendingClosures(ctx context.Context, companyID string) (*dto.PendingClosuresResponse, error)
	Stats(ctx context.Context, companyID, month string) (*dto.StatsSummaryDTO, error)
}

// DocumentService DAMDFE e planilha. Implementado por *manifest.DocumentsUseCase.
type DocumentService interface {
	DownloadDAMDFE(ctx context.Context, companyID, manifestID string) ([]byte, string, error)
	ExportXLSX(ctx context.Context, companyID string, from, to *time.Time) ([]byte, string, error)
}

// ManifestHandler maneja as requisições HTTP do recurso Manifest.
type ManifestHandler struct {
	uc   ManifestService
	docs DocumentService
}

// NewManifestHandler constrói o handler injetando os casos de uso.
func NewManifestHandler(uc ManifestService, docs DocumentService) *ManifestHandler {
	return &ManifestHandler{uc: uc, docs: docs}
}

// Emit godoc
// @Summary      Emitir MDF-e
// @Description  Monta, transmite e persiste um novo manifesto. Campos omitidos usam os padrões da empresa.
// @Tags         manifests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      dto.EmissionRequest  true  "Dados da emissão"
// @Success      200   {object}  dto.OperationResponse
// @Failure      422   {object}  dto.OperationResponse
// @Failure      503   {object}  dto.OperationResponse
// @Router       /api/manifests [post]
func (h *ManifestHandler) Emit(c *fiber.Ctx) error {
	var in dto.EmissionRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.uc.Emit(c.UserContext(), GetCompanyID(c), in)
	return writeResult(c, res, err)
}

// List godoc
// @Summary      Listar manifestos
// @Tags         manifests
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "drafting, signed, sent, authorized, rejected, closed, cancelled"
// @Param        from    query     string  false  "AAAA-MM-DD"
// @Param        to      query     string  false  "AAAA-MM-DD"
// @Param        q       query     string  false  "Chave, número ou UF"
// @Param        limit   query     int     false  "Limite"  default(20)
// @Param        offset  query     int     false  "Offset"  default(0)
// @Success      200     {object}  dto.ManifestListResponse
// @Failure      400     {object}  dto.ErrorResponse
// @Router       /api/manifests [get]
func (h *ManifestHandler) List(c *fiber.Ctx) error {
	in := dto.ManifestListRequest{
		PageRequest: dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)},
		Status:      c.Query("status"),
		From:        c.Query("from"),
		To:          c.Query("to"),
		Search:      c.Query("q"),
	}
	out, err := h.uc.List(c.UserContext(), GetCompanyID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obter manifesto
// @Tags         manifests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "ID do manifesto"
// @Success      200  {object}  dto.ManifestResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/manifests/{id} [get]
func (h *ManifestHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Excluir manifesto nunca autorizado
// @Tags         manifests
// @Security     BearerAuth
// @Param        id   path  string  true  "ID do manifesto"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/manifests/{id} [delete]
func (h *ManifestHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), GetCompanyID(c), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Resend godoc
// @Summary      Reenviar MDF-e a partir do XML armazenado
// @Tags         manifests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "ID do manifesto"
// @Success      200  {object}  dto.OperationResponse
// @Failure      409  {object}  dto.OperationResponse
// @Router       /api/manifests/{id}/resend [post]
func (h *ManifestHandler) Resend(c *fiber.Ctx) error {
	res, err := h.uc.Resend(c.UserContext(), GetCompanyID(c), c.Params("id"))
	return writeResult(c, res, err)
}

// Cancel godoc
// @Summary      Cancelar MDF-e (evento 110111)
// @Tags         manifests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "ID do manifesto"
// @Param        body  body      dto.CancelRequest  true  "Justificativa (15 a 255 caracteres)"
// @Success      200   {object}  dto.OperationResponse
// @Failure      422   {object}  dto.OperationResponse
// @Router       /api/manifests/{id}/cancel [post]
func (h *ManifestHandler) Cancel(c *fiber.Ctx) error {
	var in dto.CancelRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.uc.Cancel(c.UserContext(), GetCompanyID(c), c.Params("id"), in.Justification)
	return writeResult(c, res, err)
}

// Close godoc
// @Summary      Encerrar MDF-e (evento 110112)
// @Description  Sem corpo, encerra no último município de descarregamento com a data de hoje.
// @Tags         manifests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string              true   "ID do manifesto"
// @Param        body  body      dto.ClosureRequest  false  "Local e data do encerramento"
// @Success      200   {object}  dto.OperationResponse
// @Failure      422   {object}  dto.OperationResponse
// @Router       /api/manifests/{id}/close [post]
func (h *ManifestHandler) Close(c *fiber.Ctx) error {
	var in dto.ClosureRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	res, err := h.uc.Close(c.UserContext(), GetCompanyID(c), c.Params("id"), in)
	return writeResult(c, res, err)
}

// AddDriver godoc
// @Summary      Incluir condutor (evento 110114)
// @Tags         manifests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                true  "ID do manifesto"
// @Param        body  body      dto.AddDriverRequest  true  "Condutor"
// @Success      200   {object}  dto.OperationResponse
// @Failure      422   {object}  dto.OperationResponse
// @Router       /api/manifests/{id}/drivers [post]
func (h *ManifestHandler) AddDriver(c *fiber.Ctx) error {
	var in dto.AddDriverRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.uc.AddDriver(c.UserContext(), GetCompanyID(c), c.Params("id"), in)
	return writeResult(c, res, err)
}

// AddDocument godoc
// @Summary      Incluir NF-e (evento 110115)
// @Tags         manifests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                  true  "ID do manifesto"
// @Param        body  body      dto.AddDocumentRequest  true  "Municípios e chave da NF-e"
// @Success      200   {object}  dto.OperationResponse
// @Failure      422   {object}  dto.OperationResponse
// @Router       /api/manifests/{id}/documents [post]
func (h *ManifestHandler) AddDocument(c *fiber.Ctx) error {
	var in dto.AddDocumentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.uc.AddDocument(c.UserContext(), GetCompanyID(c), c.Params("id"), in)
	return writeResult(c, res, err)
}

// Events godoc
// @Summary      Histórico de interações com a SEFAZ
// @Tags         manifests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "ID do manifesto"
// @Success      200  {array}   dto.EventLogResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/manifests/{id}/events [get]
func (h *ManifestHandler) Events(c *fiber.Ctx) error {
	out, err := h.uc.Events(c.UserContext(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetPDF godoc
// @Summary      Baixar DAMDFE
// @Tags         manifests
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id   path      string  true  "ID do manifesto"
// @Success      200  {file}    binary
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/manifests/{id}/pdf [get]
func (h *ManifestHandler) GetPDF(c *fiber.Ctx) error {
	data, filename, err := h.docs.DownloadDAMDFE(c.UserContext(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="`+filename+`"`)
	return c.Send(data)
}

// Export godoc
// @Summary      Exportar histórico em XLSX
// @Tags         manifests
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        from  query     string  false  "AAAA-MM-DD"
// @Param        to    query     string  false  "AAAA-MM-DD"
// @Success      200   {file}    binary
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/manifests/export.xlsx [get]
func (h *ManifestHandler) Export(c *fiber.Ctx) error {
	from, err := queryDate(c, "from", false)
	if err != nil {
		return writeError(c, err)
	}
	to, err := queryDate(c, "to", true)
	if err != nil {
		return writeError(c, err)
	}
	data, filename, err := h.docs.ExportXLSX(c.UserContext(), GetCompanyID(c), from, to)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Attachment(filename)
	return c.Send(data)
}

// ImportCargoDocument godoc
// @Summary      Ler XML de NF-e ou CT-e
// @Description  Aceita o XML no corpo ou em multipart (campo "file"). Devolve a linha pronta para a emissão.
// @Tags         manifests
// @Accept       xml
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dto.CargoDocumentLine
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/cargo-documents/import [post]
func (h *ManifestHandler) ImportCargoDocument(c *fiber.Ctx) error {
	data := c.Body()
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		fh, err := c.FormFile("file")
		if err != nil {
			return badBody(c)
		}
		f, err := fh.Open()
		if err != nil {
			return badBody(c)
		}
		defer f.Close()
		if data, err = io.ReadAll(io.LimitReader(f, maxImportSize+1)); err != nil {
			return badBody(c)
		}
	}
	if len(data) == 0 || len(data) > maxImportSize {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "XML ausente ou maior que 2 MB"})
	}
	line, err := manifest.ImportCargoDocument(data)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(line)
}

// queryDate lê AAAA-MM-DD; endOfDay desloca para o início do dia seguinte.
func queryDate(c *fiber.Ctx, key string, endOfDay bool) (*time.Time, error) {
	s := c.Query(key)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, domain.ErrInvalidInput
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1)
	}
	return &t, nil
}

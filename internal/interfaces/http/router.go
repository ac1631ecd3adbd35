package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Hacerfak/CoreMDFeApp/pkg/jwt"
)

// RouterDeps dependências do router.
type RouterDeps struct {
	ManifestUC  ManifestService
	DocumentsUC DocumentService
	CompanyUC   CompanyService
	Companies   companyLookup
	JWTSecret   string
}

// Router registra as rotas da API. Tudo sob /api exige Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	readers := RequireRole(jwt.RoleAdmin, jwt.RoleEmissor, jwt.RoleConsulta)
	writers := RequireRole(jwt.RoleAdmin, jwt.RoleEmissor)
	configured := RequireCompany(deps.Companies)

	// Empresa: consulta livre, alteração só admin (sem exigir configuração prévia)
	companyHandler := NewCompanyHandler(deps.CompanyUC)
	api.Get("/company", readers, companyHandler.Get)
	api.Post("/company", RequireRole(jwt.RoleAdmin), companyHandler.Provision)
	api.Put("/company", RequireRole(jwt.RoleAdmin), companyHandler.Update)

	// Manifestos
	manifests := api.Group("/manifests", configured)
	h := NewManifestHandler(deps.ManifestUC, deps.DocumentsUC)
	manifests.Get("/", readers, h.List)
	manifests.Post("/", writers, h.Emit)
	manifests.Get("/export.xlsx", readers, h.Export)
	manifests.Get("/:id", readers, h.GetByID)
	manifests.Delete("/:id", writers, h.Delete)
	manifests.Get("/:id/events", readers, h.Events)
	manifests.Get("/:id/pdf", readers, h.GetPDF)
	manifests.Post("/:id/resend", writers, h.Resend)
	manifests.Post("/:id/cancel", writers, h.Cancel)
	manifests.Post("/:id/close", writers, h.Close)
	manifests.Post("/:id/drivers", writers, h.AddDriver)
	manifests.Post("/:id/documents", writers, h.AddDocument)

	api.Post("/cargo-documents/import", writers, h.ImportCargoDocument)

	// Autoridade
	sefazHandler := NewSefazHandler(deps.ManifestUC)
	sefaz := api.Group("/sefaz", configured, readers)
	sefaz.Get("/status", sefazHandler.Status)
	sefaz.Get("/pending-closures", sefazHandler.PendingClosures)

	statsHandler := NewStatsHandler(deps.ManifestUC)
	api.Get("/stats/summary", readers, statsHandler.Summary)
}

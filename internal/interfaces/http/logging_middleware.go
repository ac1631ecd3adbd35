package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Hacerfak/CoreMDFeApp/pkg/logger"
)

// HeaderRequestID propagado na resposta; reaproveitado se vier na requisição.
const HeaderRequestID = "X-Request-ID"

// RequestLogger registra uma linha por requisição com método, rota, status e duração.
// 5xx sai em nível error, 4xx em warn, o resto em info.
func RequestLogger(log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		reqID := c.Get(HeaderRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set(HeaderRequestID, reqID)

		err := c.Next()
		if err != nil {
			// o ErrorHandler do app ainda vai escrever a resposta
			if ferr := c.App().ErrorHandler(c, err); ferr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		ev := log.Info()
		switch {
		case status >= 500:
			ev = log.Error().Err(err)
		case status >= 400:
			ev = log.Warn()
		}
		ev.Str("request_id", reqID).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str(logger.FieldCompany, GetCompanyID(c)).
			Msg("http")
		return nil
	}
}

package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/VladsCoffeApp1/container-playwright-pdf/internal/config"
	"github.com/VladsCoffeApp1/container-playwright-pdf/internal/domain"
	"github.com/VladsCoffeApp1/container-playwright-pdf/internal/infra/chrome"
	"github.com/VladsCoffeApp1/container-playwright-pdf/internal/infra/logging"
	"github.com/VladsCoffeApp1/container-playwright-pdf/internal/pdf"
)

// PDFHandler exposes the render service over HTTP. It owns no state beyond
// the injected collaborators.
type PDFHandler struct {
	cfg   config.Config
	svc   *pdf.Service
	stats func() chrome.Stats
}

// NewPDFHandler creates the handler set. stats may be nil when no engine
// observability is wired (tests).
func NewPDFHandler(cfg config.Config, svc *pdf.Service, stats func() chrome.Stats) *PDFHandler {
	return &PDFHandler{cfg: cfg, svc: svc, stats: stats}
}

// HandleRender accepts {"html": ..., "options": {...}} and responds with the
// rendered PDF bytes, or a structured error naming the failure class.
func (h *PDFHandler) HandleRender(c *fiber.Ctx) error {
	if len(c.Body()) > h.cfg.Limits.MaxHTMLBytes {
		return writeError(c, fiber.StatusRequestEntityTooLarge, "payload-too-large", "",
			"request body exceeds the configured limit")
	}

	var req domain.RenderRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, fiber.StatusBadRequest, "validation", "body",
			"request body is not a valid JSON object")
	}

	buf, err := h.svc.Handle(c.Context(), req)
	if err != nil {
		return h.respondError(c, err)
	}

	logging.Info("PDF generated", "bytes", len(buf), "request_id", requestID(c))

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, "inline; filename=document.pdf")
	return c.Send(buf)
}

func (h *PDFHandler) respondError(c *fiber.Ctx, err error) error {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return writeError(c, fiber.StatusBadRequest, "validation", ve.Field, ve.Error())
	}

	var ae *domain.AcquisitionError
	if errors.As(err, &ae) {
		logging.Error("Engine unavailable", "error", err.Error(), "request_id", requestID(c))
		return writeError(c, fiber.StatusServiceUnavailable, "engine-unavailable", "",
			"rendering engine is unavailable")
	}

	var re *domain.RenderError
	if errors.As(err, &re) {
		switch re.Kind {
		case domain.KindTimeout:
			logging.Error("PDF generation timeout", "timeout_secs", h.cfg.PDF.TimeoutSecs, "request_id", requestID(c))
			return writeError(c, fiber.StatusGatewayTimeout, string(re.Kind), "",
				"PDF generation timed out - HTML too large or complex")
		default:
			logging.Error("PDF generation failed", "error", err.Error(), "request_id", requestID(c))
			return writeError(c, fiber.StatusInternalServerError, string(re.Kind), "",
				"PDF generation failed")
		}
	}

	logging.Error("Unclassified render failure", "error", err.Error(), "request_id", requestID(c))
	return writeError(c, fiber.StatusInternalServerError, "internal", "", "PDF generation failed")
}

// HandleHealth reports that the process is up. It does not check the engine
// connection; the readiness probe does that.
func (h *PDFHandler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"service": h.cfg.App.Name,
	})
}

// HandleEngineStats exposes engine observability: connection state, live
// browsing contexts and restart count.
func (h *PDFHandler) HandleEngineStats(c *fiber.Ctx) error {
	if h.stats == nil {
		return c.JSON(fiber.Map{"connected": false})
	}
	return c.JSON(h.stats())
}

func requestID(c *fiber.Ctx) string {
	if id := c.Get("X-Request-ID"); id != "" {
		return id
	}
	return c.GetRespHeader("X-Request-Id")
}

// writeError emits the structured error body shared by all failure responses.
func writeError(c *fiber.Ctx, code int, kind, field, message string) error {
	body := fiber.Map{
		"code":    code,
		"kind":    kind,
		"message": message,
	}
	if field != "" {
		body["field"] = field
	}
	return c.Status(code).JSON(fiber.Map{"error": body})
}

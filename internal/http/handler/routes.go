package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"esign/docs"
	"esign/internal/service"
)

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	// Ledger backs /health; nil reports healthy unconditionally.
	Ledger     Pinger
	Signatures service.SignatureService
	// Gatherer serves /metrics when set.
	Gatherer       prometheus.Gatherer
	MaxUploadBytes int64
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, d Deps) {
	app.Get("/health", HealthCheck(d.Ledger))
	app.Get("/healthz", LivenessProbe())
	if d.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}
	app.Get("/swagger/*", SwaggerUI())

	sig := app.Group("/signatures")
	sig.Post("/", SignDocument(d.Signatures, d.MaxUploadBytes))
	sig.Get("/", ListSignatures(d.Signatures))
	sig.Get("/:id", GetSignature(d.Signatures))
	sig.Get("/:id/proof", GetProof(d.Signatures))
	sig.Get("/:id/proof.png", GetProofQR(d.Signatures))
	sig.Get("/:id/document", GetDocument(d.Signatures))

	app.Post("/verifications", VerifyDocument(d.Signatures, d.MaxUploadBytes))
	app.Get("/verify", VerifyLanding(d.Signatures))
}

// SwaggerUI serves the API docs with host and scheme taken from the request.
func SwaggerUI() fiber.Handler {
	return func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	}
}

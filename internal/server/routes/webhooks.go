package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/jmelnik/ingestgate/internal/app/services"
	ingestwebhook "github.com/jmelnik/ingestgate/internal/webhooks/ingest"
)

// WebhookRoutes registers the inbound object-batch endpoint.
type WebhookRoutes struct {
	ingest *ingestwebhook.Handler
}

// NewWebhookRoutes constructs webhook routes.
func NewWebhookRoutes(svc *services.IngestionService) *WebhookRoutes {
	return &WebhookRoutes{
		ingest: ingestwebhook.NewHandler(svc),
	}
}

// RegisterRoutes registers webhook endpoints.
func (w *WebhookRoutes) RegisterRoutes(s *echo.Echo) {
	s.POST("/webhooks/objects", w.handleObjects)
}

func (w *WebhookRoutes) handleObjects(c echo.Context) error {
	return w.ingest.Handle(c.Response(), c.Request())
}

package webhook

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/janhq/money-coach/internal/interfaces/httpserver/handlers/webhookhandler"
	"github.com/janhq/money-coach/internal/interfaces/httpserver/responses"
	"github.com/janhq/money-coach/internal/utils/platformerrors"
)

// maxWebhookBody bounds identity webhook payloads.
const maxWebhookBody = 1 << 20

type WebhookRoute struct {
	handler *webhookhandler.WebhookHandler
}

func NewWebhookRoute(handler *webhookhandler.WebhookHandler) *WebhookRoute {
	return &WebhookRoute{handler: handler}
}

func (route *WebhookRoute) RegisterPublicRouter(router gin.IRouter) {
	router.POST("/webhooks/identity", route.identityWebhook)
}

// identityWebhook reads the raw body, which the signature is computed over.
// Processed and ignored events both answer 200.
//
// @Summary Identity provider webhook
// @Description Receives svix-signed user events.
// @Tags Webhooks
// @Accept json
// @Produce json
// @Param svix-id header string true "Delivery ID"
// @Param svix-timestamp header string true "Delivery timestamp"
// @Param svix-signature header string true "Signature"
// @Param request body object true "Request body"
// @Success 200 {object} map[string]any
// @Failure 400 {object} platformerrors.HTTPErrorResponse "Invalid request"
// @Failure 401 {object} platformerrors.HTTPErrorResponse "Unauthorized"
// @Failure 503 {object} platformerrors.HTTPErrorResponse "Service unavailable"
// @Router /v1/webhooks/identity [post]
func (route *WebhookRoute) identityWebhook(reqCtx *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(reqCtx.Request.Body, maxWebhookBody+1))
	if err != nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "unreadable webhook body", "f03d32c1-b4e5-4142-b6ca-160d19500d96")
		return
	}
	if len(payload) > maxWebhookBody {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "webhook body too large", "6705fc69-9647-49f3-840c-5e00bef230c0")
		return
	}

	result, err := route.handler.HandleDelivery(reqCtx.Request.Context(), payload, reqCtx.Request.Header)
	if err != nil {
		responses.HandleError(reqCtx, err, "identity webhook rejected")
		return
	}

	reqCtx.JSON(http.StatusOK, gin.H{
		"received":  true,
		"type":      result.EventType,
		"outcome":   result.Outcome,
		"duplicate": result.Duplicate,
	})
}

package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/izakgestao/backend/internal/interfaces/http/dto"
)

// WebhookTokenHeader authenticates inbound provider webhooks
const WebhookTokenHeader = "X-Webhook-Token"

// WebhookAuth checks the shared webhook token. Providers that cannot set
// headers may pass it as a query parameter instead. An empty configured
// token disables the check, which is only acceptable in development.
func WebhookAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}

		supplied := c.GetHeader(WebhookTokenHeader)
		if supplied == "" {
			supplied = c.Query("token")
		}
		if subtle.ConstantTimeCompare([]byte(supplied), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeUnauthorized, "Invalid webhook token", GetRequestID(c)))
			return
		}
		c.Next()
	}
}

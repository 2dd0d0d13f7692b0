package middleware

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/agrolink/agrolink_api/internal/utils"
)

const (
	// SignatureHeader carries "sha256=<hex hmac>" of the raw request body.
	SignatureHeader = "X-Signature"

	// RawBodyKey is the gin context key holding the request body bytes.
	RawBodyKey = "raw_body"

	maxWebhookBody = 64 << 10
)

// SignatureMiddleware authenticates SMS gateway webhooks. The signature is
// checked whenever the header is present and a secret is configured;
// required makes the header mandatory.
type SignatureMiddleware struct {
	secret   string
	required bool
	limiter  *FailureLimiter
}

func NewSignatureMiddleware(secret string, required bool, limiter *FailureLimiter) *SignatureMiddleware {
	return &SignatureMiddleware{secret: secret, required: required, limiter: limiter}
}

func (m *SignatureMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody+1))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
			return
		}
		if len(body) > maxWebhookBody {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Payload too large"})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		c.Set(RawBodyKey, body)

		signature := c.GetHeader(SignatureHeader)
		if signature == "" && !m.required {
			c.Next()
			return
		}
		if signature != "" && m.secret == "" {
			c.Next()
			return
		}

		ip := c.ClientIP()
		if m.limiter != nil && m.limiter.Blocked(ip) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many invalid signatures"})
			return
		}

		err = utils.CheckSignature(body, signature, m.secret)
		switch {
		case err == nil:
			c.Next()
		case errors.Is(err, utils.ErrMissingSignature):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing signature"})
		default:
			if m.limiter != nil {
				m.limiter.Fail(ip)
			}
			log.Warn().Err(err).Str("ip", ip).Msg("Webhook signature rejected")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
		}
	}
}

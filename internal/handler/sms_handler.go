package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/agrolink/agrolink_api/internal/middleware"
	"github.com/agrolink/agrolink_api/internal/service"
	"github.com/agrolink/agrolink_api/internal/utils"
)

// InboundSMSHandler runs one inbound message through the registration flow.
type InboundSMSHandler interface {
	Handle(ctx context.Context, msg service.InboundMessage) (*service.Outcome, error)
}

// inboundSMSRequest is the gateway webhook body. Only sender and message are
// required; the rest is logged when present.
type inboundSMSRequest struct {
	Sender     string `json:"sender"`
	Message    string `json:"message"`
	SMSID      string `json:"smsId,omitempty"`
	DeviceID   string `json:"deviceId,omitempty"`
	ReceivedAt string `json:"receivedAt,omitempty"`
}

// SMSHandler receives inbound SMS webhooks.
type SMSHandler struct {
	registration InboundSMSHandler
}

func NewSMSHandler(registration InboundSMSHandler) *SMSHandler {
	return &SMSHandler{registration: registration}
}

// Receive handles POST /api/sms/receive
func (h *SMSHandler) Receive(c *gin.Context) {
	body, err := rawBody(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	var req inboundSMSRequest
	if err := json.Unmarshal(body, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if strings.TrimSpace(req.Sender) == "" || strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing sender or text"})
		return
	}

	log.Debug().
		Str("request_id", c.GetString("request_id")).
		Str("sender", req.Sender).
		Str("sms_id", req.SMSID).
		Str("device_id", req.DeviceID).
		Msg("Inbound SMS received")

	out, err := h.registration.Handle(c.Request.Context(), service.InboundMessage{Sender: req.Sender, Text: req.Message})
	if err != nil {
		if errors.Is(err, utils.ErrInvalidPayload) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing sender or text"})
			return
		}
		log.Error().Err(err).Str("sender", req.Sender).Str("request_id", c.GetString("request_id")).Msg("Failed to process inbound SMS")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	resp := gin.H{"message": out.Message}
	if out.UserID != "" {
		resp["userId"] = out.UserID
	}
	if out.Product != nil {
		resp["product"] = out.Product
	}
	c.JSON(http.StatusOK, resp)
}

// rawBody prefers the bytes captured by the signature middleware.
func rawBody(c *gin.Context) ([]byte, error) {
	if v, ok := c.Get(middleware.RawBodyKey); ok {
		if b, ok := v.([]byte); ok {
			return b, nil
		}
	}
	return io.ReadAll(c.Request.Body)
}

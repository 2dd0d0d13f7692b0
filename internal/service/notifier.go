package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/agrolink/agrolink_api/internal/metrics"
)

// Notifier delivers outbound SMS notices. A failed notice is logged and
// counted but never fails the caller.
type Notifier struct {
	sender  SMSSender
	timeout time.Duration
	metrics *metrics.Metrics
}

func NewNotifier(sender SMSSender, timeout time.Duration, m *metrics.Metrics) *Notifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Notifier{sender: sender, timeout: timeout, metrics: m}
}

// Send delivers message to phone within the configured timeout. The send
// is detached from ctx cancellation so a gateway that hangs up early does
// not swallow the reply.
func (n *Notifier) Send(ctx context.Context, phone, message string) bool {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	defer cancel()

	start := time.Now()
	res, err := n.sender.SendSMS(ctx, []string{phone}, message)
	ok := err == nil
	n.metrics.OutboundSMS(ok)

	if err != nil {
		log.Error().Err(err).Str("phone", phone).Dur("latency", time.Since(start)).Msg("Failed to send SMS")
		return false
	}
	ev := log.Info().Str("phone", phone).Dur("latency", time.Since(start))
	if res != nil && res.SMSBatchID != "" {
		ev = ev.Str("batch_id", res.SMSBatchID)
	}
	ev.Msg("SMS sent")
	return true
}

package textbee

import "fmt"

// SendSMSRequest is the body of POST /gateway/devices/{id}/send-sms.
type SendSMSRequest struct {
	Recipients []string `json:"recipients"`
	Message    string   `json:"message"`
}

// SendSMSResponse wraps what the gateway returns on an accepted send.
type SendSMSResponse struct {
	Data SendSMSResult `json:"data"`
}

// SendSMSResult describes the queued batch.
type SendSMSResult struct {
	Success        bool   `json:"success"`
	Message        string `json:"message,omitempty"`
	SMSBatchID     string `json:"smsBatchId,omitempty"`
	RecipientCount int    `json:"recipientCount,omitempty"`
}

// APIError is a non-2xx reply from the gateway.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("textbee: status %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether the request may succeed if retried.
func (e *APIError) Temporary() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

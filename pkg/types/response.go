package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// WebhookAck is the fixed acknowledgment shape payment providers receive.
// The webhook endpoint answers 200 with success=false on internal failures
// so the provider does not retry-storm a bug.
type WebhookAck struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

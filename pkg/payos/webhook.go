package payos

import (
	"encoding/json"
	"fmt"
)

// ResultCodeSuccess is the provider result code for a completed payment.
// Every other code maps to a failed payment.
const ResultCodeSuccess = "00"

// WebhookEvent is the fixed schema webhook deliveries are parsed into.
// Loosely-typed parsing is deliberately not supported: unknown or missing
// required fields reject the payload before any business logic runs.
type WebhookEvent struct {
	Code string      `json:"code"`
	Desc string      `json:"desc"`
	Data WebhookData `json:"data"`
}

// WebhookData carries the transaction fields the provider signs.
type WebhookData struct {
	OrderCode           int64  `json:"orderCode"`
	Amount              int64  `json:"amount"`
	Code                string `json:"code"`
	Desc                string `json:"desc"`
	Description         string `json:"description"`
	Reference           string `json:"reference"`
	TransactionDateTime string `json:"transactionDateTime"`
}

// ParseWebhookEvent decodes and validates a webhook payload.
func ParseWebhookEvent(raw []byte) (*WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return nil, fmt.Errorf("decode webhook payload: %w", err)
	}
	if event.Data.OrderCode <= 0 {
		return nil, fmt.Errorf("webhook payload missing order code")
	}
	if event.Data.Amount <= 0 {
		return nil, fmt.Errorf("webhook payload missing amount")
	}
	if event.Data.Code == "" {
		return nil, fmt.Errorf("webhook payload missing result code")
	}
	return &event, nil
}

// Succeeded reports whether the delivery describes a completed payment.
func (e *WebhookEvent) Succeeded() bool {
	return e.Data.Code == ResultCodeSuccess
}

package payos

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/trippio/trippio-backend/pkg/config"
)

const (
	defaultBaseURL             = "https://api-merchant.payos.vn"
	paymentRequestsPath        = "/v2/payment-requests"
	responseBodyLimit    int64 = 1 << 20
	successCode                = "00"
	duplicateOrderCode         = "231"
)

var (
	errClientIDRequired    = errors.New("payos client id is required")
	errAPIKeyRequired      = errors.New("payos api key is required")
	errChecksumKeyRequired = errors.New("payos checksum key is required")
)

// Client wraps the PayOS merchant API with centralized credential handling.
// One long-lived instance is built at process start and injected everywhere
// the provider is called.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	clientID    string
	apiKey      string
	checksumKey string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the merchant API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient validates the credentials and builds the PayOS wrapper.
func NewClient(cfg config.PayOSConfig, opts ...Option) (*Client, error) {
	clientID := strings.TrimSpace(cfg.ClientID)
	if clientID == "" {
		return nil, errClientIDRequired
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}
	checksumKey := strings.TrimSpace(cfg.ChecksumKey)
	if checksumKey == "" {
		return nil, errChecksumKeyRequired
	}

	client := &Client{
		httpClient:  &http.Client{Timeout: cfg.RequestTimeout()},
		baseURL:     defaultBaseURL,
		clientID:    clientID,
		apiKey:      apiKey,
		checksumKey: checksumKey,
	}
	if cfg.BaseURL != "" {
		client.baseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	return client, nil
}

// ChecksumKey returns the webhook signing secret.
func (c *Client) ChecksumKey() string {
	if c == nil {
		return ""
	}
	return c.checksumKey
}

// Item is one display line on the hosted checkout page.
type Item struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    int64  `json:"price"`
}

// CreateLinkParams describes a checkout-link request.
type CreateLinkParams struct {
	OrderCode   int64
	Amount      int64
	Description string
	Items       []Item
	ReturnURL   string
	CancelURL   string
	BuyerName   string
	BuyerEmail  string
	BuyerPhone  string
}

// PaymentLink is the provider's view of a checkout session. OrderCode echoes
// whatever the provider registered; reconciliation keys off this value.
type PaymentLink struct {
	PaymentLinkID string `json:"paymentLinkId"`
	OrderCode     int64  `json:"orderCode"`
	Amount        int64  `json:"amount"`
	CheckoutURL   string `json:"checkoutUrl"`
	QRCode        string `json:"qrCode"`
	Status        string `json:"status"`
}

// APIError is a non-success response from the merchant API.
type APIError struct {
	StatusCode int
	Code       string
	Desc       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("payos api error %s: %s", e.Code, e.Desc)
}

// IsDuplicateOrderCode reports whether the provider rejected the request
// because the order code is already registered.
func IsDuplicateOrderCode(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == duplicateOrderCode
}

type createLinkRequest struct {
	OrderCode   int64  `json:"orderCode"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	Items       []Item `json:"items,omitempty"`
	ReturnURL   string `json:"returnUrl"`
	CancelURL   string `json:"cancelUrl"`
	BuyerName   string `json:"buyerName,omitempty"`
	BuyerEmail  string `json:"buyerEmail,omitempty"`
	BuyerPhone  string `json:"buyerPhone,omitempty"`
	Signature   string `json:"signature"`
}

type apiEnvelope struct {
	Code string          `json:"code"`
	Desc string          `json:"desc"`
	Data json.RawMessage `json:"data"`
}

// CreatePaymentLink registers a checkout session for the given order code.
func (c *Client) CreatePaymentLink(ctx context.Context, params CreateLinkParams) (*PaymentLink, error) {
	if params.OrderCode <= 0 {
		return nil, fmt.Errorf("order code must be positive")
	}
	if params.Amount <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}

	req := createLinkRequest{
		OrderCode:   params.OrderCode,
		Amount:      params.Amount,
		Description: params.Description,
		Items:       params.Items,
		ReturnURL:   params.ReturnURL,
		CancelURL:   params.CancelURL,
		BuyerName:   params.BuyerName,
		BuyerEmail:  params.BuyerEmail,
		BuyerPhone:  params.BuyerPhone,
	}
	req.Signature = requestSignature(c.checksumKey, params)

	var link PaymentLink
	if err := c.do(ctx, http.MethodPost, paymentRequestsPath, req, &link); err != nil {
		return nil, err
	}
	return &link, nil
}

// GetPaymentLink fetches the current provider-side state for an order code.
// Used by the manual reconciliation path to poll instead of waiting on a
// webhook.
func (c *Client) GetPaymentLink(ctx context.Context, orderCode int64) (*PaymentLink, error) {
	var link PaymentLink
	path := fmt.Sprintf("%s/%d", paymentRequestsPath, orderCode)
	if err := c.do(ctx, http.MethodGet, path, nil, &link); err != nil {
		return nil, err
	}
	return &link, nil
}

// CancelPaymentLink cancels a pending checkout session.
func (c *Client) CancelPaymentLink(ctx context.Context, orderCode int64, reason string) (*PaymentLink, error) {
	var link PaymentLink
	path := fmt.Sprintf("%s/%d/cancel", paymentRequestsPath, orderCode)
	body := map[string]string{"cancellationReason": reason}
	if err := c.do(ctx, http.MethodPost, path, body, &link); err != nil {
		return nil, err
	}
	return &link, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	var payload io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode payos request: %w", err)
		}
		payload = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return fmt.Errorf("build payos request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-client-id", c.clientID)
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call payos: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyLimit))
	if err != nil {
		return fmt.Errorf("read payos response: %w", err)
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("decode payos response: %w", err)
	}
	if envelope.Code != successCode {
		return &APIError{StatusCode: resp.StatusCode, Code: envelope.Code, Desc: envelope.Desc}
	}
	if dest == nil || len(envelope.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, dest); err != nil {
		return fmt.Errorf("decode payos data: %w", err)
	}
	return nil
}

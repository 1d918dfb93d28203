package checkout

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/trippio/trippio-backend/internal/basket"
	"github.com/trippio/trippio-backend/internal/payments"
	"github.com/trippio/trippio-backend/pkg/config"
	"github.com/trippio/trippio-backend/pkg/db/models"
	"github.com/trippio/trippio-backend/pkg/enums"
	pkgerrors "github.com/trippio/trippio-backend/pkg/errors"
	"github.com/trippio/trippio-backend/pkg/logger"
	"github.com/trippio/trippio-backend/pkg/payos"
)

// maxOrderCode bounds generated provider order codes to six digits.
const (
	maxOrderCode         = 999999
	duplicateCodeRetries = 3
)

type basketService interface {
	Get(ctx context.Context, userID uuid.UUID) (*basket.Basket, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type orderService interface {
	CreateFromBasket(ctx context.Context, userID uuid.UUID, b *basket.Basket) (*models.Order, error)
}

type paymentService interface {
	Create(ctx context.Context, params payments.CreateParams) (*models.Payment, error)
}

type linkCreator interface {
	CreatePaymentLink(ctx context.Context, params payos.CreateLinkParams) (*payos.PaymentLink, error)
}

// Buyer is the optional contact block forwarded to the hosted checkout page.
type Buyer struct {
	Name  string
	Email string
	Phone string
}

// StartParams configures one checkout run.
type StartParams struct {
	Buyer    Buyer
	Platform enums.Platform
}

// StartResult is what the client needs to send the user to the hosted page
// and to poll status afterwards.
type StartResult struct {
	OrderID       int64  `json:"orderId"`
	OrderCode     int64  `json:"orderCode"`
	Amount        int64  `json:"amount"`
	CheckoutURL   string `json:"checkoutUrl"`
	QRCode        string `json:"qrCode"`
	PaymentLinkID string `json:"paymentLinkId"`
	Status        string `json:"status"`
}

// Service orchestrates basket snapshot, provider link creation and payment
// record persistence. The order is made durable before any provider call so
// a crash mid-checkout never loses the purchase intent.
type Service struct {
	log       *logger.Logger
	cfg       config.PayOSConfig
	baskets   basketService
	orders    orderService
	payments  paymentService
	provider  linkCreator
	orderCode func() int64
}

// NewService builds the checkout orchestrator.
func NewService(
	log *logger.Logger,
	cfg config.PayOSConfig,
	baskets basketService,
	orderSvc orderService,
	paymentSvc paymentService,
	provider linkCreator,
) (*Service, error) {
	if log == nil {
		return nil, errors.New("logger required")
	}
	if baskets == nil || orderSvc == nil || paymentSvc == nil {
		return nil, errors.New("basket, order and payment services required")
	}
	if provider == nil {
		return nil, errors.New("payment provider required")
	}
	return &Service{
		log:       log,
		cfg:       cfg,
		baskets:   baskets,
		orders:    orderSvc,
		payments:  paymentSvc,
		provider:  provider,
		orderCode: generateOrderCode,
	}, nil
}

// generateOrderCode derives a six-digit provider order code from the clock
// mixed with randomness. Collisions are possible and handled by retrying on
// the provider's duplicate rejection.
func generateOrderCode() int64 {
	mixed := time.Now().UnixNano() ^ rand.Int63()
	code := mixed % maxOrderCode
	if code < 0 {
		code = -code
	}
	return code + 1
}

// Start runs the checkout flow for the user's current basket.
func (s *Service) Start(ctx context.Context, userID uuid.UUID, params StartParams) (*StartResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	platform := params.Platform
	if platform == "" {
		platform = enums.PlatformWeb
	}
	if !platform.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown platform")
	}

	b, err := s.baskets.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if b.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "basket is empty")
	}
	total := b.Total()
	if total < s.cfg.MinAmount {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("order total %d is below the provider minimum of %d", total, s.cfg.MinAmount))
	}

	order, err := s.orders.CreateFromBasket(ctx, userID, b)
	if err != nil {
		return nil, err
	}
	ctx = s.log.WithField(ctx, "order_id", order.ID)

	// The order is durable from here on. Losing the cached basket only
	// costs the user a re-add, so a failed clear is not fatal.
	if err := s.baskets.Clear(ctx, userID); err != nil {
		s.log.Warn(ctx, "failed to clear basket after order creation")
	}

	link, err := s.createLink(ctx, order, b, params)
	if err != nil {
		return nil, err
	}
	ctx = s.log.WithOrderCode(ctx, link.OrderCode)

	payment, err := s.payments.Create(ctx, payments.CreateParams{
		UserID:        userID,
		OrderID:       &order.ID,
		Amount:        order.TotalAmount,
		Method:        enums.PaymentMethodPayOS,
		PaymentLinkID: &link.PaymentLinkID,
		OrderCode:     &link.OrderCode,
	})
	if err != nil {
		// The hosted page already exists and the user may pay against it.
		// Surface the session anyway and leave the mismatch to manual
		// reconciliation against the provider.
		s.log.Error(ctx, "payment record not persisted after link creation", err)
	} else {
		ctx = s.log.WithPaymentID(ctx, payment.ID.String())
		s.log.Info(ctx, "checkout session created")
	}

	return &StartResult{
		OrderID:       order.ID,
		OrderCode:     link.OrderCode,
		Amount:        order.TotalAmount,
		CheckoutURL:   link.CheckoutURL,
		QRCode:        link.QRCode,
		PaymentLinkID: link.PaymentLinkID,
		Status:        string(enums.PaymentStatusPending),
	}, nil
}

// createLink registers the checkout session, retrying with fresh order codes
// when the provider reports the code as already registered. The order code
// echoed back by the provider is authoritative.
func (s *Service) createLink(ctx context.Context, order *models.Order, b *basket.Basket, params StartParams) (*payos.PaymentLink, error) {
	returnURL, cancelURL := s.redirectURLs(params.Platform)

	items := make([]payos.Item, 0, len(b.Items))
	for _, item := range b.Items {
		items = append(items, payos.Item{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.UnitPrice,
		})
	}

	var lastErr error
	for attempt := 0; attempt <= duplicateCodeRetries; attempt++ {
		code := s.orderCode()
		link, err := s.provider.CreatePaymentLink(ctx, payos.CreateLinkParams{
			OrderCode:   code,
			Amount:      order.TotalAmount,
			Description: fmt.Sprintf("Trippio order %d", order.ID),
			Items:       items,
			ReturnURL:   returnURL,
			CancelURL:   cancelURL,
			BuyerName:   params.Buyer.Name,
			BuyerEmail:  params.Buyer.Email,
			BuyerPhone:  params.Buyer.Phone,
		})
		if err == nil {
			if link.OrderCode != code {
				s.log.Warn(s.log.WithOrderCode(ctx, link.OrderCode), "provider assigned a different order code")
			}
			return link, nil
		}
		lastErr = err
		if !payos.IsDuplicateOrderCode(err) {
			break
		}
		s.log.Warn(s.log.WithOrderCode(ctx, code), "provider rejected duplicate order code, retrying")
	}
	return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, lastErr, "create payment link")
}

func (s *Service) redirectURLs(platform enums.Platform) (returnURL, cancelURL string) {
	if platform == enums.PlatformMobile && s.cfg.MobileReturnURL != "" {
		return s.cfg.MobileReturnURL, s.cfg.MobileCancelURL
	}
	return s.cfg.WebReturnURL, s.cfg.WebCancelURL
}

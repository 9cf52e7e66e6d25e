// AngelaMos | 2026
// service.go

// Package billing turns processor payment notifications into the one-time
// premium upgrade and builds signed checkout requests for the frontend.
package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/carterperez-dev/weddingplanner/internal/config"
	"github.com/carterperez-dev/weddingplanner/internal/core"
	"github.com/carterperez-dev/weddingplanner/internal/entitlement"
	"github.com/carterperez-dev/weddingplanner/internal/metrics"
	"github.com/carterperez-dev/weddingplanner/internal/payhere"
)

const tracerName = "github.com/carterperez-dev/weddingplanner/internal/billing"

var (
	ErrMalformedNotification = errors.New("malformed payment notification")
	ErrInvalidSignature      = errors.New("payment notification signature mismatch")
	ErrUnknownWedding        = errors.New("payment notification references unknown wedding")
	ErrAlreadyPaid           = errors.New("wedding already paid")
)

type Outcome string

const (
	OutcomeUpgraded  Outcome = "upgraded"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeConflict  Outcome = "conflict"
	OutcomeIgnored   Outcome = "ignored"
)

// Store is the single write path for payment state.
type Store interface {
	entitlement.BillingReader
	MarkPaid(ctx context.Context, weddingID, orderID string) (bool, error)
}

type Config struct {
	MerchantID     string
	MerchantSecret string
	Currency       string
	OrderPrefix    string
	Amount         float64
	CheckoutURL    string
	NotifyURL      string
	FrontendURL    string
}

func ConfigFrom(cfg *config.Config) Config {
	public := strings.TrimRight(cfg.App.PublicURL, "/")
	frontend := strings.TrimRight(cfg.App.FrontendURL, "/")

	return Config{
		MerchantID:     cfg.PayHere.MerchantID,
		MerchantSecret: cfg.PayHere.MerchantSecret,
		Currency:       cfg.PayHere.Currency,
		OrderPrefix:    cfg.PayHere.OrderPrefix,
		Amount:         cfg.PayHere.PremiumAmount,
		CheckoutURL:    cfg.PayHere.CheckoutURL(),
		NotifyURL:      public + "/v1/payments/notify",
		FrontendURL:    frontend,
	}
}

type Notification struct {
	MerchantID string
	OrderID    string
	Amount     string
	Currency   string
	StatusCode string
	Signature  string
}

func (n Notification) complete() bool {
	return n.MerchantID != "" &&
		n.OrderID != "" &&
		n.Amount != "" &&
		n.Currency != "" &&
		n.StatusCode != "" &&
		n.Signature != ""
}

type Checkout struct {
	MerchantID  string `json:"merchant_id"`
	OrderID     string `json:"order_id"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Hash        string `json:"hash"`
	Items       string `json:"items"`
	CheckoutURL string `json:"checkout_url"`
	NotifyURL   string `json:"notify_url"`
	ReturnURL   string `json:"return_url"`
	CancelURL   string `json:"cancel_url"`
}

type Service struct {
	store  Store
	cfg    Config
	logger *slog.Logger
	tracer trace.Tracer
	now    func() time.Time
}

func NewService(store Store, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		cfg:    cfg,
		logger: logger,
		tracer: otel.Tracer(tracerName),
		now:    time.Now,
	}
}

// HandleNotification validates, authenticates and applies one notification.
// Nothing is written unless the signature checks out and the status is a
// success. Redelivery of an applied notification is harmless.
func (s *Service) HandleNotification(
	ctx context.Context,
	n Notification,
) (Outcome, error) {
	ctx, span := s.tracer.Start(ctx, "billing.HandleNotification",
		trace.WithAttributes(
			attribute.String("payment.order_id", n.OrderID),
			attribute.String("payment.status_code", n.StatusCode),
		),
	)
	defer span.End()

	outcome, err := s.handle(ctx, n)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		metrics.RecordPaymentNotification(failureLabel(err))
		return "", err
	}

	span.SetAttributes(attribute.String("payment.outcome", string(outcome)))
	metrics.RecordPaymentNotification(string(outcome))
	return outcome, nil
}

func (s *Service) handle(ctx context.Context, n Notification) (Outcome, error) {
	if !n.complete() {
		s.logger.InfoContext(ctx, "payment notification rejected",
			"reason", "missing_fields",
			"order_id", n.OrderID,
		)
		return "", fmt.Errorf("notification: %w", ErrMalformedNotification)
	}

	ref, err := payhere.ParseOrderID(n.OrderID)
	if err != nil {
		s.logger.InfoContext(ctx, "payment notification rejected",
			"reason", "malformed_order_id",
			"order_id", n.OrderID,
		)
		return "", fmt.Errorf("notification: %w: %w", ErrMalformedNotification, err)
	}

	if s.cfg.MerchantSecret == "" {
		s.logger.ErrorContext(ctx, "payment notification received but merchant secret is not configured",
			"order_id", n.OrderID,
		)
		return "", fmt.Errorf("notification: %w", payhere.ErrNotConfigured)
	}

	if !payhere.Verify(
		n.MerchantID,
		n.OrderID,
		n.Amount,
		n.Currency,
		n.StatusCode,
		n.Signature,
		s.cfg.MerchantSecret,
	) {
		s.logger.WarnContext(ctx, "payment notification signature mismatch",
			"event", "payment_signature_mismatch",
			"merchant_id", n.MerchantID,
			"order_id", n.OrderID,
			"status_code", n.StatusCode,
		)
		return "", fmt.Errorf("notification: %w", ErrInvalidSignature)
	}

	if n.StatusCode != payhere.StatusSuccess {
		s.logger.InfoContext(ctx, "payment notification acknowledged without change",
			"order_id", n.OrderID,
			"status_code", n.StatusCode,
		)
		return OutcomeIgnored, nil
	}

	applied, err := s.store.MarkPaid(ctx, ref.WeddingID, n.OrderID)
	switch {
	case errors.Is(err, core.ErrNotFound):
		s.logger.InfoContext(ctx, "payment notification rejected",
			"reason", "unknown_wedding",
			"order_id", n.OrderID,
			"wedding_id", ref.WeddingID,
		)
		return "", fmt.Errorf("notification: %w", ErrUnknownWedding)
	case errors.Is(err, core.ErrConflict):
		s.logger.WarnContext(ctx, "payment for already paid wedding, keeping original",
			"event", "payment_conflict",
			"order_id", n.OrderID,
			"wedding_id", ref.WeddingID,
		)
		return OutcomeConflict, nil
	case err != nil:
		return "", fmt.Errorf("notification: %w", err)
	}

	if !applied {
		s.logger.InfoContext(ctx, "duplicate payment notification",
			"order_id", n.OrderID,
			"wedding_id", ref.WeddingID,
		)
		return OutcomeDuplicate, nil
	}

	s.logger.InfoContext(ctx, "wedding upgraded to premium",
		"order_id", n.OrderID,
		"wedding_id", ref.WeddingID,
		"amount", n.Amount,
		"currency", n.Currency,
	)
	return OutcomeUpgraded, nil
}

func failureLabel(err error) string {
	switch {
	case errors.Is(err, ErrMalformedNotification):
		return "malformed"
	case errors.Is(err, payhere.ErrNotConfigured):
		return "not_configured"
	case errors.Is(err, ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, ErrUnknownWedding):
		return "unknown_wedding"
	default:
		return "store_error"
	}
}

// InitiateCheckout builds the signed form the frontend posts to the
// processor. It never produces an unsigned request.
func (s *Service) InitiateCheckout(
	ctx context.Context,
	weddingID string,
) (*Checkout, error) {
	if s.cfg.MerchantID == "" || s.cfg.MerchantSecret == "" {
		return nil, fmt.Errorf("initiate checkout: %w", payhere.ErrNotConfigured)
	}

	state, err := s.store.GetBillingState(ctx, weddingID)
	if err != nil {
		return nil, fmt.Errorf("initiate checkout: %w", err)
	}
	if state.PaymentID != nil && *state.PaymentID != "" {
		return nil, fmt.Errorf("initiate checkout: %w", ErrAlreadyPaid)
	}

	orderID, err := payhere.NewOrderID(s.cfg.OrderPrefix, weddingID, s.now())
	if err != nil {
		return nil, fmt.Errorf("initiate checkout: %w", err)
	}

	hash, err := payhere.Sign(
		s.cfg.MerchantID,
		orderID,
		s.cfg.Amount,
		s.cfg.Currency,
		s.cfg.MerchantSecret,
	)
	if err != nil {
		return nil, fmt.Errorf("initiate checkout: %w", err)
	}

	return &Checkout{
		MerchantID:  s.cfg.MerchantID,
		OrderID:     orderID,
		Amount:      payhere.FormatAmount(s.cfg.Amount),
		Currency:    s.cfg.Currency,
		Hash:        hash,
		Items:       "Premium",
		CheckoutURL: s.cfg.CheckoutURL,
		NotifyURL:   s.cfg.NotifyURL,
		ReturnURL:   s.billingPage(weddingID, "success"),
		CancelURL:   s.billingPage(weddingID, "cancelled"),
	}, nil
}

func (s *Service) billingPage(weddingID, status string) string {
	return s.cfg.FrontendURL + "/weddings/" + weddingID + "/billing?status=" + status
}

// AngelaMos | 2026
// handler.go

package billing

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/weddingplanner/internal/core"
	"github.com/carterperez-dev/weddingplanner/internal/entitlement"
	"github.com/carterperez-dev/weddingplanner/internal/payhere"
)

const maxNotificationBytes = 16 << 10

// Processor form field names.
const (
	fieldMerchantID = "merchant_id"
	fieldOrderID    = "order_id"
	fieldAmount     = "payhere_amount"
	fieldCurrency   = "payhere_currency"
	fieldStatusCode = "status_code"
	fieldSignature  = "md5sig"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the processor callback. It is unauthenticated; the
// signature is the authentication.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	webhookLimit func(http.Handler) http.Handler,
) {
	r.With(webhookLimit).Post("/payments/notify", h.Notify)
}

// RegisterScopedRoutes mounts routes under /weddings/{weddingID}.
func (h *Handler) RegisterScopedRoutes(r chi.Router) {
	r.Post("/checkout", h.Checkout)
}

func (h *Handler) Notify(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxNotificationBytes)
	if err := r.ParseForm(); err != nil {
		core.BadRequest(w, "invalid form body")
		return
	}

	outcome, err := h.service.HandleNotification(r.Context(), Notification{
		MerchantID: r.PostForm.Get(fieldMerchantID),
		OrderID:    r.PostForm.Get(fieldOrderID),
		Amount:     r.PostForm.Get(fieldAmount),
		Currency:   r.PostForm.Get(fieldCurrency),
		StatusCode: r.PostForm.Get(fieldStatusCode),
		Signature:  r.PostForm.Get(fieldSignature),
	})
	if err != nil {
		core.JSONError(w, paymentError(err))
		return
	}

	core.OK(w, map[string]string{"outcome": string(outcome)})
}

func paymentError(err error) *core.AppError {
	switch {
	case errors.Is(err, ErrMalformedNotification), errors.Is(err, ErrUnknownWedding):
		return core.BadRequestError("malformed payment notification")
	case errors.Is(err, ErrInvalidSignature):
		return core.NewAppError(err, "invalid signature", http.StatusForbidden, "INVALID_SIGNATURE")
	case errors.Is(err, payhere.ErrNotConfigured):
		return core.NewAppError(err, "payments are not configured", http.StatusInternalServerError, "NOT_CONFIGURED")
	default:
		return core.InternalError(err)
	}
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	checkout, err := h.service.InitiateCheckout(r.Context(), chi.URLParam(r, entitlement.WeddingIDParam))
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyPaid):
			core.Conflict(w, "wedding is already on Premium")
		case errors.Is(err, core.ErrNotFound):
			core.NotFound(w, "wedding")
		case errors.Is(err, payhere.ErrNotConfigured):
			core.JSONError(w, paymentError(err))
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.OK(w, checkout)
}

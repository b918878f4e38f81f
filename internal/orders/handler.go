package orders

import (
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/meyshop/internal/apperror"
	"github.com/joao-fontenele/meyshop/internal/auth"
	"github.com/joao-fontenele/meyshop/internal/domain"
	"github.com/joao-fontenele/meyshop/internal/httpx"
)

type Handler struct {
	service *Service
	respond *httpx.Responder
	logger  *slog.Logger
}

func NewHandler(service *Service, respond *httpx.Responder, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		respond: respond,
		logger:  logger,
	}
}

type createOrderRequest struct {
	OrderItems      []domain.OrderItem     `json:"orderItems"`
	ShippingAddress domain.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
	ItemsPrice      decimal.Decimal        `json:"itemsPrice"`
	ShippingPrice   decimal.Decimal        `json:"shippingPrice"`
	TaxPrice        decimal.Decimal        `json:"taxPrice"`
	TotalPrice      decimal.Decimal        `json:"totalPrice"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.AccountFromContext(r.Context())
	if !ok {
		h.respond.Error(w, r, apperror.ErrUnauthorized)
		return
	}

	var req createOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.respond.Error(w, r, err)
		return
	}

	order, err := h.service.Create(r.Context(), actor, domain.NewOrder{
		Items:           req.OrderItems,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		Prices: domain.Prices{
			ItemsPrice:    req.ItemsPrice,
			ShippingPrice: req.ShippingPrice,
			TaxPrice:      req.TaxPrice,
			TotalPrice:    req.TotalPrice,
		},
	})
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}

	h.respond.JSON(w, http.StatusCreated, order)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.AccountFromContext(r.Context())
	if !ok {
		h.respond.Error(w, r, apperror.ErrUnauthorized)
		return
	}

	order, err := h.service.Get(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}

	h.respond.JSON(w, http.StatusOK, order)
}

func (h *Handler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.AccountFromContext(r.Context())
	if !ok {
		h.respond.Error(w, r, apperror.ErrUnauthorized)
		return
	}

	orders, err := h.service.ListMine(r.Context(), actor)
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}

	h.respond.JSON(w, http.StatusOK, orders)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListAll(r.Context())
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "orders listed", "count", len(orders))
	h.respond.JSON(w, http.StatusOK, orders)
}

// payRequest is the capture payload forwarded by the payment button.
type payRequest struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	UpdateTime string `json:"update_time"`
	Payer      struct {
		EmailAddress string `json:"email_address"`
	} `json:"payer"`
}

func (h *Handler) HandlePay(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.AccountFromContext(r.Context())
	if !ok {
		h.respond.Error(w, r, apperror.ErrUnauthorized)
		return
	}

	var req payRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.respond.Error(w, r, err)
		return
	}

	order, err := h.service.MarkPaid(r.Context(), actor, r.PathValue("id"), domain.PaymentResult{
		ID:           req.ID,
		Status:       req.Status,
		UpdateTime:   req.UpdateTime,
		EmailAddress: req.Payer.EmailAddress,
	})
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}

	h.respond.JSON(w, http.StatusOK, order)
}

func (h *Handler) HandleDeliver(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.MarkDelivered(r.Context(), r.PathValue("id"))
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}

	h.respond.JSON(w, http.StatusOK, order)
}

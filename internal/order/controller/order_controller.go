package controller

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"stockledger/internal/domain"
	"stockledger/internal/dto"
	apperrors "stockledger/internal/errors"
	"stockledger/internal/httpapi"
	"stockledger/internal/order/usecase"
)

type OrderUseCase interface {
	CreateOrder(ctx context.Context, input usecase.CreateOrderInput) (*domain.Order, error)
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error)
	UpdateOrder(ctx context.Context, orderID string, input usecase.UpdateOrderInput) (*domain.Order, error)
	CancelOrder(ctx context.Context, orderID string) error
	TransitionStatus(ctx context.Context, orderID string, to domain.PreparationStatus) (*domain.Order, error)
	UpdateTracking(ctx context.Context, orderID string, input usecase.TrackingInput) (*domain.Order, error)
}

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type OrderController struct {
	useCase OrderUseCase
}

func NewOrderController(useCase OrderUseCase) *OrderController {
	return &OrderController{useCase: useCase}
}

func (c *OrderController) Routes(r chi.Router) {
	r.Post("/", c.Create)
	r.Get("/", c.List)
	r.Route("/{orderId}", func(r chi.Router) {
		r.Get("/", c.Get)
		r.Put("/", c.Update)
		r.Delete("/", c.Cancel)
		r.Patch("/status", c.TransitionStatus)
		r.Patch("/tracking", c.UpdateTracking)
	})
}

func (c *OrderController) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateOrderRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.WriteError(w, r, err)
		return
	}

	order, err := c.useCase.CreateOrder(r.Context(), usecase.CreateOrderInput{
		CustomerName:    req.CustomerName,
		PhoneNumber:     req.PhoneNumber,
		ShippingMethod:  req.ShippingMethod,
		ShippingAddress: req.ShippingAddress,
		DeliveryNotes:   req.DeliveryNotes,
		OrderDate:       req.OrderDate,
		DiscountAmount:  req.DiscountAmount,
		Items:           itemInputs(req.Items),
	})
	if err != nil {
		httpapi.WriteError(w, r, err)
		return
	}

	httpapi.Logger(r.Context()).Info("order created", zap.String("orderId", order.ID))
	httpapi.WriteJSON(w, r, http.StatusCreated, dto.NewOrderResponse(*order))
}

func (c *OrderController) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := domain.OrderFilter{
		Status: domain.PreparationStatus(query.Get("status")),
		Limit:  defaultListLimit,
	}
	if filter.Status != "" && !filter.Status.Valid() {
		httpapi.WriteValidationError(w, r, "invalid status filter", apperrors.ValidationDetail{
			Field:   "status",
			Message: "status must be one of Pending, Pending-Date, Prepared, Sent",
		})
		return
	}

	var details []apperrors.ValidationDetail
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxListLimit {
			details = append(details, apperrors.ValidationDetail{Field: "limit", Message: "limit must be between 1 and 200"})
		}
		filter.Limit = limit
	}
	if raw := query.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			details = append(details, apperrors.ValidationDetail{Field: "offset", Message: "offset must be a non-negative integer"})
		}
		filter.Offset = offset
	}
	if len(details) > 0 {
		httpapi.WriteValidationError(w, r, "invalid pagination", details...)
		return
	}

	orders, err := c.useCase.ListOrders(r.Context(), filter)
	if err != nil {
		httpapi.WriteError(w, r, err)
		return
	}

	resp := dto.OrderListResponse{
		TraceID: httpapi.TraceID(r.Context()),
		Orders:  make([]dto.OrderResponse, len(orders)),
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	}
	for i, o := range orders {
		resp.Orders[i] = dto.NewOrderResponse(o)
	}
	httpapi.WriteJSON(w, r, http.StatusOK, resp)
}

func (c *OrderController) Get(w http.ResponseWriter, r *http.Request) {
	order, err := c.useCase.GetOrder(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		httpapi.WriteError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, r, http.StatusOK, dto.NewOrderResponse(*order))
}

func (c *OrderController) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateOrderRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.WriteError(w, r, err)
		return
	}

	order, err := c.useCase.UpdateOrder(r.Context(), chi.URLParam(r, "orderId"), usecase.UpdateOrderInput{
		CustomerName:    req.CustomerName,
		PhoneNumber:     req.PhoneNumber,
		ShippingMethod:  req.ShippingMethod,
		ShippingAddress: req.ShippingAddress,
		DeliveryNotes:   req.DeliveryNotes,
		DiscountAmount:  req.DiscountAmount,
		Items:           itemInputs(req.Items),
	})
	if err != nil {
		httpapi.WriteError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, r, http.StatusOK, dto.NewOrderResponse(*order))
}

func (c *OrderController) Cancel(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	if err := c.useCase.CancelOrder(r.Context(), orderID); err != nil {
		httpapi.WriteError(w, r, err)
		return
	}

	httpapi.Logger(r.Context()).Info("order cancelled", zap.String("orderId", orderID))
	w.WriteHeader(http.StatusNoContent)
}

func (c *OrderController) TransitionStatus(w http.ResponseWriter, r *http.Request) {
	var req dto.TransitionStatusRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.WriteError(w, r, err)
		return
	}

	order, err := c.useCase.TransitionStatus(r.Context(), chi.URLParam(r, "orderId"), domain.PreparationStatus(req.Status))
	if err != nil {
		httpapi.WriteError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, r, http.StatusOK, dto.NewOrderResponse(*order))
}

func (c *OrderController) UpdateTracking(w http.ResponseWriter, r *http.Request) {
	var req dto.TrackingRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.WriteError(w, r, err)
		return
	}

	order, err := c.useCase.UpdateTracking(r.Context(), chi.URLParam(r, "orderId"), usecase.TrackingInput{
		IsConfirmed:         req.IsConfirmed,
		IsAccepted:          req.IsAccepted,
		ShippingCost:        req.ShippingCost,
		PacketNumber:        req.PacketNumber,
		PackageSentDate:     req.PackageSentDate,
		PackageReceivedDate: req.PackageReceivedDate,
		LastPickupDate:      req.LastPickupDate,
	})
	if err != nil {
		httpapi.WriteError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, r, http.StatusOK, dto.NewOrderResponse(*order))
}

func itemInputs(items []dto.OrderItemRequest) []usecase.ItemInput {
	if items == nil {
		return nil
	}
	inputs := make([]usecase.ItemInput, len(items))
	for i, item := range items {
		inputs[i] = usecase.ItemInput{
			ProductVariantID: item.ProductVariantID,
			Quantity:         item.Quantity,
			UnitPrice:        item.UnitPrice,
		}
	}
	return inputs
}

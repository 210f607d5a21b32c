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
)

type LedgerService interface {
	GetVariant(ctx context.Context, variantID string) (*domain.ProductVariant, error)
	AdjustStock(ctx context.Context, variantID string, delta int, reason string) (*domain.ProductVariant, error)
	ListMovements(ctx context.Context, filter domain.MovementFilter) ([]domain.StockMovement, error)
}

const (
	defaultMovementLimit = 100
	maxMovementLimit     = 500
)

type LedgerController struct {
	service LedgerService
}

func NewLedgerController(service LedgerService) *LedgerController {
	return &LedgerController{service: service}
}

// Routes expects to be mounted under a path carrying {variantId}.
func (c *LedgerController) Routes(r chi.Router) {
	r.Get("/", c.Get)
	r.Post("/adjust", c.Adjust)
	r.Get("/movements", c.Movements)
}

func (c *LedgerController) Get(w http.ResponseWriter, r *http.Request) {
	v, err := c.service.GetVariant(r.Context(), chi.URLParam(r, "variantId"))
	if err != nil {
		httpapi.WriteError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, r, http.StatusOK, dto.NewVariantResponse(*v))
}

func (c *LedgerController) Adjust(w http.ResponseWriter, r *http.Request) {
	var req dto.AdjustStockRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.WriteError(w, r, err)
		return
	}

	variantID := chi.URLParam(r, "variantId")
	v, err := c.service.AdjustStock(r.Context(), variantID, req.Delta, req.Reason)
	if err != nil {
		httpapi.WriteError(w, r, err)
		return
	}

	httpapi.Logger(r.Context()).Info("stock adjusted via api",
		zap.String("variantId", variantID),
		zap.Int("delta", req.Delta),
	)
	httpapi.WriteJSON(w, r, http.StatusOK, dto.NewVariantResponse(*v))
}

func (c *LedgerController) Movements(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := domain.MovementFilter{
		VariantID:     chi.URLParam(r, "variantId"),
		Type:          domain.MovementType(query.Get("type")),
		ReferenceType: query.Get("referenceType"),
		ReferenceID:   query.Get("referenceId"),
		Limit:         defaultMovementLimit,
	}

	var details []apperrors.ValidationDetail
	if filter.Type != "" && !filter.Type.Valid() {
		details = append(details, apperrors.ValidationDetail{
			Field:   "type",
			Message: "type must be one of IN, OUT, ADJUSTMENT, RESERVED, RELEASED",
		})
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxMovementLimit {
			details = append(details, apperrors.ValidationDetail{Field: "limit", Message: "limit must be between 1 and 500"})
		}
		filter.Limit = limit
	}
	if len(details) > 0 {
		httpapi.WriteValidationError(w, r, "invalid movement filter", details...)
		return
	}

	if _, err := c.service.GetVariant(r.Context(), filter.VariantID); err != nil {
		httpapi.WriteError(w, r, err)
		return
	}

	movements, err := c.service.ListMovements(r.Context(), filter)
	if err != nil {
		httpapi.WriteError(w, r, err)
		return
	}

	resp := dto.MovementListResponse{
		TraceID:   httpapi.TraceID(r.Context()),
		Movements: make([]dto.MovementResponse, len(movements)),
	}
	for i, m := range movements {
		resp.Movements[i] = dto.NewMovementResponse(m)
	}
	httpapi.WriteJSON(w, r, http.StatusOK, resp)
}

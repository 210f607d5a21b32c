package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"stockledger/internal/domain"
	"stockledger/internal/dto"
	apperrors "stockledger/internal/errors"
	"stockledger/internal/httpapi"
	"stockledger/internal/sales/service"
)

type SalesService interface {
	GetSalesSummary(ctx context.Context, rng *domain.DateRange) (*service.SalesSummary, error)
}

type SalesController struct {
	service SalesService
}

func NewSalesController(service SalesService) *SalesController {
	return &SalesController{service: service}
}

func (c *SalesController) Routes(r chi.Router) {
	r.Get("/summary", c.Summary)
}

func (c *SalesController) Summary(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var rng domain.DateRange
	var details []apperrors.ValidationDetail
	for _, bound := range []struct {
		field string
		dest  **time.Time
	}{
		{field: "from", dest: &rng.From},
		{field: "to", dest: &rng.To},
	} {
		raw := query.Get(bound.field)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			details = append(details, apperrors.ValidationDetail{
				Field:   bound.field,
				Message: bound.field + " must be an RFC3339 timestamp",
			})
			continue
		}
		t = t.UTC()
		*bound.dest = &t
	}
	if len(details) > 0 {
		httpapi.WriteValidationError(w, r, "invalid date range", details...)
		return
	}

	summary, err := c.service.GetSalesSummary(r.Context(), &rng)
	if err != nil {
		httpapi.WriteError(w, r, err)
		return
	}

	resp := dto.SalesSummaryResponse{
		TraceID:      httpapi.TraceID(r.Context()),
		From:         rng.From,
		To:           rng.To,
		OrderCount:   summary.OrderCount,
		Revenue:      summary.Revenue,
		CapitalCost:  summary.CapitalCost,
		ShippingCost: summary.ShippingCost,
		Profit:       summary.Profit,
		TopProducts:  make([]dto.ProductSalesResponse, len(summary.TopProducts)),
	}
	for i, p := range summary.TopProducts {
		resp.TopProducts[i] = dto.ProductSalesResponse{
			ProductID:    p.ProductID,
			ProductName:  p.ProductName,
			ColorName:    p.ColorName,
			QuantitySold: p.QuantitySold,
			Revenue:      p.Revenue,
			CapitalCost:  p.CapitalCost,
			Profit:       p.Profit,
		}
	}
	httpapi.WriteJSON(w, r, http.StatusOK, resp)
}

package controller

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"stockledger/internal/domain"
	"stockledger/internal/dto"
	"stockledger/internal/httpapi"
	"stockledger/internal/product/usecase"
)

type ProductUseCase interface {
	CreateProduct(ctx context.Context, input usecase.CreateProductInput) (*domain.ProductWithVariants, error)
	ListProducts(ctx context.Context) ([]domain.ProductWithVariants, error)
	UpdateVariant(ctx context.Context, variantID string, patch usecase.VariantPatch) (*domain.ProductVariant, error)
}

type ProductController struct {
	useCase ProductUseCase
}

func NewProductController(useCase ProductUseCase) *ProductController {
	return &ProductController{useCase: useCase}
}

func (c *ProductController) Routes(r chi.Router) {
	r.Post("/", c.Create)
	r.Get("/", c.List)
}

func (c *ProductController) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateProductRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.WriteError(w, r, err)
		return
	}

	input := usecase.CreateProductInput{
		Name:        req.Name,
		Code:        req.Code,
		Category:    req.Category,
		BasePrice:   req.BasePrice,
		Description: req.Description,
		Variants:    make([]usecase.VariantInput, len(req.Variants)),
	}
	for i, v := range req.Variants {
		input.Variants[i] = usecase.VariantInput{
			ColorName:    v.ColorName,
			ColorCode:    v.ColorCode,
			InitialStock: v.InitialStock,
			ReorderLevel: v.ReorderLevel,
			UnitPrice:    v.UnitPrice,
			Notes:        v.Notes,
		}
	}

	p, err := c.useCase.CreateProduct(r.Context(), input)
	if err != nil {
		httpapi.WriteError(w, r, err)
		return
	}

	httpapi.Logger(r.Context()).Info("product created", zap.String("productId", p.ID))
	httpapi.WriteJSON(w, r, http.StatusCreated, dto.NewProductResponse(*p))
}

func (c *ProductController) List(w http.ResponseWriter, r *http.Request) {
	products, err := c.useCase.ListProducts(r.Context())
	if err != nil {
		httpapi.WriteError(w, r, err)
		return
	}

	resp := dto.ProductListResponse{
		TraceID:  httpapi.TraceID(r.Context()),
		Products: make([]dto.ProductResponse, len(products)),
	}
	for i, p := range products {
		resp.Products[i] = dto.NewProductResponse(p)
	}
	httpapi.WriteJSON(w, r, http.StatusOK, resp)
}

func (c *ProductController) UpdateVariant(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateVariantRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.WriteError(w, r, err)
		return
	}

	v, err := c.useCase.UpdateVariant(r.Context(), chi.URLParam(r, "variantId"), usecase.VariantPatch{
		ColorName:    req.ColorName,
		ColorCode:    req.ColorCode,
		ReorderLevel: req.ReorderLevel,
		UnitPrice:    req.UnitPrice,
		Notes:        req.Notes,
		IsActive:     req.IsActive,
	})
	if err != nil {
		httpapi.WriteError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, r, http.StatusOK, dto.NewVariantResponse(*v))
}

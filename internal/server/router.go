package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"

	"stockledger/internal/httpapi"
	ledgercontroller "stockledger/internal/ledger/controller"
	"stockledger/internal/metrics"
	ordercontroller "stockledger/internal/order/controller"
	productcontroller "stockledger/internal/product/controller"
	salescontroller "stockledger/internal/sales/controller"
)

type RouterParams struct {
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
	RateLimit int

	Orders   *ordercontroller.OrderController
	Products *productcontroller.ProductController
	Ledger   *ledgercontroller.LedgerController
	Sales    *salescontroller.SalesController
}

func NewRouter(p RouterParams) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if p.RateLimit > 0 {
		r.Use(httprate.Limit(p.RateLimit, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
	}
	r.Use(p.Metrics.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", p.Metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httpapi.Trace(p.Logger))
		r.Use(httpapi.Actor)

		r.Route("/orders", p.Orders.Routes)
		r.Route("/products", p.Products.Routes)
		r.Route("/variants/{variantId}", func(r chi.Router) {
			r.Patch("/", p.Products.UpdateVariant)
			p.Ledger.Routes(r)
		})
		r.Route("/sales", p.Sales.Routes)
	})

	return r
}

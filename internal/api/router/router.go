package router

import (
	"net/http"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/api"
	m "github.com/RoyceAzure/lab/storefront/internal/api/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

type Options struct {
	// login 與 checkout 的限流，nil 代表不限流
	Limiter        m.Limiter
	RequestTimeout time.Duration
}

func SetupRouter(server *api.Server, verifier m.TokenVerifier, opts Options, logger *zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// 全局中間件
	r.Use(m.RequestIdMiddleware)
	r.Use(middleware.RealIP)
	r.Use(m.AuthPayloadMiddleware(verifier))
	r.Use(m.LoggerMiddleware(logger))
	r.Use(m.RecoverMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api/v1", func(r chi.Router) {
		// websocket 不套 timeout
		r.Get("/feed", server.FeedHandler.Subscribe)

		r.Group(func(r chi.Router) {
			if opts.RequestTimeout > 0 {
				r.Use(middleware.Timeout(opts.RequestTimeout))
			}

			r.Route("/products", func(r chi.Router) {
				r.Get("/", server.ProductHandler.List)
				r.Get("/featured", server.ProductHandler.Featured)
				r.Get("/{id}", server.ProductHandler.Get)
			})
			r.Get("/categories", server.ProductHandler.Categories)
			r.Get("/couriers", server.CheckoutHandler.Couriers)
			r.Get("/payment-methods", server.CheckoutHandler.PaymentMethods)
			r.Get("/settings", server.SettingsHandler.Get)
			r.Get("/orders/{id}/track", server.OrderHandler.Track)

			r.Group(func(r chi.Router) {
				r.Use(m.SessionMiddleware)
				r.Route("/cart", func(r chi.Router) {
					r.Get("/", server.CartHandler.Get)
					r.Delete("/", server.CartHandler.Clear)
					r.Post("/items", server.CartHandler.AddItem)
					r.Patch("/items/{productID}", server.CartHandler.UpdateQuantity)
					r.Delete("/items/{productID}", server.CartHandler.RemoveItem)
				})
				r.Route("/checkout", func(r chi.Router) {
					r.Get("/quote", server.CheckoutHandler.Quote)
					r.With(m.RateLimitMiddleware(opts.Limiter, "checkout")).Post("/", server.CheckoutHandler.Submit)
				})
			})

			r.Route("/auth", func(r chi.Router) {
				r.With(m.RateLimitMiddleware(opts.Limiter, "login")).Post("/login", server.AuthHandler.Login)
				r.With(m.AuthMiddleware).Get("/me", server.AuthHandler.Me)
			})
			r.With(m.AuthMiddleware).Get("/me/orders", server.OrderHandler.MyOrders)

			r.Route("/admin", func(r chi.Router) {
				r.Use(m.AdminMiddleware)
				r.Get("/dashboard", server.AdminHandler.Dashboard)
				r.Route("/products", func(r chi.Router) {
					r.Post("/", server.AdminHandler.CreateProduct)
					r.Put("/{id}", server.AdminHandler.UpdateProduct)
					r.Delete("/{id}", server.AdminHandler.DeleteProduct)
					r.Post("/{id}/images", server.AdminHandler.UploadImage)
				})
				r.Route("/orders", func(r chi.Router) {
					r.Get("/", server.AdminHandler.ListOrders)
					r.Get("/stats", server.AdminHandler.OrderStats)
					r.Get("/export.csv", server.AdminHandler.ExportCSV)
					r.Get("/export.xlsx", server.AdminHandler.ExportXLSX)
					r.Get("/{id}", server.AdminHandler.GetOrder)
					r.Patch("/{id}/status", server.AdminHandler.UpdateOrderStatus)
					r.Delete("/{id}", server.AdminHandler.DeleteOrder)
				})
				r.Put("/settings", server.SettingsHandler.Update)
			})
		})
	})
	return r
}

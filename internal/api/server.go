package api

import "github.com/RoyceAzure/lab/storefront/internal/api/handler"

type Server struct {
	ProductHandler  *handler.ProductHandler
	CartHandler     *handler.CartHandler
	CheckoutHandler *handler.CheckoutHandler
	OrderHandler    *handler.OrderHandler
	SettingsHandler *handler.SettingsHandler
	AuthHandler     *handler.AuthHandler
	AdminHandler    *handler.AdminHandler
	FeedHandler     *handler.FeedHandler
}

func NewServer(
	productHandler *handler.ProductHandler,
	cartHandler *handler.CartHandler,
	checkoutHandler *handler.CheckoutHandler,
	orderHandler *handler.OrderHandler,
	settingsHandler *handler.SettingsHandler,
	authHandler *handler.AuthHandler,
	adminHandler *handler.AdminHandler,
	feedHandler *handler.FeedHandler,
) *Server {
	return &Server{
		ProductHandler:  productHandler,
		CartHandler:     cartHandler,
		CheckoutHandler: checkoutHandler,
		OrderHandler:    orderHandler,
		SettingsHandler: settingsHandler,
		AuthHandler:     authHandler,
		AdminHandler:    adminHandler,
		FeedHandler:     feedHandler,
	}
}

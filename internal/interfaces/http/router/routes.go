package router

import (
	"github.com/commerce/backend/internal/infrastructure/cache"
	"github.com/commerce/backend/internal/interfaces/http/handler"
	"github.com/commerce/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Permission resources checked on admin routes. The action follows the
// HTTP method: read, create, update or delete.
const (
	ResourceUsers           = "users"
	ResourceRoles           = "roles"
	ResourceCurrencies      = "currencies"
	ResourceRegions         = "regions"
	ResourceSalesChannels   = "sales_channels"
	ResourceStore           = "store"
	ResourceCustomers       = "customers"
	ResourceCustomerGroups  = "customer_groups"
	ResourceProducts        = "products"
	ResourcePriceLists      = "price_lists"
	ResourceTaxes           = "taxes"
	ResourcePromotions      = "promotions"
	ResourceShippingOptions = "shipping_options"
	ResourceStockLocations  = "stock_locations"
	ResourceInventory       = "inventory"
	ResourceOrders          = "orders"
	ResourcePayments        = "payments"
	ResourceUploads         = "uploads"
)

// Handlers holds every HTTP handler mounted under the API prefix
type Handlers struct {
	Auth           *handler.AuthHandler
	User           *handler.UserHandler
	Role           *handler.RoleHandler
	Currency       *handler.CurrencyHandler
	Region         *handler.RegionHandler
	Store          *handler.StoreHandler
	Customer       *handler.CustomerHandler
	Product        *handler.ProductHandler
	ProductImport  *handler.ProductImportHandler
	PriceList      *handler.PriceListHandler
	Tax            *handler.TaxHandler
	Promotion      *handler.PromotionHandler
	ShippingOption *handler.ShippingOptionHandler
	Inventory      *handler.InventoryHandler
	Order          *handler.OrderHandler
	Payment        *handler.PaymentHandler
	Cart           *handler.CartHandler
	Upload         *handler.UploadHandler
}

// RoutesConfig configures the API route groups
type RoutesConfig struct {
	Handlers      Handlers
	Authenticator middleware.Authenticator
	// AuthLimiter throttles login, refresh and password reset per client IP. Optional.
	AuthLimiter cache.RateLimiter
	Logger      *zap.Logger
}

// Groups builds the route groups of the API: auth, admin, store and uploads
func Groups(cfg RoutesConfig) []RouteRegistrar {
	h := cfg.Handlers
	requireAuth := middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		Authenticator: cfg.Authenticator,
		Logger:        cfg.Logger,
	})
	permission := func(resource string) gin.HandlerFunc {
		return middleware.RequireResourceWithConfig(resource, middleware.PermissionConfig{Logger: cfg.Logger})
	}

	return []RouteRegistrar{
		authRoutes(h.Auth, requireAuth, cfg.AuthLimiter),
		adminRoutes(h, requireAuth, permission),
		storeRoutes(h),
		NewDomainGroup("uploads", "/uploads").
			Use(requireAuth, permission(ResourceUploads)).
			POST("", h.Upload.Upload).
			DELETE("", h.Upload.Delete),
	}
}

func authRoutes(h *handler.AuthHandler, requireAuth gin.HandlerFunc, limiter cache.RateLimiter) *DomainGroup {
	public := []gin.HandlerFunc{}
	if limiter != nil {
		public = append(public, middleware.RateLimitByKey(limiter, func(c *gin.Context) string {
			return "auth:" + c.ClientIP()
		}))
	}
	with := func(handlers ...gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, public...), handlers...)
	}

	g := NewDomainGroup("auth", "/auth")
	g.POST("/login", with(h.Login)...)
	g.POST("/refresh", with(h.Refresh)...)
	g.POST("/password-reset/request", with(h.RequestPasswordReset)...)
	g.POST("/password-reset/confirm", with(h.ConfirmPasswordReset)...)

	session := g.Group("session", "").Use(requireAuth)
	session.POST("/logout", h.Logout)
	session.POST("/logout-all", h.LogoutAll)
	session.GET("/me", h.Me)
	session.POST("/change-password", h.ChangePassword)
	return g
}

func adminRoutes(h Handlers, requireAuth gin.HandlerFunc, permission func(string) gin.HandlerFunc) *DomainGroup {
	admin := NewDomainGroup("admin", "/admin").Use(requireAuth)

	admin.Group("users", "/users").Use(permission(ResourceUsers)).
		POST("", h.User.Create).
		GET("", h.User.List).
		GET("/:id", h.User.GetByID).
		PUT("/:id", h.User.Update).
		DELETE("/:id", h.User.Delete).
		POST("/:id/activate", h.User.Activate).
		POST("/:id/deactivate", h.User.Deactivate).
		POST("/:id/roles", h.User.AssignRoles).
		DELETE("/:id/roles", h.User.RemoveRoles)

	admin.Group("roles", "/roles").Use(permission(ResourceRoles)).
		POST("", h.Role.Create).
		GET("", h.Role.List).
		GET("/:id", h.Role.GetByID).
		PUT("/:id", h.Role.Update).
		DELETE("/:id", h.Role.Delete)

	admin.Group("currencies", "/currencies").Use(permission(ResourceCurrencies)).
		POST("", h.Currency.Create).
		GET("", h.Currency.List).
		GET("/:code", h.Currency.Get)

	admin.Group("regions", "/regions").Use(permission(ResourceRegions)).
		POST("", h.Region.Create).
		GET("", h.Region.List).
		GET("/:id", h.Region.Get).
		PUT("/:id", h.Region.Update).
		DELETE("/:id", h.Region.Delete).
		POST("/:id/countries", h.Region.AddCountries).
		DELETE("/:id/countries", h.Region.RemoveCountries)

	admin.Group("countries", "/countries").Use(permission(ResourceRegions)).
		GET("", h.Region.ListCountries)

	admin.Group("sales-channels", "/sales-channels").Use(permission(ResourceSalesChannels)).
		POST("", h.Store.CreateSalesChannel).
		GET("", h.Store.ListSalesChannels).
		GET("/:id", h.Store.GetSalesChannel).
		PUT("/:id", h.Store.UpdateSalesChannel).
		DELETE("/:id", h.Store.DeleteSalesChannel)

	admin.Group("store", "/store").Use(permission(ResourceStore)).
		GET("", h.Store.Get).
		PUT("", h.Store.Update)

	admin.Group("customers", "/customers").Use(permission(ResourceCustomers)).
		POST("", h.Customer.Create).
		GET("", h.Customer.List).
		GET("/:id", h.Customer.GetByID).
		PUT("/:id", h.Customer.Update).
		DELETE("/:id", h.Customer.Delete).
		POST("/:id/addresses", h.Customer.AddAddress).
		DELETE("/:id/addresses/:address_id", h.Customer.RemoveAddress)

	admin.Group("customer-groups", "/customer-groups").Use(permission(ResourceCustomerGroups)).
		POST("", h.Customer.CreateGroup).
		GET("", h.Customer.ListGroups).
		GET("/:id", h.Customer.GetGroup).
		PUT("/:id", h.Customer.UpdateGroup).
		DELETE("/:id", h.Customer.DeleteGroup).
		POST("/:id/customers", h.Customer.AddGroupCustomers).
		DELETE("/:id/customers", h.Customer.RemoveGroupCustomers)

	admin.Group("products", "/products").Use(permission(ResourceProducts)).
		POST("", h.Product.Create).
		POST("/import", h.ProductImport.Import).
		GET("", h.Product.List).
		GET("/:id", h.Product.GetByID).
		PUT("/:id", h.Product.Update).
		DELETE("/:id", h.Product.Delete).
		POST("/:id/options", h.Product.AddOption).
		DELETE("/:id/options/:option_id", h.Product.RemoveOption).
		POST("/:id/variants", h.Product.AddVariant).
		PUT("/:id/variants/:variant_id", h.Product.UpdateVariant).
		DELETE("/:id/variants/:variant_id", h.Product.RemoveVariant).
		GET("/:id/variants/:variant_id/prices", h.Product.GetVariantPrices).
		PUT("/:id/variants/:variant_id/prices", h.Product.SetVariantPrices).
		POST("/:id/variants/:variant_id/inventory-item", h.Product.LinkInventoryItem)

	admin.Group("price-lists", "/price-lists").Use(permission(ResourcePriceLists)).
		POST("", h.PriceList.Create).
		GET("", h.PriceList.List).
		GET("/:id", h.PriceList.Get).
		PUT("/:id", h.PriceList.Update).
		DELETE("/:id", h.PriceList.Delete)

	admin.Group("tax-regions", "/tax-regions").Use(permission(ResourceTaxes)).
		POST("", h.Tax.CreateRegion).
		GET("", h.Tax.ListRegions).
		GET("/:id", h.Tax.GetRegion).
		DELETE("/:id", h.Tax.DeleteRegion)

	admin.Group("tax-rates", "/tax-rates").Use(permission(ResourceTaxes)).
		POST("", h.Tax.CreateRate).
		GET("", h.Tax.ListRates).
		GET("/:id", h.Tax.GetRate).
		PUT("/:id", h.Tax.UpdateRate).
		DELETE("/:id", h.Tax.DeleteRate)

	admin.Group("promotions", "/promotions").Use(permission(ResourcePromotions)).
		POST("", h.Promotion.Create).
		GET("", h.Promotion.List).
		GET("/:id", h.Promotion.Get).
		PUT("/:id", h.Promotion.Update).
		DELETE("/:id", h.Promotion.Delete)

	admin.Group("campaigns", "/campaigns").Use(permission(ResourcePromotions)).
		POST("", h.Promotion.CreateCampaign).
		GET("", h.Promotion.ListCampaigns).
		GET("/:id", h.Promotion.GetCampaign).
		PUT("/:id", h.Promotion.UpdateCampaign).
		DELETE("/:id", h.Promotion.DeleteCampaign)

	admin.Group("shipping-options", "/shipping-options").Use(permission(ResourceShippingOptions)).
		POST("", h.ShippingOption.Create).
		GET("", h.ShippingOption.List).
		GET("/:id", h.ShippingOption.Get).
		PUT("/:id", h.ShippingOption.Update).
		DELETE("/:id", h.ShippingOption.Delete)

	admin.Group("stock-locations", "/stock-locations").Use(permission(ResourceStockLocations)).
		POST("", h.Inventory.CreateLocation).
		GET("", h.Inventory.ListLocations).
		GET("/:id", h.Inventory.GetLocation).
		PUT("/:id", h.Inventory.UpdateLocation).
		DELETE("/:id", h.Inventory.DeleteLocation)

	admin.Group("inventory-items", "/inventory-items").Use(permission(ResourceInventory)).
		POST("", h.Inventory.CreateItem).
		GET("", h.Inventory.ListItems).
		GET("/:id", h.Inventory.GetItem).
		PUT("/:id", h.Inventory.UpdateItem).
		DELETE("/:id", h.Inventory.DeleteItem).
		GET("/:id/location-levels", h.Inventory.ListLevels).
		POST("/:id/location-levels", h.Inventory.CreateLevel).
		PUT("/:id/location-levels/:location_id", h.Inventory.UpdateLevel).
		POST("/:id/adjust", h.Inventory.Adjust)

	admin.Group("reservations", "/reservations").Use(permission(ResourceInventory)).
		POST("", h.Inventory.CreateReservation).
		GET("", h.Inventory.ListReservations).
		DELETE("/:id", h.Inventory.DeleteReservation)

	admin.Group("orders", "/orders").Use(permission(ResourceOrders)).
		GET("", h.Order.List).
		GET("/:id", h.Order.Get).
		POST("/:id/cancel", h.Order.Cancel).
		POST("/:id/complete", h.Order.Complete).
		POST("/:id/archive", h.Order.Archive).
		POST("/:id/capture", h.Order.CapturePayment).
		GET("/:id/fulfillments", h.Order.ListFulfillments).
		POST("/:id/fulfillments", h.Order.CreateFulfillment).
		POST("/:id/fulfillments/:fulfillment_id/ship", h.Order.ShipFulfillment).
		POST("/:id/fulfillments/:fulfillment_id/deliver", h.Order.MarkDelivered).
		POST("/:id/fulfillments/:fulfillment_id/cancel", h.Order.CancelFulfillment).
		GET("/:id/returns", h.Order.ListReturns).
		POST("/:id/returns", h.Order.RequestReturn).
		POST("/:id/returns/:return_id/receive", h.Order.ReceiveReturn).
		POST("/:id/returns/:return_id/cancel", h.Order.CancelReturn)

	admin.Group("payments", "/payments").Use(permission(ResourcePayments)).
		GET("", h.Payment.List).
		POST("/:id/capture", h.Payment.Capture).
		POST("/:id/refund", h.Payment.Refund).
		POST("/:id/cancel", h.Payment.Cancel)

	admin.Group("payment-collections", "/payment-collections").Use(permission(ResourcePayments)).
		GET("/:id", h.Payment.GetCollection)

	return admin
}

func storeRoutes(h Handlers) *DomainGroup {
	store := NewDomainGroup("store", "/store")

	store.GET("/regions", h.Region.List)
	store.GET("/regions/:id", h.Region.Get)

	store.GET("/products", h.Product.StoreList)
	store.GET("/products/:id", h.Product.StoreGet)
	store.POST("/prices/calculate", h.Product.CalculatePrices)

	store.Group("carts", "/carts").
		POST("", h.Cart.Create).
		GET("/:id", h.Cart.Get).
		POST("/:id", h.Cart.Update).
		POST("/:id/line-items", h.Cart.AddLineItem).
		POST("/:id/line-items/:line_id", h.Cart.UpdateLineItem).
		DELETE("/:id/line-items/:line_id", h.Cart.RemoveLineItem).
		GET("/:id/shipping-options", h.Cart.ListShippingOptions).
		POST("/:id/shipping-methods", h.Cart.AddShippingMethod).
		POST("/:id/promotions", h.Cart.ApplyPromotions).
		DELETE("/:id/promotions", h.Cart.RemovePromotions).
		POST("/:id/complete", h.Cart.Complete)

	store.GET("/orders/:id", h.Order.StoreGet)
	return store
}

package bootstrap

import (
	"context"

	cartapp "github.com/commerce/backend/internal/application/cart"
	catalogapp "github.com/commerce/backend/internal/application/catalog"
	checkoutapp "github.com/commerce/backend/internal/application/checkout"
	currencyapp "github.com/commerce/backend/internal/application/currency"
	customerapp "github.com/commerce/backend/internal/application/customer"
	fulfillmentapp "github.com/commerce/backend/internal/application/fulfillment"
	identityapp "github.com/commerce/backend/internal/application/identity"
	inventoryapp "github.com/commerce/backend/internal/application/inventory"
	orderapp "github.com/commerce/backend/internal/application/order"
	paymentapp "github.com/commerce/backend/internal/application/payment"
	pricingapp "github.com/commerce/backend/internal/application/pricing"
	promotionapp "github.com/commerce/backend/internal/application/promotion"
	regionapp "github.com/commerce/backend/internal/application/region"
	storeapp "github.com/commerce/backend/internal/application/store"
	taxapp "github.com/commerce/backend/internal/application/tax"
	"github.com/commerce/backend/internal/domain/payment"
	"github.com/commerce/backend/internal/domain/shared"
	"github.com/commerce/backend/internal/infrastructure/auth"
	"github.com/commerce/backend/internal/infrastructure/cache"
	"github.com/commerce/backend/internal/infrastructure/config"
	paymentinfra "github.com/commerce/backend/internal/infrastructure/payment"
	"github.com/commerce/backend/internal/infrastructure/persistence"
	"github.com/commerce/backend/internal/infrastructure/scheduler"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Services holds the application services of every module
type Services struct {
	Auth        *identityapp.AuthService
	Users       *identityapp.UserService
	Roles       *identityapp.RoleService
	Currencies  *currencyapp.Service
	Regions     *regionapp.Service
	Store       *storeapp.Service
	Customers   *customerapp.Service
	Products    *catalogapp.ProductService
	Uploads     *catalogapp.UploadService
	Import      *catalogapp.ImportService
	Pricing     *pricingapp.Service
	Taxes       *taxapp.Service
	Promotions  *promotionapp.Service
	Fulfillment *fulfillmentapp.Service
	Inventory   *inventoryapp.Service
	Locations   *inventoryapp.LocationService
	Carts       *cartapp.Service
	Payments    *paymentapp.Service
	Orders      *orderapp.Service
	Checkout    *checkoutapp.Service
}

// serviceDeps are the infrastructure pieces services are built on
type serviceDeps struct {
	db        *gorm.DB
	cfg       *config.Config
	stores    *cache.Stores
	blacklist auth.TokenBlacklist
	events    shared.EventPublisher
	storage   catalogapp.ObjectStorage
	metrics   checkoutapp.Metrics
	logger    *zap.Logger
}

func newServices(d serviceDeps) (*Services, scheduler.Repositories, error) {
	db := d.db

	currencyRepo := persistence.NewGormCurrencyRepository(db)
	regionRepo := persistence.NewGormRegionRepository(db)
	countryRepo := persistence.NewGormCountryRepository(db)
	storeRepo := persistence.NewGormStoreRepository(db)
	channelRepo := persistence.NewGormSalesChannelRepository(db)
	userRepo := persistence.NewGormUserRepository(db)
	roleRepo := persistence.NewGormRoleRepository(db)
	sessionRepo := persistence.NewGormSessionRepository(db)
	customerRepo := persistence.NewGormCustomerRepository(db)
	groupRepo := persistence.NewGormCustomerGroupRepository(db)
	productRepo := persistence.NewGormProductRepository(db)
	variantRepo := persistence.NewGormVariantRepository(db)
	pricingRepo := persistence.NewGormPricingRepository(db)
	taxRepo := persistence.NewGormTaxRepository(db)
	promotionRepo := persistence.NewGormPromotionRepository(db)
	campaignRepo := persistence.NewGormCampaignRepository(db)
	optionRepo := persistence.NewGormShippingOptionRepository(db)
	fulfillmentRepo := persistence.NewGormFulfillmentRepository(db)
	locationRepo := persistence.NewGormStockLocationRepository(db)
	itemRepo := persistence.NewGormInventoryItemRepository(db)
	levelRepo := persistence.NewGormInventoryLevelRepository(db)
	cartRepo := persistence.NewGormCartRepository(db)
	orderRepo := persistence.NewGormOrderRepository(db)
	returnRepo := persistence.NewGormReturnRepository(db)
	paymentRepo := persistence.NewGormPaymentRepository(db)

	providers, err := paymentProviders(d.cfg.Payment, d.logger)
	if err != nil {
		return nil, scheduler.Repositories{}, err
	}

	s := &Services{
		Auth: identityapp.NewAuthService(userRepo, roleRepo, sessionRepo,
			auth.NewJWTService(d.cfg.JWT), d.blacklist, d.stores.SessionCache, d.events,
			identityapp.AuthServiceConfigFrom(d.cfg.Session, d.cfg.Auth), d.logger),
		Users:       identityapp.NewUserService(userRepo, roleRepo, sessionRepo, d.logger),
		Roles:       identityapp.NewRoleService(roleRepo, d.logger),
		Currencies:  currencyapp.NewService(currencyRepo),
		Regions:     regionapp.NewService(regionRepo, countryRepo, currencyRepo, d.logger),
		Store:       storeapp.NewService(storeRepo, channelRepo, currencyRepo),
		Customers:   customerapp.NewService(customerRepo, groupRepo, d.logger),
		Products:    catalogapp.NewProductService(productRepo, variantRepo, itemRepo, d.events),
		Pricing:     pricingapp.NewService(pricingRepo, variantRepo),
		Taxes:       taxapp.NewService(taxRepo),
		Promotions:  promotionapp.NewService(promotionRepo, campaignRepo, d.logger),
		Fulfillment: fulfillmentapp.NewService(optionRepo, regionRepo),
		Inventory:   inventoryapp.NewService(itemRepo, levelRepo, locationRepo, d.logger),
		Locations:   inventoryapp.NewLocationService(locationRepo, channelRepo),
		Payments:    paymentapp.NewService(paymentRepo, providers, d.logger),
	}

	uploadCfg := catalogapp.DefaultUploadServiceConfig()
	if d.cfg.Storage.MaxUploadSize > 0 {
		uploadCfg.MaxFileSize = d.cfg.Storage.MaxUploadSize
	}
	s.Uploads = catalogapp.NewUploadService(d.storage, uploadCfg)
	s.Import = catalogapp.NewImportService(s.Products, s.Pricing, catalogapp.ImportServiceConfig{}, d.logger)

	stock := stockAvailability{inventory: s.Inventory, locations: s.Locations}

	s.Carts = cartapp.NewService(cartapp.ServiceConfig{
		Carts:          cartRepo,
		Regions:        regionRepo,
		Products:       productRepo,
		Variants:       variantRepo,
		InventoryItems: itemRepo,
		Customers:      customerRepo,
		Store:          s.Store,
		Pricing:        s.Pricing,
		Promotions:     s.Promotions,
		Taxes:          s.Taxes,
		Shipping:       s.Fulfillment,
		Availability:   stock,
		Logger:         d.logger,
	})
	s.Orders = orderapp.NewService(orderapp.ServiceConfig{
		Orders:       orderRepo,
		Returns:      returnRepo,
		Fulfillments: fulfillmentRepo,
		Payments:     s.Payments,
		Inventory:    s.Inventory,
		Store:        s.Store,
		Events:       d.events,
		Logger:       d.logger,
	})
	s.Checkout = checkoutapp.NewService(checkoutapp.ServiceConfig{
		CartService:    s.Carts,
		Carts:          cartRepo,
		Orders:         orderRepo,
		Inventory:      stock,
		Promotions:     s.Promotions,
		Payments:       s.Payments,
		Idempotency:    d.stores.Idempotency,
		Events:         d.events,
		Metrics:        d.metrics,
		Logger:         d.logger,
		ReservationTTL: d.cfg.Inventory.ReservationTTL,
	})

	jobs := scheduler.Repositories{Sessions: sessionRepo, Levels: levelRepo, Carts: cartRepo}
	return s, jobs, nil
}

// paymentProviders registers the system provider and Stripe when a key is configured
func paymentProviders(cfg config.PaymentConfig, logger *zap.Logger) (*payment.ProviderRegistry, error) {
	providers := []payment.Provider{payment.SystemProvider{}}
	if cfg.StripeEnabled() {
		stripe, err := paymentinfra.NewStripeProvider(&paymentinfra.StripeConfig{
			SecretKey:           cfg.StripeSecretKey,
			IsTestMode:          cfg.StripeTestMode,
			StatementDescriptor: cfg.StripeStatementDescriptor,
		}, logger)
		if err != nil {
			return nil, err
		}
		providers = append(providers, stripe)
		logger.Info("Stripe payment provider registered", zap.Bool("test_mode", cfg.StripeTestMode))
	}
	return payment.NewProviderRegistry(providers...), nil
}

// stockAvailability joins stock levels with the locations serving a sales channel
type stockAvailability struct {
	inventory *inventoryapp.Service
	locations *inventoryapp.LocationService
}

func (a stockAvailability) LocationIDsForChannel(ctx context.Context, salesChannelID *uuid.UUID) ([]uuid.UUID, error) {
	return a.locations.LocationIDsForChannel(ctx, salesChannelID)
}

func (a stockAvailability) ConfirmAvailability(ctx context.Context, itemID uuid.UUID, locationIDs []uuid.UUID, quantity int) (bool, error) {
	return a.inventory.ConfirmAvailability(ctx, itemID, locationIDs, quantity)
}

func (a stockAvailability) CreateReservations(ctx context.Context, reqs []inventoryapp.ReservationRequest) ([]inventoryapp.ReservationResponse, error) {
	return a.inventory.CreateReservations(ctx, reqs)
}

func (a stockAvailability) DeleteReservationsByLineItem(ctx context.Context, lineItemIDs ...uuid.UUID) error {
	return a.inventory.DeleteReservationsByLineItem(ctx, lineItemIDs...)
}

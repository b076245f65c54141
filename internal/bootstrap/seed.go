package bootstrap

import (
	"context"
	"fmt"

	catalogapp "github.com/commerce/backend/internal/application/catalog"
	currencyapp "github.com/commerce/backend/internal/application/currency"
	fulfillmentapp "github.com/commerce/backend/internal/application/fulfillment"
	identityapp "github.com/commerce/backend/internal/application/identity"
	inventoryapp "github.com/commerce/backend/internal/application/inventory"
	pricingapp "github.com/commerce/backend/internal/application/pricing"
	regionapp "github.com/commerce/backend/internal/application/region"
	storeapp "github.com/commerce/backend/internal/application/store"
	taxapp "github.com/commerce/backend/internal/application/tax"
	"github.com/commerce/backend/internal/domain/identity"
	"github.com/commerce/backend/internal/domain/region"
	"github.com/commerce/backend/internal/domain/shared"
	"github.com/commerce/backend/internal/domain/shared/valueobject"
	"github.com/commerce/backend/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SeedOptions selects what Seed writes
type SeedOptions struct {
	StoreName     string
	AdminEmail    string
	AdminPassword string
	// Demo adds regions, shipping options, tax rates, a stock location and a small catalog
	Demo bool
}

// SeedResult summarizes what Seed created. Records that already existed are not counted.
type SeedResult struct {
	Currencies int
	Countries  int
	Regions    int
	Products   int
	AdminID    *uuid.UUID
}

var seedCurrencies = []currencyapp.CreateCurrencyRequest{
	{Code: "usd", Name: "US Dollar", Symbol: "$", SymbolNative: "$"},
	{Code: "eur", Name: "Euro", Symbol: "€", SymbolNative: "€"},
	{Code: "gbp", Name: "British Pound", Symbol: "£", SymbolNative: "£"},
	{Code: "cad", Name: "Canadian Dollar", Symbol: "CA$", SymbolNative: "$"},
}

var seedCountries = []region.Country{
	{ISO2: "us", ISO3: "usa", NumCode: 840, Name: "UNITED STATES", DisplayName: "United States"},
	{ISO2: "ca", ISO3: "can", NumCode: 124, Name: "CANADA", DisplayName: "Canada"},
	{ISO2: "gb", ISO3: "gbr", NumCode: 826, Name: "UNITED KINGDOM", DisplayName: "United Kingdom"},
	{ISO2: "de", ISO3: "deu", NumCode: 276, Name: "GERMANY", DisplayName: "Germany"},
	{ISO2: "fr", ISO3: "fra", NumCode: 250, Name: "FRANCE", DisplayName: "France"},
	{ISO2: "es", ISO3: "esp", NumCode: 724, Name: "SPAIN", DisplayName: "Spain"},
	{ISO2: "it", ISO3: "ita", NumCode: 380, Name: "ITALY", DisplayName: "Italy"},
	{ISO2: "nl", ISO3: "nld", NumCode: 528, Name: "NETHERLANDS", DisplayName: "Netherlands"},
	{ISO2: "se", ISO3: "swe", NumCode: 752, Name: "SWEDEN", DisplayName: "Sweden"},
	{ISO2: "dk", ISO3: "dnk", NumCode: 208, Name: "DENMARK", DisplayName: "Denmark"},
}

type seedRegion struct {
	name      string
	currency  string
	countries []string
	taxRate   int64
}

var seedRegions = []seedRegion{
	{name: "North America", currency: "usd", countries: []string{"us", "ca"}},
	{name: "Europe", currency: "eur", countries: []string{"de", "fr", "es", "it", "nl", "se", "dk"}, taxRate: 20},
	{name: "United Kingdom", currency: "gbp", countries: []string{"gb"}, taxRate: 20},
}

type seedProduct struct {
	title  string
	handle string
	sizes  []string
	prices map[string]int64
}

var seedProducts = []seedProduct{
	{title: "Classic T-Shirt", handle: "classic-t-shirt", sizes: []string{"S", "M", "L", "XL"},
		prices: map[string]int64{"usd": 25, "eur": 23, "gbp": 20}},
	{title: "Hoodie", handle: "hoodie", sizes: []string{"S", "M", "L"},
		prices: map[string]int64{"usd": 55, "eur": 50, "gbp": 45}},
	{title: "Canvas Tote", handle: "canvas-tote", sizes: []string{"One Size"},
		prices: map[string]int64{"usd": 15, "eur": 14, "gbp": 12}},
}

// Seed writes reference data and the first admin user. Running it again only
// fills in what is missing.
func Seed(ctx context.Context, app *App, opts SeedOptions) (*SeedResult, error) {
	s := app.Services
	log := app.Logger
	result := &SeedResult{}

	for _, req := range seedCurrencies {
		exists, err := s.Currencies.Exists(ctx, req.Code)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}
		if _, err := s.Currencies.Create(ctx, req); err != nil {
			return nil, fmt.Errorf("seed currency %s: %w", req.Code, err)
		}
		result.Currencies++
	}

	if err := persistence.NewGormCountryRepository(app.DB.DB).Upsert(ctx, seedCountries); err != nil {
		return nil, fmt.Errorf("seed countries: %w", err)
	}
	result.Countries = len(seedCountries)

	name := opts.StoreName
	if name == "" {
		name = app.Config.App.Name
	}
	st, err := s.Store.EnsureDefaults(ctx, name, DefaultCurrency)
	if err != nil {
		return nil, fmt.Errorf("seed store: %w", err)
	}

	if opts.AdminEmail != "" {
		id, err := seedAdmin(ctx, s, opts.AdminEmail, opts.AdminPassword, log)
		if err != nil {
			return nil, err
		}
		result.AdminID = id
	}

	if opts.Demo {
		if err := seedDemo(ctx, s, st, result, log); err != nil {
			return nil, err
		}
	}

	log.Info("Seed finished",
		zap.Int("currencies", result.Currencies),
		zap.Int("countries", result.Countries),
		zap.Int("regions", result.Regions),
		zap.Int("products", result.Products),
	)
	return result, nil
}

// seedAdmin creates a role granting every permission and a user holding it.
// It returns nil when the role or the user already exists.
func seedAdmin(ctx context.Context, s *Services, email, password string, log *zap.Logger) (*uuid.UUID, error) {
	role, err := s.Roles.Create(ctx, identityapp.CreateRoleInput{
		Name:        "Administrator",
		Description: "Full access to every admin resource",
		Permissions: []string{identity.PermissionAll},
	})
	if shared.IsNotUnique(err) {
		log.Info("Administrator role exists, skipping admin user")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("seed admin role: %w", err)
	}

	user, err := s.Users.Create(ctx, identityapp.CreateUserInput{
		Email:     email,
		Password:  password,
		FirstName: "Admin",
		RoleIDs:   []uuid.UUID{role.ID},
	})
	if shared.IsNotUnique(err) {
		log.Info("Admin user exists", zap.String("email", email))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("seed admin user: %w", err)
	}
	log.Info("Admin user created", zap.String("email", user.Email))
	return &user.ID, nil
}

// seedDemo runs only against a database without regions
func seedDemo(ctx context.Context, s *Services, st *storeapp.StoreResponse, result *SeedResult, log *zap.Logger) error {
	existing, err := s.Regions.List(ctx, shared.ListQuery{Limit: 1})
	if err != nil {
		return err
	}
	if existing.Count > 0 {
		log.Info("Regions exist, skipping demo data")
		return nil
	}

	var channels []uuid.UUID
	if st.DefaultSalesChannelID != nil {
		channels = []uuid.UUID{*st.DefaultSalesChannelID}
	}

	var firstRegion *uuid.UUID
	for _, r := range seedRegions {
		created, err := s.Regions.Create(ctx, regionapp.CreateRegionRequest{
			Name:         r.name,
			CurrencyCode: r.currency,
			Countries:    r.countries,
		})
		if err != nil {
			return fmt.Errorf("seed region %s: %w", r.name, err)
		}
		result.Regions++
		if firstRegion == nil {
			firstRegion = &created.ID
		}

		for _, opt := range []struct {
			name   string
			amount int64
		}{{"Standard Shipping", 10}, {"Express Shipping", 25}} {
			_, err := s.Fulfillment.CreateShippingOption(ctx, fulfillmentapp.ShippingOptionRequest{
				Name:      opt.name,
				RegionID:  created.ID,
				PriceType: "flat",
				Amount:    decimal.NewFromInt(opt.amount),
			})
			if err != nil {
				return fmt.Errorf("seed shipping option %s: %w", opt.name, err)
			}
		}

		if r.taxRate > 0 {
			for _, country := range r.countries {
				_, err := s.Taxes.CreateRegion(ctx, taxapp.CreateRegionRequest{
					CountryCode: country,
					DefaultRate: &taxapp.DefaultRateRequest{
						Name: "VAT",
						Code: "vat_" + country,
						Rate: decimal.NewFromInt(r.taxRate),
					},
				})
				if err != nil {
					return fmt.Errorf("seed tax region %s: %w", country, err)
				}
			}
		}
	}

	location, err := s.Locations.Create(ctx, inventoryapp.LocationRequest{
		Name:            "Main Warehouse",
		Address:         valueobject.Address{Address1: "1 Warehouse Way", City: "Copenhagen", CountryCode: "dk"},
		SalesChannelIDs: channels,
	})
	if err != nil {
		return fmt.Errorf("seed stock location: %w", err)
	}

	supported := make([]string, 0, len(seedCurrencies))
	for _, c := range seedCurrencies {
		supported = append(supported, c.Code)
	}
	if _, err := s.Store.Update(ctx, storeapp.UpdateStoreRequest{
		SupportedCurrencies: supported,
		DefaultRegionID:     firstRegion,
		DefaultLocationID:   &location.ID,
	}); err != nil {
		return fmt.Errorf("seed store defaults: %w", err)
	}

	for _, p := range seedProducts {
		if err := seedProductWithStock(ctx, s, p, channels, location.ID); err != nil {
			return err
		}
		result.Products++
	}
	return nil
}

func seedProductWithStock(ctx context.Context, s *Services, p seedProduct, channels []uuid.UUID, locationID uuid.UUID) error {
	req := catalogapp.CreateProductRequest{
		Title:           p.title,
		Handle:          p.handle,
		Status:          "published",
		Options:         []catalogapp.OptionRequest{{Title: "Size", Values: p.sizes}},
		SalesChannelIDs: channels,
	}
	for _, size := range p.sizes {
		req.Variants = append(req.Variants, catalogapp.VariantRequest{
			Title:   size,
			SKU:     p.handle + "-" + size,
			Options: map[string]string{"Size": size},
		})
	}
	product, err := s.Products.Create(ctx, req)
	if err != nil {
		return fmt.Errorf("seed product %s: %w", p.handle, err)
	}

	for _, v := range product.Variants {
		prices := make([]pricingapp.PriceRequest, 0, len(p.prices))
		for code, amount := range p.prices {
			prices = append(prices, pricingapp.PriceRequest{
				VariantID:    v.ID,
				Amount:       decimal.NewFromInt(amount),
				CurrencyCode: code,
			})
		}
		if _, err := s.Pricing.SetVariantPrices(ctx, v.ID, pricingapp.SetPricesRequest{Prices: prices}); err != nil {
			return fmt.Errorf("seed prices %s: %w", v.SKU, err)
		}
		if v.InventoryItemID == nil {
			continue
		}
		if _, err := s.Inventory.CreateLevel(ctx, *v.InventoryItemID, inventoryapp.CreateLevelRequest{
			LocationID:      locationID,
			StockedQuantity: 100,
		}); err != nil {
			return fmt.Errorf("seed stock %s: %w", v.SKU, err)
		}
	}
	return nil
}

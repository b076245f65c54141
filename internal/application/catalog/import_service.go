package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	pricingapp "github.com/commerce/backend/internal/application/pricing"
	"github.com/commerce/backend/internal/domain/catalog"
	"github.com/commerce/backend/internal/domain/shared"
	csvimport "github.com/commerce/backend/internal/infrastructure/import"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Product import columns. One row per variant; rows sharing product_handle
// form one product and the product columns are read from its first row.
const (
	ColProductHandle       = "product_handle"
	ColProductTitle        = "product_title"
	ColProductSubtitle     = "product_subtitle"
	ColProductDescription  = "product_description"
	ColProductStatus       = "product_status"
	ColProductThumbnail    = "product_thumbnail"
	ColProductDiscountable = "product_discountable"
	ColVariantTitle        = "variant_title"
	ColVariantSKU          = "variant_sku"
	ColVariantBarcode      = "variant_barcode"
	ColVariantManage       = "variant_manage_inventory"
	ColVariantBackorder    = "variant_allow_backorder"
	ColVariantWeight       = "variant_weight"

	// option_<n>_name and option_<n>_value, n from 1 to MaxImportOptions
	colOptionPrefix = "option_"
	// price_<currency code>
	colPricePrefix = "price_"
)

// MaxImportOptions is the number of option column pairs read per row
const MaxImportOptions = 3

// VariantPricer stores the base prices of a variant
type VariantPricer interface {
	SetVariantPrices(ctx context.Context, variantID uuid.UUID, req pricingapp.SetPricesRequest) ([]pricingapp.PriceResponse, error)
}

// ImportServiceConfig limits what one import may contain
type ImportServiceConfig struct {
	MaxRows   int
	MaxErrors int
}

// ImportOptions controls a single import
type ImportOptions struct {
	// DryRun validates the file without creating anything
	DryRun          bool
	SalesChannelIDs []uuid.UUID
}

// ImportResult reports what an import did. A product is created only when
// all its rows are valid; other products in the file are unaffected.
type ImportResult struct {
	DryRun          bool                 `json:"dry_run"`
	Rows            int                  `json:"rows"`
	ProductsCreated int                  `json:"products_created"`
	VariantsCreated int                  `json:"variants_created"`
	ProductsFailed  int                  `json:"products_failed"`
	Products        []ImportedProduct    `json:"products"`
	Errors          []csvimport.RowError `json:"errors"`
	ErrorCount      int                  `json:"error_count"`
}

// ImportedProduct is one product of the file. ID is nil on dry runs.
type ImportedProduct struct {
	Handle   string     `json:"handle"`
	ID       *uuid.UUID `json:"id,omitempty"`
	Variants int        `json:"variants"`
}

// ImportService creates products from CSV files
type ImportService struct {
	products *ProductService
	prices   VariantPricer
	cfg      ImportServiceConfig
	logger   *zap.Logger
}

// NewImportService creates a new ImportService
func NewImportService(products *ProductService, prices VariantPricer, cfg ImportServiceConfig, logger *zap.Logger) *ImportService {
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = 10000
	}
	return &ImportService{products: products, prices: prices, cfg: cfg, logger: logger}
}

type importGroup struct {
	handle   string
	rows     []*csvimport.Row
	request  CreateProductRequest
	prices   []map[string]pricingapp.PriceRequest
	hasError bool
}

// Import reads a product CSV. File level problems (no header, missing
// columns, too many rows) fail the whole import; row problems are reported
// in the result.
func (s *ImportService) Import(ctx context.Context, r io.Reader, opts ImportOptions) (*ImportResult, error) {
	parser, err := csvimport.NewParser(r)
	if err != nil {
		return nil, fileError(err)
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, fileError(err)
	}
	if missing := parser.MissingHeaders(ColProductHandle, ColVariantTitle); len(missing) > 0 {
		return nil, shared.NewInvalidDataError("file", "missing required columns: "+strings.Join(missing, ", "))
	}
	rows, err := parser.ReadAll()
	if err != nil {
		return nil, fileError(err)
	}
	if len(rows) == 0 {
		return nil, fileError(csvimport.ErrNoDataRows)
	}
	if len(rows) > s.cfg.MaxRows {
		return nil, shared.NewInvalidDataError("file", fmt.Sprintf("%s: %d rows, at most %d allowed", csvimport.ErrTooManyRows, len(rows), s.cfg.MaxRows))
	}

	errs := csvimport.NewErrorCollection(s.cfg.MaxErrors)
	groups := s.buildGroups(rows, opts, errs)

	result := &ImportResult{DryRun: opts.DryRun, Rows: len(rows)}
	for _, g := range groups {
		if g.hasError {
			result.ProductsFailed++
			continue
		}
		imported := ImportedProduct{Handle: g.handle, Variants: len(g.request.Variants)}
		if !opts.DryRun {
			id, err := s.create(ctx, g)
			if err != nil && !isRowLevel(err) {
				return nil, err
			}
			if err != nil {
				errs.Add(createError(g, err))
			}
			if id == uuid.Nil {
				result.ProductsFailed++
				continue
			}
			imported.ID = &id
			result.ProductsCreated++
			result.VariantsCreated += imported.Variants
		}
		result.Products = append(result.Products, imported)
	}
	result.Errors = errs.Errors()
	result.ErrorCount = errs.Count()

	s.logger.Info("Product import finished",
		zap.Bool("dry_run", opts.DryRun),
		zap.Int("rows", result.Rows),
		zap.Int("products_created", result.ProductsCreated),
		zap.Int("products_failed", result.ProductsFailed),
		zap.Int("errors", result.ErrorCount),
	)
	return result, nil
}

// buildGroups validates every row and groups rows by product handle in
// order of first appearance
func (s *ImportService) buildGroups(rows []*csvimport.Row, opts ImportOptions, errs *csvimport.ErrorCollection) []*importGroup {
	var groups []*importGroup
	byHandle := make(map[string]*importGroup)
	skus := make(map[string]int)

	for _, row := range rows {
		if e := row.Required(ColProductHandle); e != nil {
			errs.Add(e)
			continue
		}
		handle := strings.ToLower(row.Get(ColProductHandle))
		g, ok := byHandle[handle]
		if !ok {
			g = &importGroup{handle: handle}
			byHandle[handle] = g
			groups = append(groups, g)
			if !s.readProduct(g, row, opts, errs) {
				g.hasError = true
			}
		} else if title := row.Get(ColProductTitle); title != "" && title != g.request.Title {
			errs.Add(&csvimport.RowError{Row: row.Line, Column: ColProductTitle, Code: csvimport.ErrCodeInconsistentGroup,
				Message: "differs from the first row of product " + handle, Value: title})
			g.hasError = true
		}
		g.rows = append(g.rows, row)

		if sku := row.Get(ColVariantSKU); sku != "" {
			if first, dup := skus[strings.ToLower(sku)]; dup {
				errs.Add(&csvimport.RowError{Row: row.Line, Column: ColVariantSKU, Code: csvimport.ErrCodeDuplicateInFile,
					Message: "also used on row " + strconv.Itoa(first), Value: sku})
				g.hasError = true
			} else {
				skus[strings.ToLower(sku)] = row.Line
			}
		}
		if !s.readVariant(g, row, errs) {
			g.hasError = true
		}
	}

	for _, g := range groups {
		if !g.hasError {
			g.request.Options = collectOptions(g.request.Variants)
		}
	}
	return groups
}

func (s *ImportService) readProduct(g *importGroup, row *csvimport.Row, opts ImportOptions, errs *csvimport.ErrorCollection) bool {
	valid := true
	if e := row.Required(ColProductTitle); e != nil {
		errs.Add(e)
		valid = false
	}
	status := strings.ToLower(row.Get(ColProductStatus))
	if status != "" && !catalog.ProductStatus(status).IsValid() {
		errs.Add(&csvimport.RowError{Row: row.Line, Column: ColProductStatus, Code: csvimport.ErrCodeInvalidValue,
			Message: "must be draft, proposed, published or rejected", Value: row.Get(ColProductStatus)})
		valid = false
	}
	discountable, e := row.Bool(ColProductDiscountable, true)
	if e != nil {
		errs.Add(e)
		valid = false
	}

	g.request = CreateProductRequest{
		Title:           row.Get(ColProductTitle),
		Subtitle:        row.Get(ColProductSubtitle),
		Handle:          g.handle,
		Description:     row.Get(ColProductDescription),
		Status:          status,
		Thumbnail:       row.Get(ColProductThumbnail),
		Discountable:    &discountable,
		SalesChannelIDs: opts.SalesChannelIDs,
	}
	return valid
}

func (s *ImportService) readVariant(g *importGroup, row *csvimport.Row, errs *csvimport.ErrorCollection) bool {
	valid := true
	add := func(e *csvimport.RowError) {
		if e != nil {
			errs.Add(e)
			valid = false
		}
	}

	add(row.Required(ColVariantTitle))
	manage, e := row.Bool(ColVariantManage, true)
	add(e)
	backorder, e := row.Bool(ColVariantBackorder, false)
	add(e)
	weight, e := row.Int(ColVariantWeight)
	add(e)

	options := make(map[string]string)
	for i := 1; i <= MaxImportOptions; i++ {
		nameCol := colOptionPrefix + strconv.Itoa(i) + "_name"
		valueCol := colOptionPrefix + strconv.Itoa(i) + "_value"
		name, value := row.Get(nameCol), row.Get(valueCol)
		switch {
		case name == "" && value == "":
		case name == "":
			add(row.Required(nameCol))
		case value == "":
			add(row.Required(valueCol))
		default:
			options[name] = value
		}
	}

	prices := make(map[string]pricingapp.PriceRequest)
	for _, col := range row.Columns(colPricePrefix) {
		code := strings.TrimPrefix(col, colPricePrefix)
		amount, ok, e := row.Decimal(col)
		add(e)
		if !ok {
			continue
		}
		if len(code) != 3 {
			add(&csvimport.RowError{Row: row.Line, Column: col, Code: csvimport.ErrCodeInvalidFormat,
				Message: "price columns must be named price_<3 letter currency code>"})
			continue
		}
		prices[code] = pricingapp.PriceRequest{Amount: amount, CurrencyCode: code}
	}

	g.request.Variants = append(g.request.Variants, VariantRequest{
		Title:           row.Get(ColVariantTitle),
		SKU:             row.Get(ColVariantSKU),
		Barcode:         row.Get(ColVariantBarcode),
		ManageInventory: &manage,
		AllowBackorder:  backorder,
		Weight:          weight,
		Options:         options,
	})
	g.prices = append(g.prices, prices)
	return valid
}

// collectOptions derives the product options from the variants, keeping
// values in order of first use
func collectOptions(variants []VariantRequest) []OptionRequest {
	var options []OptionRequest
	index := make(map[string]int)
	seen := make(map[string]bool)
	for _, v := range variants {
		names := make([]string, 0, len(v.Options))
		for name := range v.Options {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			i, ok := index[name]
			if !ok {
				i = len(options)
				index[name] = i
				options = append(options, OptionRequest{Title: name})
			}
			value := v.Options[name]
			if key := name + "\x00" + value; !seen[key] {
				seen[key] = true
				options[i].Values = append(options[i].Values, value)
			}
		}
	}
	return options
}

func (s *ImportService) create(ctx context.Context, g *importGroup) (uuid.UUID, error) {
	product, err := s.products.Create(ctx, g.request)
	if err != nil {
		return uuid.Nil, err
	}
	for i, v := range product.Variants {
		if i >= len(g.prices) || len(g.prices[i]) == 0 {
			continue
		}
		req := pricingapp.SetPricesRequest{Prices: make([]pricingapp.PriceRequest, 0, len(g.prices[i]))}
		for _, p := range g.prices[i] {
			p.VariantID = v.ID
			req.Prices = append(req.Prices, p)
		}
		sort.Slice(req.Prices, func(a, b int) bool { return req.Prices[a].CurrencyCode < req.Prices[b].CurrencyCode })
		if _, err := s.prices.SetVariantPrices(ctx, v.ID, req); err != nil {
			// the product stays; its remaining variants are left without prices
			return product.ID, fmt.Errorf("product created but prices of variant %q were rejected: %w", v.Title, err)
		}
	}
	return product.ID, nil
}

// isRowLevel reports whether a create failure belongs to the rows of one
// product rather than to the import as a whole
func isRowLevel(err error) bool {
	var validationErr *shared.ValidationError
	return errors.As(err, &validationErr)
}

func createError(g *importGroup, err error) *csvimport.RowError {
	code := csvimport.ErrCodeCreateFailed
	if shared.IsNotUnique(err) {
		code = csvimport.ErrCodeDuplicateInDB
	}
	return &csvimport.RowError{Row: g.rows[0].Line, Column: ColProductHandle, Code: code, Message: err.Error(), Value: g.handle}
}

func fileError(err error) error {
	return shared.NewInvalidDataError("file", err.Error())
}

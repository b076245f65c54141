package catalog

import (
	"context"
	"fmt"
	"strconv"

	"github.com/commerce/backend/internal/domain/catalog"
	"github.com/commerce/backend/internal/domain/inventory"
	"github.com/commerce/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ProductService handles product-related business operations
type ProductService struct {
	productRepo catalog.ProductRepository
	variantRepo catalog.VariantRepository
	itemRepo    inventory.ItemRepository
	events      shared.EventPublisher
}

// NewProductService creates a new ProductService
func NewProductService(
	productRepo catalog.ProductRepository,
	variantRepo catalog.VariantRepository,
	itemRepo inventory.ItemRepository,
	events shared.EventPublisher,
) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		variantRepo: variantRepo,
		itemRepo:    itemRepo,
		events:      events,
	}
}

// Create creates a product with its options and variants. Variants that
// manage inventory get an inventory item with the same SKU.
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	product, err := catalog.NewProduct(req.Title, req.Handle)
	if err != nil {
		return nil, err
	}
	if err := s.ensureHandleFree(ctx, product.Handle, nil); err != nil {
		return nil, err
	}

	update := catalog.ProductUpdate{
		Subtitle:     &req.Subtitle,
		Description:  &req.Description,
		Thumbnail:    &req.Thumbnail,
		Images:       req.Images,
		Discountable: req.Discountable,
		Metadata:     req.Metadata,
	}
	if req.Status != "" {
		status := catalog.ProductStatus(req.Status)
		update.Status = &status
	}
	if err := product.Update(update); err != nil {
		return nil, err
	}
	product.IsGiftcard = req.IsGiftcard

	var v shared.Validator
	for i, o := range req.Options {
		if _, err := product.AddOption(o.Title, o.Values); err != nil && !v.Merge(prefixIssues(err, "options."+strconv.Itoa(i))) {
			return nil, err
		}
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	for i, vr := range req.Variants {
		if err := s.ensureSKUFree(ctx, vr.SKU, nil); err != nil {
			return nil, err
		}
		if _, err := product.AddVariant(vr.toInput()); err != nil && !v.Merge(prefixIssues(err, "variants."+strconv.Itoa(i))) {
			return nil, err
		}
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	if err := product.SetSalesChannels(req.SalesChannelIDs); err != nil {
		return nil, err
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}
	if err := s.linkInventoryItems(ctx, product); err != nil {
		return nil, err
	}
	s.publish(ctx, product)

	resp := ToProductResponse(product)
	return &resp, nil
}

// GetByID returns a product
func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// GetPublished returns a product by id or handle only when it is published
// and, if a channel is given, sold in that channel
func (s *ProductService) GetPublished(ctx context.Context, idOrHandle string, salesChannelID *uuid.UUID) (*ProductResponse, error) {
	var (
		product *catalog.Product
		err     error
	)
	if id, parseErr := uuid.Parse(idOrHandle); parseErr == nil {
		product, err = s.productRepo.FindByID(ctx, id)
	} else {
		product, err = s.productRepo.FindByHandle(ctx, idOrHandle)
	}
	if err != nil {
		return nil, err
	}
	if !product.IsPublished() || (salesChannelID != nil && !product.AvailableIn(*salesChannelID)) {
		return nil, shared.NewNotFoundError("Product", idOrHandle)
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// List lists products
func (s *ProductService) List(ctx context.Context, q shared.ListQuery) (shared.ListResult[ProductResponse], error) {
	q = q.Normalize()
	products, total, err := s.productRepo.List(ctx, q)
	if err != nil {
		return shared.ListResult[ProductResponse]{}, err
	}
	items := make([]ProductResponse, len(products))
	for i, p := range products {
		items[i] = ToProductResponse(p)
	}
	return shared.NewListResult(items, total, q), nil
}

// Update applies a partial update
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Handle != nil && *req.Handle != product.Handle {
		if err := s.ensureHandleFree(ctx, *req.Handle, &id); err != nil {
			return nil, err
		}
	}

	update := catalog.ProductUpdate{
		Title:        req.Title,
		Subtitle:     req.Subtitle,
		Handle:       req.Handle,
		Description:  req.Description,
		Thumbnail:    req.Thumbnail,
		Images:       req.Images,
		Discountable: req.Discountable,
		Metadata:     req.Metadata,
	}
	if req.Status != nil {
		status := catalog.ProductStatus(*req.Status)
		update.Status = &status
	}
	if err := product.Update(update); err != nil {
		return nil, err
	}
	if req.SalesChannelIDs != nil {
		if err := product.SetSalesChannels(req.SalesChannelIDs); err != nil {
			return nil, err
		}
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	s.publish(ctx, product)

	resp := ToProductResponse(product)
	return &resp, nil
}

// Delete soft deletes a product and its variants
func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return err
	}
	product.AddDomainEvent(catalog.NewProductEvent(catalog.EventTypeProductDeleted, product))
	s.publish(ctx, product)
	return nil
}

// AddOption adds an option to a product
func (s *ProductService) AddOption(ctx context.Context, productID uuid.UUID, req OptionRequest) (*ProductResponse, error) {
	return s.respond(s.mutate(ctx, productID, func(p *catalog.Product) error {
		_, err := p.AddOption(req.Title, req.Values)
		return err
	}))
}

// RemoveOption removes an option from a product and its variants
func (s *ProductService) RemoveOption(ctx context.Context, productID, optionID uuid.UUID) (*ProductResponse, error) {
	return s.respond(s.mutate(ctx, productID, func(p *catalog.Product) error {
		return p.RemoveOption(optionID)
	}))
}

// AddVariant adds a variant to a product
func (s *ProductService) AddVariant(ctx context.Context, productID uuid.UUID, req VariantRequest) (*ProductResponse, error) {
	if err := s.ensureSKUFree(ctx, req.SKU, nil); err != nil {
		return nil, err
	}
	product, err := s.mutate(ctx, productID, func(p *catalog.Product) error {
		_, err := p.AddVariant(req.toInput())
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := s.linkInventoryItems(ctx, product); err != nil {
		return nil, err
	}
	return s.respond(product, nil)
}

// UpdateVariant replaces the fields of a variant
func (s *ProductService) UpdateVariant(ctx context.Context, productID, variantID uuid.UUID, req VariantRequest) (*ProductResponse, error) {
	if err := s.ensureSKUFree(ctx, req.SKU, &variantID); err != nil {
		return nil, err
	}
	return s.respond(s.mutate(ctx, productID, func(p *catalog.Product) error {
		_, err := p.UpdateVariant(variantID, req.toInput())
		return err
	}))
}

// RemoveVariant soft deletes a variant
func (s *ProductService) RemoveVariant(ctx context.Context, productID, variantID uuid.UUID) (*ProductResponse, error) {
	return s.respond(s.mutate(ctx, productID, func(p *catalog.Product) error {
		return p.RemoveVariant(variantID)
	}))
}

// LinkInventoryItem points a variant at an existing inventory item
func (s *ProductService) LinkInventoryItem(ctx context.Context, variantID uuid.UUID, req LinkInventoryItemRequest) (*VariantResponse, error) {
	variant, err := s.variantRepo.FindByID(ctx, variantID)
	if err != nil {
		return nil, err
	}
	if _, err := s.itemRepo.FindByID(ctx, req.InventoryItemID); err != nil {
		return nil, err
	}
	if err := s.variantRepo.SetInventoryItem(ctx, variantID, req.InventoryItemID); err != nil {
		return nil, err
	}
	itemID := req.InventoryItemID
	variant.InventoryItemID = &itemID
	resp := ToVariantResponse(variant)
	return &resp, nil
}

func (s *ProductService) mutate(ctx context.Context, productID uuid.UUID, fn func(*catalog.Product) error) (*catalog.Product, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := fn(product); err != nil {
		return nil, err
	}
	product.IncrementVersion()
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *ProductService) respond(product *catalog.Product, err error) (*ProductResponse, error) {
	if err != nil {
		return nil, err
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// linkInventoryItems creates an inventory item for each managed variant without one
func (s *ProductService) linkInventoryItems(ctx context.Context, product *catalog.Product) error {
	for i := range product.Variants {
		variant := &product.Variants[i]
		if !variant.ManageInventory || variant.InventoryItemID != nil || variant.IsDeleted() {
			continue
		}
		item, err := inventory.NewItem(variant.SKU, product.Title+" / "+variant.Title, true)
		if err != nil {
			return err
		}
		item.Weight = variant.Weight
		if err := s.itemRepo.Create(ctx, item); err != nil {
			return fmt.Errorf("create inventory item for variant %s: %w", variant.ID, err)
		}
		if err := s.variantRepo.SetInventoryItem(ctx, variant.ID, item.ID); err != nil {
			return fmt.Errorf("link inventory item: %w", err)
		}
		variant.InventoryItemID = &item.ID
	}
	return nil
}

func (s *ProductService) ensureHandleFree(ctx context.Context, handle string, excludeID *uuid.UUID) error {
	exists, err := s.productRepo.ExistsByHandle(ctx, handle, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return shared.NewNotUniqueError("Product", "handle", handle)
	}
	return nil
}

func (s *ProductService) ensureSKUFree(ctx context.Context, sku string, excludeID *uuid.UUID) error {
	if sku == "" {
		return nil
	}
	exists, err := s.variantRepo.ExistsBySKU(ctx, sku, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return shared.NewNotUniqueError("ProductVariant", "sku", sku)
	}
	return nil
}

func (s *ProductService) publish(ctx context.Context, product *catalog.Product) {
	events := product.PullDomainEvents()
	if s.events != nil && len(events) > 0 {
		_ = s.events.Publish(ctx, events...)
	}
}

// prefixIssues moves validation issue paths under prefix
func prefixIssues(err error, prefix string) error {
	verr, ok := err.(*shared.ValidationError)
	if !ok {
		return err
	}
	issues := make([]shared.ValidationIssue, len(verr.Issues))
	for i, issue := range verr.Issues {
		issue.Path = prefix + "." + issue.Path
		issues[i] = issue
	}
	return shared.NewValidationError(issues...)
}

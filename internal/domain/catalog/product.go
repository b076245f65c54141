package catalog

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/commerce/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ProductStatus represents the publication status of a product
type ProductStatus string

const (
	ProductStatusDraft     ProductStatus = "draft"
	ProductStatusProposed  ProductStatus = "proposed"
	ProductStatusPublished ProductStatus = "published"
	ProductStatusRejected  ProductStatus = "rejected"
)

// IsValid reports whether s is a known status
func (s ProductStatus) IsValid() bool {
	switch s {
	case ProductStatusDraft, ProductStatusProposed, ProductStatusPublished, ProductStatusRejected:
		return true
	}
	return false
}

var (
	handleRegex  = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)
)

// Product is the catalog aggregate: a product with its options and variants
type Product struct {
	shared.BaseAggregateRoot
	Title           string
	Subtitle        string
	Handle          string
	Description     string
	Status          ProductStatus
	Thumbnail       string
	Images          []string
	IsGiftcard      bool
	Discountable    bool
	TypeID          *uuid.UUID
	Options         []ProductOption
	Variants        []ProductVariant
	SalesChannelIDs []uuid.UUID
	Metadata        map[string]any
}

// ProductOption is a customizable dimension such as "Size"
type ProductOption struct {
	ID     uuid.UUID
	Title  string
	Values []string
}

// ProductVariant is a purchasable combination of option values
type ProductVariant struct {
	shared.BaseEntity
	ProductID       uuid.UUID
	Title           string
	SKU             string
	Barcode         string
	ManageInventory bool
	AllowBackorder  bool
	Weight          int
	Options         map[string]string // option title -> value
	InventoryItemID *uuid.UUID
	Rank            int
}

// Slugify turns a title into a handle
func Slugify(title string) string {
	s := nonSlugChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(title)), "-")
	return strings.Trim(s, "-")
}

// NewProduct creates a draft product. An empty handle is derived from the title.
func NewProduct(title, handle string) (*Product, error) {
	title = strings.TrimSpace(title)
	if handle == "" {
		handle = Slugify(title)
	}
	var v shared.Validator
	v.Check(title != "", "title", "title is required")
	v.Check(handleRegex.MatchString(handle), "handle", "handle may only contain lowercase letters, digits and dashes")
	if err := v.Err(); err != nil {
		return nil, err
	}
	p := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Title:             title,
		Handle:            handle,
		Status:            ProductStatusDraft,
		Discountable:      true,
		Images:            make([]string, 0),
		Options:           make([]ProductOption, 0),
		Variants:          make([]ProductVariant, 0),
		SalesChannelIDs:   make([]uuid.UUID, 0),
	}
	p.AddDomainEvent(NewProductEvent(EventTypeProductCreated, p))
	return p, nil
}

// ProductUpdate lists the mutable product fields; nil means unchanged
type ProductUpdate struct {
	Title        *string
	Subtitle     *string
	Handle       *string
	Description  *string
	Status       *ProductStatus
	Thumbnail    *string
	Images       []string
	Discountable *bool
	Metadata     map[string]any
}

// Update applies a partial update
func (p *Product) Update(u ProductUpdate) error {
	var v shared.Validator
	if u.Title != nil {
		v.Check(strings.TrimSpace(*u.Title) != "", "title", "title is required")
	}
	if u.Handle != nil {
		v.Check(handleRegex.MatchString(*u.Handle), "handle", "handle may only contain lowercase letters, digits and dashes")
	}
	if u.Status != nil {
		v.Check(u.Status.IsValid(), "status", "status must be one of draft, proposed, published, rejected")
	}
	if err := v.Err(); err != nil {
		return err
	}

	if u.Title != nil {
		p.Title = strings.TrimSpace(*u.Title)
	}
	if u.Subtitle != nil {
		p.Subtitle = *u.Subtitle
	}
	if u.Handle != nil {
		p.Handle = *u.Handle
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Status != nil {
		p.Status = *u.Status
	}
	if u.Thumbnail != nil {
		p.Thumbnail = *u.Thumbnail
	}
	if u.Images != nil {
		p.Images = u.Images
	}
	if u.Discountable != nil {
		p.Discountable = *u.Discountable
	}
	if u.Metadata != nil {
		p.Metadata = u.Metadata
	}
	p.Touch()
	p.IncrementVersion()
	p.AddDomainEvent(NewProductEvent(EventTypeProductUpdated, p))
	return nil
}

// IsPublished reports whether the product is visible in the store
func (p *Product) IsPublished() bool {
	return p.Status == ProductStatusPublished && !p.IsDeleted()
}

// AddOption adds an option. Existing variants get the first value of the new option.
func (p *Product) AddOption(title string, values []string) (*ProductOption, error) {
	title = strings.TrimSpace(title)
	var v shared.Validator
	v.Check(title != "", "title", "title is required")
	v.Check(len(values) > 0, "values", "at least one value is required")
	for _, o := range p.Options {
		if strings.EqualFold(o.Title, title) {
			v.Add(shared.ValidationIssue{Type: shared.IssueNotUnique, Message: "option " + title + " already exists", Path: "title"})
		}
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	opt := ProductOption{ID: uuid.New(), Title: title, Values: dedupe(values)}
	p.Options = append(p.Options, opt)
	for i := range p.Variants {
		if p.Variants[i].Options == nil {
			p.Variants[i].Options = map[string]string{}
		}
		p.Variants[i].Options[title] = opt.Values[0]
	}
	p.Touch()
	return &p.Options[len(p.Options)-1], nil
}

// RemoveOption deletes an option and its values from every variant
func (p *Product) RemoveOption(id uuid.UUID) error {
	for i, o := range p.Options {
		if o.ID != id {
			continue
		}
		p.Options = append(p.Options[:i], p.Options[i+1:]...)
		for j := range p.Variants {
			delete(p.Variants[j].Options, o.Title)
		}
		p.Touch()
		return nil
	}
	return shared.NewNotFoundError("ProductOption", id)
}

// VariantInput carries the fields for creating or updating a variant
type VariantInput struct {
	Title           string
	SKU             string
	Barcode         string
	ManageInventory bool
	AllowBackorder  bool
	Weight          int
	Options         map[string]string
}

// AddVariant validates option values and adds a variant
func (p *Product) AddVariant(in VariantInput) (*ProductVariant, error) {
	variant := ProductVariant{
		BaseEntity: shared.NewBaseEntity(),
		ProductID:  p.ID,
		Rank:       len(p.Variants),
	}
	if err := p.applyVariant(&variant, in, -1); err != nil {
		return nil, err
	}
	p.Variants = append(p.Variants, variant)
	p.Touch()
	return &p.Variants[len(p.Variants)-1], nil
}

// UpdateVariant replaces the fields of an existing variant
func (p *Product) UpdateVariant(id uuid.UUID, in VariantInput) (*ProductVariant, error) {
	idx := p.variantIndex(id)
	if idx < 0 {
		return nil, shared.NewNotFoundError("ProductVariant", id)
	}
	if err := p.applyVariant(&p.Variants[idx], in, idx); err != nil {
		return nil, err
	}
	p.Variants[idx].Touch()
	p.Touch()
	return &p.Variants[idx], nil
}

// RemoveVariant soft deletes a variant
func (p *Product) RemoveVariant(id uuid.UUID) error {
	idx := p.variantIndex(id)
	if idx < 0 {
		return shared.NewNotFoundError("ProductVariant", id)
	}
	p.Variants[idx].SoftDelete(time.Now())
	p.Touch()
	return nil
}

// Variant returns the live variant with id
func (p *Product) Variant(id uuid.UUID) (*ProductVariant, bool) {
	idx := p.variantIndex(id)
	if idx < 0 {
		return nil, false
	}
	return &p.Variants[idx], true
}

// ActiveVariants returns the variants that were not deleted
func (p *Product) ActiveVariants() []ProductVariant {
	out := make([]ProductVariant, 0, len(p.Variants))
	for _, v := range p.Variants {
		if !v.IsDeleted() {
			out = append(out, v)
		}
	}
	return out
}

func (p *Product) variantIndex(id uuid.UUID) int {
	for i := range p.Variants {
		if p.Variants[i].ID == id && !p.Variants[i].IsDeleted() {
			return i
		}
	}
	return -1
}

// applyVariant enforces that every option has exactly one allowed value and
// that no other live variant has the same combination.
func (p *Product) applyVariant(dst *ProductVariant, in VariantInput, self int) error {
	var v shared.Validator
	v.Check(strings.TrimSpace(in.Title) != "", "title", "title is required")
	v.Check(len(in.Options) == len(p.Options), "options", "a value must be set for each product option")
	for _, opt := range p.Options {
		val, ok := in.Options[opt.Title]
		v.Check(ok && contains(opt.Values, val), "options."+opt.Title, "value must be one of the option values")
	}
	for title := range in.Options {
		v.Check(p.hasOption(title), "options."+title, "unknown option")
	}
	if err := v.Err(); err != nil {
		return err
	}

	key := comboKey(in.Options)
	for i, other := range p.Variants {
		if i == self || other.IsDeleted() {
			continue
		}
		if len(p.Options) > 0 && comboKey(other.Options) == key {
			return shared.NewNotUniqueError("ProductVariant", "options", key)
		}
		if in.SKU != "" && strings.EqualFold(other.SKU, in.SKU) {
			return shared.NewNotUniqueError("ProductVariant", "sku", in.SKU)
		}
	}

	dst.Title = strings.TrimSpace(in.Title)
	dst.SKU = strings.TrimSpace(in.SKU)
	dst.Barcode = strings.TrimSpace(in.Barcode)
	dst.ManageInventory = in.ManageInventory
	dst.AllowBackorder = in.AllowBackorder
	dst.Weight = in.Weight
	dst.Options = make(map[string]string, len(in.Options))
	for k, val := range in.Options {
		dst.Options[k] = val
	}
	return nil
}

func (p *Product) hasOption(title string) bool {
	for _, o := range p.Options {
		if o.Title == title {
			return true
		}
	}
	return false
}

func comboKey(options map[string]string) string {
	keys := make([]string, 0, len(options))
	for k := range options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + options[k]
	}
	return strings.Join(parts, ";")
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

// SetSalesChannels replaces the channels the product is available in
func (p *Product) SetSalesChannels(ids []uuid.UUID) error {
	for i, id := range ids {
		if id == uuid.Nil {
			return shared.NewInvalidDataError("sales_channel_ids."+strconv.Itoa(i), "sales channel id cannot be empty")
		}
	}
	p.SalesChannelIDs = ids
	p.Touch()
	return nil
}

// AvailableIn reports whether the product is sold in the given channel
func (p *Product) AvailableIn(salesChannelID uuid.UUID) bool {
	for _, id := range p.SalesChannelIDs {
		if id == salesChannelID {
			return true
		}
	}
	return false
}

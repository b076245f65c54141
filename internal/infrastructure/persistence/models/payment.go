package models

import (
	"time"

	"github.com/commerce/backend/internal/domain/payment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentCollectionModel is the persistence model for payment collections.
type PaymentCollectionModel struct {
	AggregateModel
	CartID       *uuid.UUID               `gorm:"type:uuid;index"`
	OrderID      *uuid.UUID               `gorm:"type:uuid;index"`
	CurrencyCode string                   `gorm:"type:varchar(3);not null"`
	Amount       decimal.Decimal          `gorm:"type:numeric(20,4);not null"`
	Status       payment.CollectionStatus `gorm:"type:varchar(20);not null;default:'not_paid'"`
}

// TableName returns the table name for GORM
func (PaymentCollectionModel) TableName() string {
	return "payment_collections"
}

// ToDomain converts the model and its payments to a domain Collection
func (m *PaymentCollectionModel) ToDomain(payments []PaymentModel) *payment.Collection {
	c := &payment.Collection{
		BaseAggregateRoot: m.ToAggregateRoot(),
		CartID:            m.CartID,
		OrderID:           m.OrderID,
		CurrencyCode:      m.CurrencyCode,
		Amount:            m.Amount,
		Status:            m.Status,
		Payments:          make([]payment.Payment, len(payments)),
	}
	for i := range payments {
		c.Payments[i] = payments[i].ToDomain()
	}
	return c
}

// PaymentCollectionModelFromDomain creates a persistence model from a domain Collection
func PaymentCollectionModelFromDomain(c *payment.Collection) *PaymentCollectionModel {
	m := &PaymentCollectionModel{
		CartID:       c.CartID,
		OrderID:      c.OrderID,
		CurrencyCode: c.CurrencyCode,
		Amount:       c.Amount,
		Status:       c.Status,
	}
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	return m
}

// PaymentModel is a single provider payment inside a collection.
// Captures and refunds are append-only and kept as JSON on the row.
type PaymentModel struct {
	ID           uuid.UUID         `gorm:"type:uuid;primaryKey"`
	CollectionID uuid.UUID         `gorm:"type:uuid;not null;index"`
	ProviderID   string            `gorm:"type:varchar(100);not null"`
	Amount       decimal.Decimal   `gorm:"type:numeric(20,4);not null"`
	CurrencyCode string            `gorm:"type:varchar(3);not null"`
	Status       payment.Status    `gorm:"type:varchar(30);not null;index"`
	Data         JSONMap           `gorm:"type:jsonb;serializer:json"`
	Captures     []payment.Capture `gorm:"type:jsonb;serializer:json"`
	Refunds      []payment.Refund  `gorm:"type:jsonb;serializer:json"`
	CapturedAt   *time.Time
	CanceledAt   *time.Time
	CreatedAt    time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the model to a domain Payment
func (m *PaymentModel) ToDomain() payment.Payment {
	p := payment.Payment{
		ID:           m.ID,
		CollectionID: m.CollectionID,
		ProviderID:   m.ProviderID,
		Amount:       m.Amount,
		CurrencyCode: m.CurrencyCode,
		Status:       m.Status,
		Data:         m.Data,
		Captures:     m.Captures,
		Refunds:      m.Refunds,
		CapturedAt:   m.CapturedAt,
		CanceledAt:   m.CanceledAt,
		CreatedAt:    m.CreatedAt,
	}
	if p.Captures == nil {
		p.Captures = make([]payment.Capture, 0)
	}
	if p.Refunds == nil {
		p.Refunds = make([]payment.Refund, 0)
	}
	return p
}

// PaymentModelFromDomain creates a persistence model from a domain Payment
func PaymentModelFromDomain(p payment.Payment) PaymentModel {
	return PaymentModel{
		ID:           p.ID,
		CollectionID: p.CollectionID,
		ProviderID:   p.ProviderID,
		Amount:       p.Amount,
		CurrencyCode: p.CurrencyCode,
		Status:       p.Status,
		Data:         p.Data,
		Captures:     p.Captures,
		Refunds:      p.Refunds,
		CapturedAt:   p.CapturedAt,
		CanceledAt:   p.CanceledAt,
		CreatedAt:    p.CreatedAt,
	}
}

package order

// Status represents the lifecycle state of an order
type Status string

const (
	StatusPending        Status = "pending"
	StatusCompleted      Status = "completed"
	StatusCanceled       Status = "canceled"
	StatusArchived       Status = "archived"
	StatusRequiresAction Status = "requires_action"
)

// IsValid checks if the status is known
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCanceled, StatusArchived, StatusRequiresAction:
		return true
	}
	return false
}

// CanTransitionTo checks if the status can move to target
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusPending, StatusRequiresAction:
		return target == StatusCompleted || target == StatusCanceled || target == StatusRequiresAction || target == StatusPending
	case StatusCompleted, StatusCanceled:
		return target == StatusArchived
	case StatusArchived:
		return false
	}
	return false
}

// PaymentStatus mirrors the state of the order's payment collection
type PaymentStatus string

const (
	PaymentNotPaid           PaymentStatus = "not_paid"
	PaymentAuthorized        PaymentStatus = "authorized"
	PaymentCaptured          PaymentStatus = "captured"
	PaymentPartiallyRefunded PaymentStatus = "partially_refunded"
	PaymentRefunded          PaymentStatus = "refunded"
	PaymentCanceled          PaymentStatus = "canceled"
)

// FulfillmentStatus summarizes fulfilment progress over all items
type FulfillmentStatus string

const (
	FulfillmentNotFulfilled       FulfillmentStatus = "not_fulfilled"
	FulfillmentPartiallyFulfilled FulfillmentStatus = "partially_fulfilled"
	FulfillmentFulfilled          FulfillmentStatus = "fulfilled"
	FulfillmentPartiallyShipped   FulfillmentStatus = "partially_shipped"
	FulfillmentShipped            FulfillmentStatus = "shipped"
	FulfillmentDelivered          FulfillmentStatus = "delivered"
	FulfillmentCanceled           FulfillmentStatus = "canceled"
)

// ReturnStatus is the state of a return
type ReturnStatus string

const (
	ReturnRequested ReturnStatus = "requested"
	ReturnReceived  ReturnStatus = "received"
	ReturnCanceled  ReturnStatus = "canceled"
)

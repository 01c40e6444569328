package constants

// Order status constants.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCanceled   = "canceled"
)

// Payment status constants.
const (
	PaymentStatusPending  = "pending"
	PaymentStatusSuccess  = "success"
	PaymentStatusFailed   = "failed"
	PaymentStatusCanceled = "canceled"
)

// Payment method constants.
const (
	PaymentMethodCard         = "card"
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodVirtualAcct  = "virtual_account"
)

// Point ledger direction constants. Amounts are always positive; the
// direction carries the sign. EARN and ADJUST credit the balance,
// SPEND and EXPIRE debit it.
const (
	PointDirectionEarn   = "EARN"
	PointDirectionSpend  = "SPEND"
	PointDirectionExpire = "EXPIRE"
	PointDirectionAdjust = "ADJUST"
)

// User status constants.
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// Queue and task name constants.
const (
	QueueDefault           = "default"
	TaskOrderTimeoutCancel = "order:timeout_cancel"
)

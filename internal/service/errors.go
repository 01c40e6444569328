package service

import "errors"

// Sentinel errors returned by services. Handlers map these to response
// codes with errors.Is, so wrap rather than replace when adding context.
var (
	ErrLoginFailed   = errors.New("invalid email or password")
	ErrUserDisabled  = errors.New("account disabled")
	ErrTokenInvalid  = errors.New("invalid or expired token")
	ErrTokenGenerate = errors.New("failed to generate token")

	ErrProductNotFound      = errors.New("product not found")
	ErrPricingConfigInvalid = errors.New("pricing config invalid")
	ErrNotPriced            = errors.New("no price for the selected size and print type")

	ErrCartItemInvalid  = errors.New("invalid cart item")
	ErrCartItemNotFound = errors.New("cart item not found")

	ErrEmptyCart             = errors.New("cart is empty")
	ErrMissingShippingFields = errors.New("recipient, phone and address are required")
	ErrOrderNotFound         = errors.New("order not found")

	ErrInvalidPointsAmount       = errors.New("points amount must be positive")
	ErrInsufficientPoints        = errors.New("insufficient points balance")
	ErrConcurrentBalanceConflict = errors.New("points balance changed concurrently")
)

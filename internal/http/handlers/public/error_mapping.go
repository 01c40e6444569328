package public

import (
	"errors"

	"github.com/acrilgoods-next/internal/http/response"
	"github.com/acrilgoods-next/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError maps one business error to a response code and
// localization key.
type mappedHandlerError struct {
	target error
	code   int
	key    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.key, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackKey, err)
}

var cartAddErrorRules = []mappedHandlerError{
	{target: service.ErrProductNotFound, code: response.CodeNotFound, key: "error.product_not_found"},
	{target: service.ErrPricingConfigInvalid, code: response.CodeInternal, key: "error.pricing_config_invalid"},
	{target: service.ErrNotPriced, code: response.CodeBadRequest, key: "error.not_priced"},
	{target: service.ErrCartItemInvalid, code: response.CodeBadRequest, key: "error.cart_item_invalid"},
}

var orderCreateErrorRules = []mappedHandlerError{
	{target: service.ErrEmptyCart, code: response.CodeBadRequest, key: "error.cart_empty"},
	{target: service.ErrMissingShippingFields, code: response.CodeBadRequest, key: "error.shipping_fields_missing"},
	{target: service.ErrProductNotFound, code: response.CodeBadRequest, key: "error.product_not_found"},
	{target: service.ErrNotPriced, code: response.CodeBadRequest, key: "error.not_priced"},
	{target: service.ErrPricingConfigInvalid, code: response.CodeInternal, key: "error.pricing_config_invalid"},
	{target: service.ErrInvalidPointsAmount, code: response.CodeBadRequest, key: "error.points_amount_invalid"},
	{target: service.ErrInsufficientPoints, code: response.CodeBadRequest, key: "error.insufficient_points"},
	{target: service.ErrConcurrentBalanceConflict, code: response.CodeConflict, key: "error.points_conflict"},
}

var loginErrorRules = []mappedHandlerError{
	{target: service.ErrLoginFailed, code: response.CodeUnauthorized, key: "error.login_failed"},
	{target: service.ErrUserDisabled, code: response.CodeForbidden, key: "error.user_disabled"},
}

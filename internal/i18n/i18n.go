package i18n

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
)

// Supported locales. Korean is the storefront default.
const (
	LocaleKo = "ko"
	LocaleEn = "en"
)

var messages = map[string]map[string]string{
	LocaleKo: {
		"error.bad_request":              "잘못된 요청입니다",
		"error.unauthorized":             "로그인이 필요합니다",
		"error.forbidden":                "권한이 없습니다",
		"error.internal":                 "일시적인 오류가 발생했습니다",
		"error.rate_limited":             "요청이 너무 많습니다. %d초 후 다시 시도해주세요",
		"error.rate_limit_unavailable":   "요청 제한 확인에 실패했습니다",
		"error.login_too_many":           "로그인 시도가 너무 많습니다. %d초 후 다시 시도해주세요",
		"error.login_failed":             "이메일 또는 비밀번호가 올바르지 않습니다",
		"error.user_disabled":            "비활성화된 계정입니다",
		"error.token_invalid":            "유효하지 않은 토큰입니다",
		"error.auth_header_missing":      "인증 정보가 없습니다",
		"error.auth_header_invalid":      "인증 정보 형식이 올바르지 않습니다",
		"error.jwt_secret_missing":       "서버 인증 설정 오류입니다",
		"error.user_id_invalid":          "사용자 정보가 올바르지 않습니다",
		"error.product_not_found":        "상품을 찾을 수 없습니다",
		"error.pricing_config_invalid":   "상품 가격표가 올바르지 않습니다",
		"error.not_priced":               "선택한 옵션의 가격이 없습니다",
		"error.cart_item_invalid":        "장바구니 항목이 올바르지 않습니다",
		"error.cart_item_not_found":      "장바구니 항목을 찾을 수 없습니다",
		"error.cart_empty":               "장바구니가 비어 있습니다",
		"error.shipping_fields_missing":  "배송지 정보를 입력해주세요",
		"error.insufficient_points":      "포인트가 부족합니다",
		"error.points_amount_invalid":    "사용할 포인트가 올바르지 않습니다",
		"error.points_conflict":          "포인트 처리 중 충돌이 발생했습니다. 다시 시도해주세요",
		"error.order_not_found":          "주문을 찾을 수 없습니다",
		"error.order_create_failed":      "주문 생성에 실패했습니다",
		"error.order_fetch_failed":       "주문 조회에 실패했습니다",
		"error.cart_fetch_failed":        "장바구니 조회에 실패했습니다",
		"error.points_fetch_failed":      "포인트 조회에 실패했습니다",
	},
	LocaleEn: {
		"error.bad_request":              "invalid request",
		"error.unauthorized":             "authentication required",
		"error.forbidden":                "permission denied",
		"error.internal":                 "temporary server error",
		"error.rate_limited":             "too many requests, retry in %d seconds",
		"error.rate_limit_unavailable":   "rate limit check failed",
		"error.login_too_many":           "too many login attempts, retry in %d seconds",
		"error.login_failed":             "invalid email or password",
		"error.user_disabled":            "account disabled",
		"error.token_invalid":            "invalid token",
		"error.auth_header_missing":      "authorization header missing",
		"error.auth_header_invalid":      "malformed authorization header",
		"error.jwt_secret_missing":       "server auth misconfigured",
		"error.user_id_invalid":          "invalid user identity",
		"error.product_not_found":        "product not found",
		"error.pricing_config_invalid":   "product price table is invalid",
		"error.not_priced":               "selected options have no price",
		"error.cart_item_invalid":        "invalid cart item",
		"error.cart_item_not_found":      "cart item not found",
		"error.cart_empty":               "cart is empty",
		"error.shipping_fields_missing":  "shipping information required",
		"error.insufficient_points":      "insufficient points",
		"error.points_amount_invalid":    "invalid points amount",
		"error.points_conflict":          "points update conflict, please retry",
		"error.order_not_found":          "order not found",
		"error.order_create_failed":      "failed to create order",
		"error.order_fetch_failed":       "failed to fetch order",
		"error.cart_fetch_failed":        "failed to fetch cart",
		"error.points_fetch_failed":      "failed to fetch points",
	},
}

// ResolveLocale picks the response locale from the query string or the
// Accept-Language header. Korean is the default.
func ResolveLocale(c *gin.Context) string {
	if c == nil {
		return LocaleKo
	}
	if locale := normalizeLocale(c.Query("locale")); locale != "" {
		return locale
	}
	if locale := normalizeLocale(c.GetHeader("Accept-Language")); locale != "" {
		return locale
	}
	return LocaleKo
}

// T returns the localized message for key, falling back to Korean and
// finally to the key itself.
func T(locale, key string) string {
	if table, ok := messages[locale]; ok {
		if msg, ok := table[key]; ok {
			return msg
		}
	}
	if msg, ok := messages[LocaleKo][key]; ok {
		return msg
	}
	return key
}

// Sprintf formats the localized message for key.
func Sprintf(locale, key string, args ...interface{}) string {
	return fmt.Sprintf(T(locale, key), args...)
}

func normalizeLocale(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return ""
	}
	if idx := strings.IndexAny(raw, ",;"); idx >= 0 {
		raw = raw[:idx]
	}
	switch {
	case strings.HasPrefix(raw, LocaleKo):
		return LocaleKo
	case strings.HasPrefix(raw, LocaleEn):
		return LocaleEn
	default:
		return ""
	}
}

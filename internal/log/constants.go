package log

const (
	KeyAppName            = "app"
	KeyRequestID          = "requestId"
	KeyTraceID            = "traceId"
	KeySpanID             = "spanId"
	KeyProcess            = "process"
	KeyTag                = "tag"
	KeyConfig             = "config"
	KeyAuthToken          = "authToken"
	KeyToken              = "token"
	KeyRequest            = "request"
	KeyRequestBody        = "requestBody"
	KeyRequestHeader      = "requestHeader"
	KeyRequestHost        = "host"
	KeyRequestIp          = "requesterIP"
	KeyRequestMethod      = "requestMethod"
	KeyRequestProcessedAt = "requestProcessedAt"
	KeyRequestURI         = "requestURI"
	KeyRequestURL         = "requestURL"
	KeyPathValues         = "pathValues"
	KeyDbURI              = "dbURI"
	KeyCacheKey           = "cacheKey"

	KeyCart            = "cart"
	KeyCartID          = "cartId"
	KeyCartType        = "cartType"
	KeyCartItems       = "cartItems"
	KeyCartItemsCount  = "cartItemsCount"
	KeyCartItemsMerged = "cartItemsMerged"
	KeyGuestID         = "guestId"
	KeyUserID          = "userId"
	KeyMergedCount     = "mergedCount"
	KeyDeletedCount    = "deletedCount"
	KeyExpiresAt       = "expiresAt"
	KeySchedule        = "schedule"
)

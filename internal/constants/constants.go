package constants

const (
	APP_SHOPCART      = "shopcart"
	APP_CART_SERVICE  = "cart-service"
	APP_CART_SWEEPER  = "cart-sweeper"
	AUDIENCE_USER     = "audience-user"
	ISSUER_USER       = "user-service"
	DEFAULT_LOG_DIR   = "/var/log"
	DEFAULT_LOG_FILE  = "/var/log/shopcart.log"
	HEALTH_CHECK_TEXT = "API E-commerce is running"
)

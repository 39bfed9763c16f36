package http

const (
	HeaderContentType     = "Content-Type"
	HeaderValueJson       = "application/json"
	HeaderRequestID       = "X-Request-Id"
	HeaderAuthorization   = "Authorization"
	AuthorizationBearer   = "bearer "
	StatusSuccess         = "success"
	StatusFailed          = "failed"
	MessageInternalServer = "Internal Server Error"
)

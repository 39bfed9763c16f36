package middleware

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Alturino/shopcart/internal/auth"
	inErrors "github.com/Alturino/shopcart/internal/errors"
	inHttp "github.com/Alturino/shopcart/internal/http"
	"github.com/Alturino/shopcart/internal/log"
)

// Auth rejects requests without a valid bearer token. An empty secretKey
// disables the check.
func Auth(secretKey string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secretKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			logger := zerolog.Ctx(r.Context()).With().Str(log.KeyTag, "middleware Auth").Logger()
			c := logger.WithContext(r.Context())

			authorization := r.Header.Get(inHttp.HeaderAuthorization)
			if len(authorization) <= len(inHttp.AuthorizationBearer) ||
				!strings.EqualFold(authorization[:len(inHttp.AuthorizationBearer)], inHttp.AuthorizationBearer) {
				logger.Error().Err(inErrors.ErrEmptyAuth).Msg(inErrors.ErrEmptyAuth.Error())
				inHttp.WriteFailed(c, w, http.StatusUnauthorized, inErrors.ErrEmptyAuth.Error())
				return
			}

			token, err := auth.VerifyToken(c, secretKey, authorization[len(inHttp.AuthorizationBearer):])
			if err != nil {
				logger.Error().Err(err).Msg(err.Error())
				inHttp.WriteFailed(c, w, http.StatusUnauthorized, inErrors.ErrTokenInvalid.Error())
				return
			}

			c = auth.AttachJwtTokenToContext(c, token)
			next.ServeHTTP(w, r.WithContext(c))
		})
	}
}

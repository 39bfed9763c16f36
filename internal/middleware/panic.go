package middleware

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	inErrors "github.com/Alturino/shopcart/internal/errors"
	inHttp "github.com/Alturino/shopcart/internal/http"
	"github.com/Alturino/shopcart/internal/otel"
)

func RecoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, span := otel.Tracer.Start(r.Context(), "middleware RecoverPanic")
		defer span.End()

		logger := zerolog.Ctx(c).With().Logger()
		defer func() {
			if recovered := recover(); recovered != nil {
				err, ok := recovered.(error)
				if !ok {
					err = fmt.Errorf("%v", recovered)
				}
				logger.Error().Err(err).Stack().Msg("recovered from panic")
				inErrors.HandleError(err, span)
				inHttp.WriteFailed(c, w, http.StatusInternalServerError, inHttp.MessageInternalServer)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

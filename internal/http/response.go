package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	inErrors "github.com/Alturino/shopcart/internal/errors"
	"github.com/Alturino/shopcart/internal/otel"
)

func WriteJsonResponse(
	c context.Context,
	w http.ResponseWriter,
	header map[string]string,
	body map[string]interface{},
) {
	c, span := otel.Tracer.Start(c, "WriteJsonResponse")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str("tag", "WriteJsonResponse").Logger()

	w.Header().Set(HeaderContentType, HeaderValueJson)
	for k, v := range header {
		w.Header().Add(k, v)
	}

	if v, ok := body["statusCode"].(int); ok {
		w.WriteHeader(v)
	}

	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msgf("failed encode response body with error=%s", err.Error())
		return
	}
}

func WriteFailed(c context.Context, w http.ResponseWriter, statusCode int, message string) {
	WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     StatusFailed,
		"statusCode": statusCode,
		"message":    message,
	})
}

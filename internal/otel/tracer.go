package otel

import (
	"go.opentelemetry.io/otel"

	"github.com/Alturino/shopcart/internal/constants"
)

var Tracer = otel.Tracer(constants.APP_SHOPCART)

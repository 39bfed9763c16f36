package auth

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/Alturino/shopcart/internal/constants"
	inErrors "github.com/Alturino/shopcart/internal/errors"
	"github.com/Alturino/shopcart/internal/log"
	"github.com/Alturino/shopcart/internal/otel"
)

type jwtTokenKey struct{}

func AttachJwtTokenToContext(c context.Context, token *jwt.Token) context.Context {
	return context.WithValue(c, jwtTokenKey{}, token)
}

func JwtTokenFromContext(c context.Context) *jwt.Token {
	token, ok := c.Value(jwtTokenKey{}).(*jwt.Token)
	if !ok {
		return nil
	}
	return token
}

func VerifyToken(c context.Context, secretKey string, token string) (*jwt.Token, error) {
	c, span := otel.Tracer.Start(c, "VerifyToken")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "VerifyToken").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "parsing claims").Logger()
	logger.Trace().Msg("parsing claims")
	jwtToken, err := jwt.ParseWithClaims(token,
		&jwt.RegisteredClaims{},
		func(t *jwt.Token) (interface{}, error) {
			return []byte(secretKey), nil
		},
		jwt.WithAudience(constants.AUDIENCE_USER),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithIssuer(constants.ISSUER_USER),
	)
	if err != nil {
		err = fmt.Errorf("failed parsing claims with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Trace().Msg("parsed claims")

	logger = logger.With().Str(log.KeyProcess, "validating token").Logger()
	logger.Trace().Msg("validating token")
	if !jwtToken.Valid {
		err = fmt.Errorf("failed validating token with error=%w", inErrors.ErrTokenInvalid)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	subject, err := jwtToken.Claims.GetSubject()
	if err != nil || subject == "" {
		err = fmt.Errorf("failed validating token with error=%w", inErrors.ErrEmptySubject)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Trace().Msg("validated token")

	return jwtToken, nil
}

// AuthorizeUser fails with ErrUserMismatch when a verified token is attached
// to c and its subject differs from userID. Without a token it allows the call.
func AuthorizeUser(c context.Context, userID string) error {
	token := JwtTokenFromContext(c)
	if token == nil {
		return nil
	}
	subject, err := token.Claims.GetSubject()
	if err != nil {
		return fmt.Errorf("failed getting subject with error=%w", err)
	}
	if subject != userID {
		return fmt.Errorf("failed authorizing userId=%s with error=%w", userID, inErrors.ErrUserMismatch)
	}
	return nil
}

package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/shopcart/internal/constants"
	inErrors "github.com/Alturino/shopcart/internal/errors"
)

func signToken(t *testing.T, secret string, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func validClaims() jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		Issuer:    constants.ISSUER_USER,
		Subject:   "user-1",
		Audience:  jwt.ClaimStrings{constants.AUDIENCE_USER},
		IssuedAt:  jwt.NewNumericDate(now.Add(-time.Minute)),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}
}

func TestVerifyToken(t *testing.T) {
	secret := "secret"

	tests := []struct {
		name        string
		token       func() string
		expectedErr error
		wantErr     bool
	}{
		{
			name:  "given valid token should return parsed token",
			token: func() string { return signToken(t, secret, validClaims()) },
		},
		{
			name: "given token signed with other secret should return error",
			token: func() string {
				return signToken(t, "other", validClaims())
			},
			wantErr: true,
		},
		{
			name: "given expired token should return error",
			token: func() string {
				claims := validClaims()
				claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
				return signToken(t, secret, claims)
			},
			wantErr: true,
		},
		{
			name: "given token without subject should return empty subject error",
			token: func() string {
				claims := validClaims()
				claims.Subject = ""
				return signToken(t, secret, claims)
			},
			wantErr:     true,
			expectedErr: inErrors.ErrEmptySubject,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := VerifyToken(context.Background(), secret, tt.token())
			if !tt.wantErr {
				require.NoError(t, err)
				subject, err := token.Claims.GetSubject()
				require.NoError(t, err)
				assert.Equal(t, "user-1", subject)
				return
			}
			assert.Error(t, err)
			assert.Nil(t, token)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
			}
		})
	}
}

func TestAuthorizeUser(t *testing.T) {
	c := context.Background()
	assert.NoError(t, AuthorizeUser(c, "anyone"))

	token, err := VerifyToken(c, "secret", signToken(t, "secret", validClaims()))
	require.NoError(t, err)
	c = AttachJwtTokenToContext(c, token)

	assert.NoError(t, AuthorizeUser(c, "user-1"))
	assert.ErrorIs(t, AuthorizeUser(c, "user-2"), inErrors.ErrUserMismatch)
}

// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package access

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/relabs-tech/bistroboss/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_IssueVerify(t *testing.T) {
	tokens := NewTokenService("s3cret")

	token, err := tokens.Issue("guest@bistro.test")
	require.NoError(t, err)

	identity, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "guest@bistro.test", identity)
}

func TestTokenService_Expired(t *testing.T) {
	tokens := NewTokenService("s3cret").WithLifetime(-time.Minute)

	token, err := tokens.Issue("guest@bistro.test")
	require.NoError(t, err)

	_, err = tokens.Verify(token)
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestTokenService_WrongSecret(t *testing.T) {
	token, err := NewTokenService("s3cret").Issue("guest@bistro.test")
	require.NoError(t, err)

	_, err = NewTokenService("other").Verify(token)
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestTokenService_Malformed(t *testing.T) {
	_, err := NewTokenService("s3cret").Verify("not.a.token")
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestTokenService_MissingIdentity(t *testing.T) {
	claims := jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	_, err = NewTokenService("s3cret").Verify(token)
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestTokenService_UnsignedToken(t *testing.T) {
	claims := tokenClaims{EMail: "guest@bistro.test"}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenService("s3cret").Verify(token)
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestBearerToken(t *testing.T) {
	for header, want := range map[string]string{
		"Bearer abc.def.ghi": "abc.def.ghi",
		"bearer abc.def.ghi": "abc.def.ghi",
	} {
		got, err := BearerToken(header)
		assert.NoError(t, err, header)
		assert.Equal(t, want, got)
	}

	for _, header := range []string{"", "Bearer", "Bearer ", "Bearer null", "Basic abc", "abc.def.ghi"} {
		_, err := BearerToken(header)
		assert.ErrorIs(t, err, core.ErrTokenMissing, header)
	}
}

package service

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/budget-calc-api/internal/models"
	"github.com/noah-isme/budget-calc-api/pkg/config"
)

func testCodec(ttl time.Duration) *Codec {
	return NewCodec(config.JWTConfig{Secret: "test-secret", AccessTokenExpiry: ttl})
}

func TestCodecRoundTrip(t *testing.T) {
	codec := testCodec(time.Hour)

	claims := &models.ClaimSet{}
	claims.Add(models.ClaimID, "u1")
	claims.Add(models.ClaimEmail, "a@b.c")
	claims.Add(models.ClaimSubject, "a@b.c")
	claims.Add(models.ClaimJTI, "jti-1")
	claims.Add(models.ClaimRole, "Mortal")
	claims.Add(models.ClaimRole, "Immortal")

	token, err := codec.Encode(claims)
	require.NoError(t, err)

	decoded, err := codec.Decode(token, DecodeOptions{ValidateExpiry: true})
	require.NoError(t, err)

	assert.Equal(t, "HS256", decoded.Algorithm)
	assert.Equal(t, claims.Claims, decoded.Claims.Claims)
	assert.Equal(t, "jti-1", decoded.Claims.JTI())
	assert.Equal(t, []string{"Mortal", "Immortal"}, decoded.Claims.All(models.ClaimRole))
	assert.WithinDuration(t, time.Now().Add(time.Hour), decoded.Claims.ExpiresAt, time.Minute)
}

func TestCodecDecodeExpired(t *testing.T) {
	codec := testCodec(time.Hour)
	codec.timeSource = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	claims := &models.ClaimSet{}
	claims.Add(models.ClaimJTI, "jti-1")
	token, err := codec.Encode(claims)
	require.NoError(t, err)

	codec.timeSource = time.Now

	_, err = codec.Decode(token, DecodeOptions{ValidateExpiry: true})
	assert.ErrorIs(t, err, ErrTokenExpired)

	decoded, err := codec.Decode(token, DecodeOptions{ValidateExpiry: false})
	require.NoError(t, err)
	assert.Equal(t, "jti-1", decoded.Claims.JTI())
	assert.True(t, decoded.Claims.ExpiresAt.Before(time.Now()))
}

func TestCodecDecodeMalformed(t *testing.T) {
	codec := testCodec(time.Hour)

	_, err := codec.Decode("not.a.jwt", DecodeOptions{})
	assert.ErrorIs(t, err, ErrMalformedToken)

	_, err = codec.Decode("", DecodeOptions{})
	assert.ErrorIs(t, err, ErrMalformedToken)
}

func TestCodecDecodeBadSignature(t *testing.T) {
	codec := testCodec(time.Hour)
	other := NewCodec(config.JWTConfig{Secret: "other-secret", AccessTokenExpiry: time.Hour})

	claims := &models.ClaimSet{}
	claims.Add(models.ClaimJTI, "jti-1")
	token, err := other.Encode(claims)
	require.NoError(t, err)

	_, err = codec.Decode(token, DecodeOptions{})
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestCodecDecodeUnsupportedAlgorithm(t *testing.T) {
	codec := testCodec(time.Hour)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"jti": "jti-1"})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = codec.Decode(token, DecodeOptions{})
	assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)
}

func TestNewRefreshTokenValue(t *testing.T) {
	value, err := newRefreshTokenValue()
	require.NoError(t, err)

	// 35 random characters plus a 36-character UUID.
	assert.Len(t, value, 71)
	assert.Equal(t, 4, strings.Count(value[35:], "-"))

	other, err := newRefreshTokenValue()
	require.NoError(t, err)
	assert.NotEqual(t, value, other)
}

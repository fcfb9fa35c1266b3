package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimSetMarshalPreservesOrderAndDuplicates(t *testing.T) {
	cs := &ClaimSet{}
	cs.Add(ClaimID, "u1")
	cs.Add(ClaimEmail, "a@b.c")
	cs.Add(ClaimSubject, "a@b.c")
	cs.Add(ClaimJTI, "jti-1")
	cs.Add(ClaimRole, "Mortal")
	cs.Add("scope", "read")
	cs.Add("scope", "write")
	cs.IssuedAt = time.Unix(1700000000, 0).UTC()
	cs.ExpiresAt = time.Unix(1700018000, 0).UTC()

	raw, err := json.Marshal(cs)
	require.NoError(t, err)

	want := `{"id":"u1","email":"a@b.c","sub":"a@b.c","jti":"jti-1","role":"Mortal","scope":"read","scope":"write","iat":1700000000,"exp":1700018000}`
	assert.Equal(t, want, string(raw))
}

func TestClaimSetRoundTrip(t *testing.T) {
	cs := &ClaimSet{}
	cs.Add(ClaimID, "u1")
	cs.Add(ClaimRole, "Mortal")
	cs.Add(ClaimRole, "Immortal")
	cs.Add("scope", "read")
	cs.IssuedAt = time.Unix(1700000000, 0).UTC()
	cs.ExpiresAt = time.Unix(1700018000, 0).UTC()

	raw, err := json.Marshal(cs)
	require.NoError(t, err)

	decoded := &ClaimSet{}
	require.NoError(t, json.Unmarshal(raw, decoded))

	assert.Equal(t, cs.Claims, decoded.Claims)
	assert.Equal(t, cs.IssuedAt, decoded.IssuedAt)
	assert.Equal(t, cs.ExpiresAt, decoded.ExpiresAt)
	assert.Equal(t, []string{"Mortal", "Immortal"}, decoded.All(ClaimRole))
}

func TestClaimSetAccessors(t *testing.T) {
	cs := &ClaimSet{}
	cs.Add(ClaimJTI, "first")
	cs.Add(ClaimJTI, "second")

	assert.Equal(t, "first", cs.JTI())

	_, ok := cs.Get("missing")
	assert.False(t, ok)
	assert.Nil(t, cs.All("missing"))
}

func TestClaimSetUnmarshalNonStringValues(t *testing.T) {
	decoded := &ClaimSet{}
	require.NoError(t, json.Unmarshal([]byte(`{"id":"u1","nbf":123,"exp":1700018000}`), decoded))

	v, ok := decoded.Get("nbf")
	assert.True(t, ok)
	assert.Equal(t, "123", v)
	assert.Equal(t, time.Unix(1700018000, 0).UTC(), decoded.ExpiresAt)
}

func TestClaimSetJWTInterface(t *testing.T) {
	cs := ClaimSet{ExpiresAt: time.Unix(1700018000, 0).UTC()}
	cs.Add(ClaimSubject, "a@b.c")

	exp, err := cs.GetExpirationTime()
	require.NoError(t, err)
	assert.Equal(t, int64(1700018000), exp.Unix())

	iat, err := cs.GetIssuedAt()
	require.NoError(t, err)
	assert.Nil(t, iat)

	sub, err := cs.GetSubject()
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", sub)
}

package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claim names used by the token pipeline.
const (
	ClaimID      = "id"
	ClaimEmail   = "email"
	ClaimSubject = "sub"
	ClaimJTI     = "jti"
	ClaimRole    = "role"
)

// Claim is a single typed assertion about the authenticated subject.
type Claim struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// ClaimSet is an ordered, duplicate-preserving list of claims plus the
// token's temporal bounds. Role claims and user claims are concatenated
// without deduplication, so the same (type, value) pair may appear more
// than once. Implements jwt.Claims.
type ClaimSet struct {
	Claims    []Claim
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Add appends a claim, keeping insertion order.
func (cs *ClaimSet) Add(claimType, value string) {
	cs.Claims = append(cs.Claims, Claim{Type: claimType, Value: value})
}

// Get returns the first claim value of the given type.
func (cs *ClaimSet) Get(claimType string) (string, bool) {
	for _, c := range cs.Claims {
		if c.Type == claimType {
			return c.Value, true
		}
	}
	return "", false
}

// All returns every value recorded for the given claim type, in order.
func (cs *ClaimSet) All(claimType string) []string {
	var values []string
	for _, c := range cs.Claims {
		if c.Type == claimType {
			values = append(values, c.Value)
		}
	}
	return values
}

// JTI returns the unique token identifier claim.
func (cs *ClaimSet) JTI() string {
	v, _ := cs.Get(ClaimJTI)
	return v
}

// MarshalJSON writes the claims as a JSON object in insertion order.
// Duplicate claim types produce duplicate keys; every consumer of these
// tokens reads them through a streaming decoder, so nothing is lost.
func (cs ClaimSet) MarshalJSON() ([]byte, error) {
	buf := &bytes.Buffer{}
	buf.WriteByte('{')

	first := true
	writeKey := func(key string) error {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		encoded, err := json.Marshal(key)
		if err != nil {
			return err
		}
		buf.Write(encoded)
		buf.WriteByte(':')
		return nil
	}

	for _, c := range cs.Claims {
		if err := writeKey(c.Type); err != nil {
			return nil, err
		}
		encoded, err := json.Marshal(c.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(encoded)
	}

	if !cs.IssuedAt.IsZero() {
		if err := writeKey("iat"); err != nil {
			return nil, err
		}
		fmt.Fprintf(buf, "%d", cs.IssuedAt.Unix())
	}
	if !cs.ExpiresAt.IsZero() {
		if err := writeKey("exp"); err != nil {
			return nil, err
		}
		fmt.Fprintf(buf, "%d", cs.ExpiresAt.Unix())
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the payload token by token so duplicate keys and
// their original order survive the round trip.
func (cs *ClaimSet) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("claim set: expected JSON object")
	}

	cs.Claims = nil
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("claim set: non-string key")
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}

		switch key {
		case "exp":
			ts, err := parseEpoch(raw)
			if err != nil {
				return fmt.Errorf("claim set: exp: %w", err)
			}
			cs.ExpiresAt = ts
		case "iat":
			ts, err := parseEpoch(raw)
			if err != nil {
				return fmt.Errorf("claim set: iat: %w", err)
			}
			cs.IssuedAt = ts
		default:
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				s = string(raw)
			}
			cs.Claims = append(cs.Claims, Claim{Type: key, Value: s})
		}
	}

	// consume closing brace
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

func parseEpoch(raw json.RawMessage) (time.Time, error) {
	var seconds json.Number
	if err := json.Unmarshal(raw, &seconds); err != nil {
		return time.Time{}, err
	}
	n, err := seconds.Int64()
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(n, 0).UTC(), nil
}

// GetExpirationTime implements jwt.Claims.
func (cs ClaimSet) GetExpirationTime() (*jwt.NumericDate, error) {
	if cs.ExpiresAt.IsZero() {
		return nil, nil
	}
	return jwt.NewNumericDate(cs.ExpiresAt), nil
}

// GetIssuedAt implements jwt.Claims.
func (cs ClaimSet) GetIssuedAt() (*jwt.NumericDate, error) {
	if cs.IssuedAt.IsZero() {
		return nil, nil
	}
	return jwt.NewNumericDate(cs.IssuedAt), nil
}

// GetNotBefore implements jwt.Claims.
func (cs ClaimSet) GetNotBefore() (*jwt.NumericDate, error) { return nil, nil }

// GetIssuer implements jwt.Claims.
func (cs ClaimSet) GetIssuer() (string, error) { return "", nil }

// GetSubject implements jwt.Claims.
func (cs ClaimSet) GetSubject() (string, error) {
	v, _ := cs.Get(ClaimSubject)
	return v, nil
}

// GetAudience implements jwt.Claims.
func (cs ClaimSet) GetAudience() (jwt.ClaimStrings, error) { return nil, nil }

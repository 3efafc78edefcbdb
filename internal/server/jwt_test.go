package server

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jonathan/cv-builder/internal/config"
	"github.com/jonathan/cv-builder/internal/plans"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-jwt-signing-minimum-32-bytes"

func setupTestJWTService(_ *testing.T, expirationHours int) *JWTService {
	return NewJWTService(&config.JWTConfig{Secret: testSecret, ExpirationHours: expirationHours})
}

func TestJWTService_GenerateAndValidate(t *testing.T) {
	service := setupTestJWTService(t, 24)

	token, err := service.GenerateToken("user-42", plans.PlanPremium)
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3)

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, plans.Identity{UserID: "user-42", Plan: plans.PlanPremium}, claims.GetIdentity())

	ttl := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	assert.Equal(t, 24*time.Hour, ttl)
}

func TestJWTService_GenerateToken_RequiresUser(t *testing.T) {
	service := setupTestJWTService(t, 24)
	_, err := service.GenerateToken("", plans.PlanFree)
	assert.Error(t, err)
}

func TestJWTService_ValidateToken_InvalidSignature(t *testing.T) {
	other := NewJWTService(&config.JWTConfig{Secret: "another-secret-of-sufficient-length!!", ExpirationHours: 1})
	token, err := other.GenerateToken("user-1", plans.PlanFree)
	require.NoError(t, err)

	claims, err := setupTestJWTService(t, 1).ValidateToken(token)
	assert.Nil(t, claims)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "signature")
}

func TestJWTService_ValidateToken_Malformed(t *testing.T) {
	service := setupTestJWTService(t, 24)

	for _, token := range []string{"", "not-a-jwt", "a.b", "a.b.c"} {
		claims, err := service.ValidateToken(token)
		assert.Error(t, err, token)
		assert.Nil(t, claims, token)
	}
}

func TestJWTService_ValidateToken_Expired(t *testing.T) {
	service := setupTestJWTService(t, 24)
	past := time.Now().Add(-2 * time.Hour)

	claims := &Claims{
		Plan: plans.PlanFree,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(past.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(past),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	got, err := service.ValidateToken(token)
	assert.Nil(t, got)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}

func TestJWTService_ValidateToken_NoSubject(t *testing.T) {
	service := setupTestJWTService(t, 24)
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = service.ValidateToken(token)
	assert.ErrorContains(t, err, "subject")
}

func TestJWTService_ValidateToken_RejectsNone(t *testing.T) {
	service := setupTestJWTService(t, 24)
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = service.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTService_AsTokenValidator(t *testing.T) {
	service := setupTestJWTService(t, 24)
	token, err := service.GenerateToken("user-7", plans.PlanFree)
	require.NoError(t, err)

	got, err := service.AsTokenValidator().ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-7", got.GetIdentity().UserID)

	_, err = service.AsTokenValidator().ValidateToken("garbage")
	assert.Error(t, err)
}

func newTestJWKS(t *testing.T) (*rsa.PrivateKey, keyfunc.Keyfunc) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	set := map[string]any{
		"keys": []map[string]string{{
			"kty": "RSA",
			"kid": "test-key",
			"alg": "RS256",
			"use": "sig",
			"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
		}},
	}
	raw, err := json.Marshal(set)
	require.NoError(t, err)

	kf, err := keyfunc.NewJWKSetJSON(raw)
	require.NoError(t, err)
	return key, kf
}

func signRS256(t *testing.T, key *rsa.PrivateKey, claims *Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = "test-key"
	s, err := token.SignedString(key)
	require.NoError(t, err)
	return s
}

func TestJWKSVerifier_ValidateToken(t *testing.T) {
	key, kf := newTestJWKS(t)
	v := &JWKSVerifier{jwks: kf}

	token := signRS256(t, key, &Claims{
		Plan: plans.PlanPremium,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "idp-user",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	got, err := v.AsTokenValidator().ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, plans.Identity{UserID: "idp-user", Plan: plans.PlanPremium}, got.GetIdentity())
}

func TestJWKSVerifier_RejectsForeignKeyAndHMAC(t *testing.T) {
	_, kf := newTestJWKS(t)
	v := &JWKSVerifier{jwks: kf}

	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	forged := signRS256(t, other, &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "idp-user"}})
	_, err = v.ValidateToken(forged)
	assert.Error(t, err)

	hmacToken, err := setupTestJWTService(t, 1).GenerateToken("idp-user", plans.PlanFree)
	require.NoError(t, err)
	_, err = v.ValidateToken(hmacToken)
	assert.Error(t, err)
}

func TestNewJWKSVerifier_EmptyURL(t *testing.T) {
	_, err := NewJWKSVerifier(t.Context(), "")
	assert.Error(t, err)
}

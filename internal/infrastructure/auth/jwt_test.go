package auth

import (
	"testing"
	"time"

	"github.com/awr/backend/internal/domain/issuance"
	"github.com/awr/backend/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "test-issuer",
	})
}

func TestNewJWTService(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:                "test-secret",
		AccessTokenExpiration: time.Hour,
		Issuer:                "test-issuer",
	}

	svc := NewJWTService(cfg)

	assert.Equal(t, []byte(cfg.Secret), svc.secret)
	assert.Equal(t, cfg.Issuer, svc.issuer)
	assert.Equal(t, time.Hour, svc.GetAccessTokenExpiration())
}

func TestGenerateAccessToken(t *testing.T) {
	svc := newTestJWTService()

	token, err := svc.GenerateAccessToken("qa1", issuance.RoleQA)

	require.NoError(t, err)
	assert.NotEmpty(t, token.Token)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.True(t, token.ExpiresAt.After(time.Now()))
}

func TestGenerateAccessToken_MissingUsername(t *testing.T) {
	_, err := newTestJWTService().GenerateAccessToken("", issuance.RoleQA)
	assert.ErrorIs(t, err, ErrMissingUsername)
}

func TestValidateAccessToken_Success(t *testing.T) {
	svc := newTestJWTService()
	token, err := svc.GenerateAccessToken("qa1", issuance.RoleQA)
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(token.Token)

	require.NoError(t, err)
	assert.Equal(t, "qa1", claims.Username)
	assert.Equal(t, "QA", claims.Role)
	assert.Equal(t, "qa1", claims.Subject)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, issuance.Actor{Username: "qa1", Role: issuance.RoleQA}, claims.Actor())
	assert.WithinDuration(t, token.ExpiresAt, claims.GetExpiresAtTime(), time.Second)
}

func TestValidateAccessToken_UniqueTokenIDs(t *testing.T) {
	svc := newTestJWTService()
	a, err := svc.GenerateAccessToken("alice", issuance.RoleRequester)
	require.NoError(t, err)
	b, err := svc.GenerateAccessToken("alice", issuance.RoleRequester)
	require.NoError(t, err)

	ca, err := svc.ValidateAccessToken(a.Token)
	require.NoError(t, err)
	cb, err := svc.ValidateAccessToken(b.Token)
	require.NoError(t, err)
	assert.NotEqual(t, ca.ID, cb.ID)
}

func TestValidateAccessToken_ExpiredToken(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: -1 * time.Hour,
		Issuer:                "test-issuer",
	})
	token, err := svc.GenerateAccessToken("alice", issuance.RoleRequester)
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token.Token)

	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateAccessToken_InvalidToken(t *testing.T) {
	_, err := newTestJWTService().ValidateAccessToken("invalid-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateAccessToken_DifferentSecret(t *testing.T) {
	token, err := newTestJWTService().GenerateAccessToken("alice", issuance.RoleAdmin)
	require.NoError(t, err)

	other := NewJWTService(config.JWTConfig{
		Secret:                "another-secret-key-at-least-32-c",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "test-issuer",
	})
	_, err = other.ValidateAccessToken(token.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateAccessToken_WrongIssuer(t *testing.T) {
	token, err := newTestJWTService().GenerateAccessToken("alice", issuance.RoleAdmin)
	require.NoError(t, err)

	other := NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "someone-else",
	})
	_, err = other.ValidateAccessToken(token.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateAccessToken_RejectsNoneAlgorithm(t *testing.T) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "test-issuer",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Username: "mallory",
		Role:     "Admin",
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newTestJWTService().ValidateAccessToken(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateAccessToken_MissingUsername(t *testing.T) {
	svc := newTestJWTService()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "test-issuer",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: "QA",
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(svc.secret)
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(signed)
	assert.ErrorIs(t, err, ErrMissingUsername)
}

func TestClaims_ActorDefaultsUnknownRole(t *testing.T) {
	c := &Claims{Username: " bob ", Role: "superuser"}
	assert.Equal(t, issuance.Actor{Username: "bob", Role: issuance.RoleRequester}, c.Actor())
}

package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-jwt-testing"

func TestGenerateTokenPair(t *testing.T) {
	tokens, err := GenerateTokenPair(7, "buyer@example.com", "customer", testSecret, 15*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)
	require.NotNil(t, tokens)

	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.NotEqual(t, tokens.AccessToken, tokens.RefreshToken)

	access, err := ValidateToken(tokens.AccessToken, testSecret)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeAccess, access.TokenType)

	refresh, err := ValidateToken(tokens.RefreshToken, testSecret)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, refresh.TokenType)
}

func TestValidateToken(t *testing.T) {
	tokens, err := GenerateTokenPair(123, "buyer@example.com", "customer", testSecret, 15*time.Minute, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		secret  string
		wantErr error
	}{
		{name: "valid access token", token: tokens.AccessToken, secret: testSecret},
		{name: "wrong secret", token: tokens.AccessToken, secret: "wrong-secret", wantErr: ErrInvalidToken},
		{name: "garbage", token: "invalid.token.format", secret: testSecret, wantErr: ErrInvalidToken},
		{name: "empty", token: "", secret: testSecret, wantErr: ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ValidateToken(tt.token, tt.secret)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, uint(123), claims.UserID)
			assert.Equal(t, "buyer@example.com", claims.Email)
			assert.Equal(t, "customer", claims.Role)
			assert.True(t, claims.IssuedAt.Before(claims.ExpiresAt.Time))
		})
	}
}

func TestExpiredToken(t *testing.T) {
	tokens, err := GenerateTokenPair(1, "buyer@example.com", "customer", testSecret, time.Nanosecond, time.Nanosecond)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	claims, err := ValidateToken(tokens.AccessToken, testSecret)
	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.Nil(t, claims)
}

func TestAdminToken(t *testing.T) {
	token, err := GenerateAdminToken("admin_1700000000000_abcd", testSecret, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateAdminToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "admin_1700000000000_abcd", claims.ID)
	assert.Equal(t, "admin", claims.Role)

	_, err = ValidateAdminToken(token, "other-secret")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAdminTokenRejectsCustomerToken(t *testing.T) {
	tokens, err := GenerateTokenPair(5, "buyer@example.com", "customer", testSecret, time.Hour, time.Hour)
	require.NoError(t, err)

	_, err = ValidateAdminToken(tokens.AccessToken, testSecret)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAdminTokenExpired(t *testing.T) {
	token, err := GenerateAdminToken("admin_1_ff", testSecret, time.Nanosecond)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	_, err = ValidateAdminToken(token, testSecret)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	m, err := NewManager("secret")
	require.NoError(t, err)

	token, err := m.NewJWT("user-1", time.Hour)
	require.NoError(t, err)

	userID, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestTokenRejections(t *testing.T) {
	m, _ := NewManager("secret")
	other, _ := NewManager("other")

	t.Run("wrong key", func(t *testing.T) {
		token, err := other.NewJWT("user-1", time.Hour)
		require.NoError(t, err)
		_, err = m.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		token, err := m.NewJWT("user-1", -time.Minute)
		require.NoError(t, err)
		_, err = m.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("access token is not a phone token", func(t *testing.T) {
		token, err := m.NewJWT("user-1", time.Hour)
		require.NoError(t, err)
		_, err = m.ParsePhoneToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("empty key", func(t *testing.T) {
		_, err := NewManager("")
		assert.Error(t, err)
	})
}

func TestPhoneToken(t *testing.T) {
	m, _ := NewManager("secret")
	token, err := m.NewPhoneToken("01012345678", 10*time.Minute)
	require.NoError(t, err)

	phone, err := m.ParsePhoneToken(token)
	require.NoError(t, err)
	assert.Equal(t, "01012345678", phone)
}

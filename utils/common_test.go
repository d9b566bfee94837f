package utils

import (
	"testing"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUser(t *testing.T) {
	c, _ := newTestContext()
	c.Set("user", jwt.MapClaims{
		"id":       "64b000000000000000000001",
		"username": "north-rm",
		"role":     "REGIONAL_MANAGER",
		"ownerId":  "rm-17",
	})

	user, err := GetUser(c)

	require.NoError(t, err)
	assert.Equal(t, "north-rm", user.Username)
	assert.Equal(t, "rm-17", user.OwnerID)
	assert.True(t, user.IsRegionalManager())
}

func TestGetUserErrors(t *testing.T) {
	c, _ := newTestContext()
	_, err := GetUser(c)
	assert.Error(t, err)

	c.Set("user", map[string]interface{}{"id": "x", "username": "analyst"})
	_, err = GetUser(c)
	assert.Error(t, err)

	c.Set("user", "raw-string")
	_, err = GetUser(c)
	assert.Error(t, err)
}

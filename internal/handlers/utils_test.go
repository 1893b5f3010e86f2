package handlers

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTokenFromCookie(t *testing.T) {
	assert.Equal(t, "abc123", extractTokenFromCookie("auth_token=abc123"))
	assert.Equal(t, "abc123", extractTokenFromCookie("session=x; auth_token=abc123; other=y"))
	assert.Equal(t, "", extractTokenFromCookie("session=x; other=y"))
	assert.Equal(t, "", extractTokenFromCookie(""))
}

func TestGameIDFromPath(t *testing.T) {
	id := uuid.New()

	parsed, err := gameIDFromPath("/game/state/"+id.String(), "/game/state/")
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	parsed, err = gameIDFromPath("/game/state/"+id.String()+"/extra", "/game/state/")
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = gameIDFromPath("/game/state/not-a-uuid", "/game/state/")
	require.Error(t, err)
}

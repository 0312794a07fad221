package services

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	require.NotEqual(t, "correct horse", hash)

	require.True(t, CheckPassword("correct horse", hash))
	require.False(t, CheckPassword("wrong horse", hash))
	require.False(t, CheckPassword("", hash))
}

func TestCheckPasswordBadHash(t *testing.T) {
	t.Parallel()

	require.False(t, CheckPassword("anything", "not-a-bcrypt-hash"))
}

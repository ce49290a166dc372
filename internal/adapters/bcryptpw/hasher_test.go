package bcryptpw

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashCompare(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	hash, err := h.Hash("correct horse battery")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery", hash)

	assert.NoError(t, h.Compare(hash, "correct horse battery"))
	assert.ErrorIs(t, h.Compare(hash, "wrong password"), ErrMismatch)
}

func TestCompare_CorruptHash(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	err := h.Compare("not-a-bcrypt-hash", "anything")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMismatch)
}

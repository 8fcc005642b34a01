package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindRole(t *testing.T) {
	assert.Equal(t, RoleAdmin, KindAdmin.Role())
	assert.Equal(t, RoleNonAdmin, KindRegular.Role())
	assert.Equal(t, "admin", KindAdmin.String())
	assert.Equal(t, "regular", KindRegular.String())
	assert.Equal(t, "unknown", Kind(7).String())
}

func TestPrincipal_HashNeverSerialised(t *testing.T) {
	p := &Principal{ID: "1", Username: "alice", PasswordHash: "$2a$12$secret", Role: RoleAdmin}

	b, err := json.Marshal(p)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "secret")

	pub := p.Public()
	assert.Empty(t, pub.PasswordHash)
	assert.Equal(t, "$2a$12$secret", p.PasswordHash, "original untouched")
}

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	assert.Len(t, a, 32)
	assert.Regexp(t, `^[0-9a-f]{32}$`, a)
	assert.NotEqual(t, a, b)
}

func TestProductPatchEmpty(t *testing.T) {
	assert.True(t, ProductPatch{}.Empty())
	q := int64(0)
	assert.False(t, ProductPatch{Quantity: &q}.Empty())
}

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidator_RealmName(t *testing.T) {
	t.Parallel()

	validate, err := newValidator()
	require.NoError(t, err)

	assert.NoError(t, validate.Var("frogs", "realmname"))
	assert.Error(t, validate.Var("", "realmname"))
	assert.Error(t, validate.Var("pond/frogs", "realmname"))
}

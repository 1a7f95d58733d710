package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequentialIDGenerator_Sequence(t *testing.T) {
	gen := NewSequentialIDGenerator("m")

	assert.Equal(t, "m-0001", gen.Generate())
	assert.Equal(t, "m-0002", gen.Generate())
	assert.Equal(t, "m-0003", gen.Generate())
}

func TestSequentialIDGenerator_EmptyPrefixDefault(t *testing.T) {
	gen := NewSequentialIDGenerator("")

	assert.Equal(t, "model-0001", gen.Generate())
}

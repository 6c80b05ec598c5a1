package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequenceGenerator(t *testing.T) {
	gen := NewSequenceGenerator("")
	assert.Equal(t, "act-1", gen.Generate())
	assert.Equal(t, "act-2", gen.Generate())

	custom := NewSequenceGenerator("order")
	assert.Equal(t, "order-1", custom.Generate())
}

func TestFixedGenerator(t *testing.T) {
	gen := NewFixedGenerator("A", "B")
	assert.Equal(t, "A", gen.Generate())
	assert.Equal(t, "B", gen.Generate())
	assert.Panics(t, func() { gen.Generate() })
}

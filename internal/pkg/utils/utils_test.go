package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", Truncate("hello", 10))
	assert.Equal(t, "hel", Truncate("hello", 3))
	assert.Equal(t, "", Truncate("hello", 0))
	// "é" is two bytes; cutting inside it drops the whole rune.
	assert.Equal(t, "caf", Truncate("café", 4))
	assert.Equal(t, "café", Truncate("café", 5))
}

func TestParseInt(t *testing.T) {
	assert.Equal(t, 42, ParseInt(" 42 ", 0))
	assert.Equal(t, 7, ParseInt("x", 7))
	assert.Equal(t, -3, ParseInt("-3", 1))
	assert.Equal(t, 1, ParsePositiveInt("-3", 1))
	assert.Equal(t, 5, ParsePositiveInt("0", 5))
}

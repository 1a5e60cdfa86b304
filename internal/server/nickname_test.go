package server

import (
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateNickname(t *testing.T) {
	t.Parallel()

	for range 50 {
		name := GenerateNickname()
		assert.NotEmpty(t, name)
		assert.True(t, slices.ContainsFunc(adjectives, func(a string) bool {
			return strings.HasPrefix(name, a)
		}), "nickname %q should start with a known adjective", name)
		assert.True(t, slices.ContainsFunc(nouns, func(n string) bool {
			return strings.HasSuffix(name, n)
		}), "nickname %q should end with a known noun", name)
	}
}

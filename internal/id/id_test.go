package id

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var invocationPattern = regexp.MustCompile(`^inv-[0-9a-z]{20}$`)

func TestGenerate_Format(t *testing.T) {
	tests := []struct {
		prefix string
	}{
		{"inv"},
		{"test"},
	}

	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			id, err := Generate(tt.prefix)
			require.NoError(t, err)
			assert.Regexp(t, `^`+tt.prefix+`-[0-9a-z]{20}$`, id)
		})
	}
}

func TestInvocation_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for range 1000 {
		id := Invocation()
		assert.True(t, invocationPattern.MatchString(id), id)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

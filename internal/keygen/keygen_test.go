package keygen

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateFormat(t *testing.T) {
	keyPattern := regexp.MustCompile(`^UPAGER-[0-9A-F]{4}-[0-9A-F]{4}-[0-9A-F]{4}-[0-9A-F]{4}$`)

	for i := 0; i < 50; i++ {
		key, err := Generate()
		assert.NoError(t, err)
		assert.Regexp(t, keyPattern, key)
	}
}

func TestGenerateUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		key, err := Generate()
		assert.NoError(t, err)
		assert.False(t, seen[key], "duplicate key %s", key)
		seen[key] = true
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase", "upager-aaaa-bbbb-cccc-dddd", "UPAGER-AAAA-BBBB-CCCC-DDDD"},
		{"mixed_case", "UpAgEr-AaAa-BbBb-CcCc-DdDd", "UPAGER-AAAA-BBBB-CCCC-DDDD"},
		{"whitespace", "  UPAGER-AAAA-BBBB-CCCC-DDDD\n", "UPAGER-AAAA-BBBB-CCCC-DDDD"},
		{"already_canonical", "UPAGER-AAAA-BBBB-CCCC-DDDD", "UPAGER-AAAA-BBBB-CCCC-DDDD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

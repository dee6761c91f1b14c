package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateExternalToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
		ok    bool
	}{
		{"too short", "abc", false},
		{"minimum length", strings.Repeat("a", MinExternalTokenLength), true},
		{"maximum length", strings.Repeat("a", MaxExternalTokenLength), true},
		{"too long", strings.Repeat("a", MaxExternalTokenLength+1), false},
		{"url safe characters", "tok_ABC-123_xyz-9", true},
		{"whitespace", "tok ABC 123 xyz 9", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateExternalToken(tt.token)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestTokenSourceFor(t *testing.T) {
	assert.Equal(t, Generated{}, TokenSourceFor(""))
	assert.Equal(t, CallerSupplied{Value: "external-token-0001"}, TokenSourceFor("external-token-0001"))
}

package eventworker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmailDomain(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  string
	}{
		{"ordinary address", "jane@example.com", "example.com"},
		{"mixed case is lowercased", "Jane@Example.COM", "example.com"},
		{"no at sign", "not-an-email", ""},
		{"trailing at sign", "jane@", ""},
		{"empty string", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, emailDomain(tt.email))
		})
	}
}

func TestStringMeta(t *testing.T) {
	meta := map[string]any{"company": "Acme", "employees": 50}
	assert.Equal(t, "Acme", stringMeta(meta, "company"))
	assert.Equal(t, "", stringMeta(meta, "employees"))
	assert.Equal(t, "", stringMeta(meta, "missing"))
	assert.Equal(t, "", stringMeta(nil, "company"))
}

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLeadIdentifierEmpty(t *testing.T) {
	tests := []struct {
		name string
		id   LeadIdentifier
		want bool
	}{
		{"zero value is empty", LeadIdentifier{}, true},
		{"email alone is non-empty", LeadIdentifier{Email: "a@b.com"}, false},
		{"portal id alone is non-empty", LeadIdentifier{PortalID: "p-1"}, false},
		{"linkedin url alone is non-empty", LeadIdentifier{LinkedInURL: "https://linkedin.com/in/x"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.id.Empty())
		})
	}
}

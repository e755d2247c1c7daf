package httpapi

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codeready-toolchain/crmcore/internal/config"
)

func TestCheckAPIKey(t *testing.T) {
	auth := config.AuthConfig{APIKeys: map[string]string{
		"hubspot": "hs-secret-1",
		"waalaxy": "wx-secret-2",
	}}

	tests := []struct {
		name     string
		source   string
		provided string
		want     bool
	}{
		{"correct key for named source", "hubspot", "hs-secret-1", true},
		{"wrong key for named source", "hubspot", "wx-secret-2", false},
		{"empty source checks every key", "", "wx-secret-2", true},
		{"unknown source never matches", "unknown", "hs-secret-1", false},
		{"empty provided key never matches", "hubspot", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, checkAPIKey(auth, tt.source, tt.provided))
		})
	}
}

func TestCheckHMAC(t *testing.T) {
	secret := "webhook-secret"
	auth := config.AuthConfig{HMACSecrets: map[string]string{"lemlist": secret}}
	body := []byte(`{"source":"lemlist","event_type":"email_opened"}`)

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	validSig := hex.EncodeToString(mac.Sum(nil))

	tests := []struct {
		name   string
		source string
		body   []byte
		sig    string
		want   bool
	}{
		{"valid signature", "lemlist", body, validSig, true},
		{"tampered body invalidates signature", "lemlist", []byte(`{"source":"lemlist","event_type":"tampered"}`), validSig, false},
		{"wrong signature string", "lemlist", body, "deadbeef", false},
		{"unknown source never matches", "unknown", body, validSig, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, checkHMAC(auth, tt.source, tt.body, tt.sig))
		})
	}
}

func TestPeekSource(t *testing.T) {
	assert.Equal(t, "hubspot", peekSource([]byte(`{"source":"hubspot","event_type":"x"}`)))
	assert.Equal(t, "", peekSource([]byte(`not json`)))
	assert.Equal(t, "", peekSource([]byte(`{}`)))
}

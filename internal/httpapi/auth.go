package httpapi

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codeready-toolchain/crmcore/internal/config"
)

// rawBodyKey is where the raw request body is stashed in the gin context
// so the handler can both authenticate and bind the same bytes.
const rawBodyKey = "crmcore.raw_body"

// authMiddleware authenticates POST /events/ingest via a static-secret
// X-API-Key header or an HMAC-SHA-256 X-Webhook-Signature over the raw
// body, keyed per source. When both headers are present, X-API-Key is
// checked first with a fallback to X-Webhook-Signature; either succeeding
// authenticates the request.
func authMiddleware(auth config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorBody{Error: ErrorDetail{Code: "bad_body", Message: "could not read request body"}})
			c.Abort()
			return
		}
		c.Set(rawBodyKey, body)
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		source := peekSource(body)

		if apiKey := c.GetHeader("X-API-Key"); apiKey != "" {
			if checkAPIKey(auth, source, apiKey) {
				c.Next()
				return
			}
		}
		if sig := c.GetHeader("X-Webhook-Signature"); sig != "" {
			if checkHMAC(auth, source, body, sig) {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusUnauthorized, ErrorBody{Error: ErrorDetail{Code: "unauthorized", Message: "authentication failed"}})
		c.Abort()
	}
}

func peekSource(body []byte) string {
	var env struct {
		Source string `json:"source"`
	}
	_ = json.Unmarshal(body, &env)
	return env.Source
}

func checkAPIKey(auth config.AuthConfig, source, provided string) bool {
	for src, key := range auth.APIKeys {
		if source != "" && src != source {
			continue
		}
		if subtle.ConstantTimeCompare([]byte(key), []byte(provided)) == 1 {
			return true
		}
	}
	return false
}

func checkHMAC(auth config.AuthConfig, source string, body []byte, providedHex string) bool {
	for src, secret := range auth.HMACSecrets {
		if source != "" && src != source {
			continue
		}
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(body)
		expected := hex.EncodeToString(mac.Sum(nil))
		if hmac.Equal([]byte(expected), []byte(providedHex)) {
			return true
		}
	}
	return false
}

package middleware

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/labstack/echo/v4"
)

// requester identifies the caller for rate limiting: the captain id behind
// a JWT, a digest of the guest management token in the path, or "anon".
func requester(c echo.Context) string {
	if id := CaptainID(c); id != "" {
		return "captain:" + id
	}
	if tok := c.Param("token"); tok != "" {
		sum := sha256.Sum256([]byte(tok))
		return "guest:" + hex.EncodeToString(sum[:8])
	}
	return "anon"
}

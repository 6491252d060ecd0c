package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/rand"   // secure random number generation
	"crypto/sha256" // SHA-256 hashing for guest management tokens
	"encoding/hex"  // hex encoding and decoding functions
	"errors"
	"time" // time utilities for generating expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// RoleCaptain is the role claim carried by captain access tokens.
const RoleCaptain = "CAPTAIN"

// AccessToken represents a signed JWT access token along with its expiry.
// The Token field contains the JWT string.  Exp stores the expiration
// timestamp.  Access tokens are encoded in the Authorization header when
// calling the captain endpoints.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// ManageToken is a guest management link token.  Raw is handed to the
// guest exactly once; only Hash is stored.
type ManageToken struct {
	Raw  string
	Hash string
}

// NewAccessToken builds and signs an HS256 JWT for a captain.  The JWT
// includes standard claims: subject (sub), role, expiration (exp) and
// issued at (iat).  Login lives outside this service; the token is minted
// by operators through the CLI or by the identity provider sharing the
// secret.
func NewAccessToken(secret, captainID, role string, ttl time.Duration) (AccessToken, error) {
	if secret == "" {
		return AccessToken{}, errors.New("jwt secret is empty")
	}
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub":  captainID,
		"role": role,
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// NewManageToken returns a random 32-byte token (64 hex chars) and its
// SHA-256 hash.
func NewManageToken() (ManageToken, error) {
	raw, err := randomHex(32)
	if err != nil {
		return ManageToken{}, err
	}
	return ManageToken{Raw: raw, Hash: HashToken(raw)}, nil
}

// HashToken returns the SHA-256 hash of the raw token as a hex string.
// Storing only the hash prevents a leaked database row from being used as
// a management link.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

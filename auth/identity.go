package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
)

var ErrInvalidToken = errors.New("invalid or malformed bearer token")

// Identity is the claim carried by a bearer token. Account management lives
// outside this service; we only consume the signed claim it hands out.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// IsAnonymous reports whether no account identity is attached.
func (i Identity) IsAnonymous() bool {
	return i.ID == "" && i.Email == ""
}

// DisplayName resolves the name shown next to a vote. Falls back to the
// email local part, then to "Anonymous".
func (i Identity) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	if i.Email != "" {
		if at := strings.IndexByte(i.Email, '@'); at > 0 {
			return i.Email[:at]
		}
		return i.Email
	}
	return "Anonymous"
}

// Owns reports whether this identity matches a poll's recorded owner,
// by internal id or email equivalence.
func (i Identity) Owns(ownerID, ownerEmail string) bool {
	if i.ID != "" && ownerID != "" && i.ID == ownerID {
		return true
	}
	if i.Email != "" && ownerEmail != "" && strings.EqualFold(i.Email, ownerEmail) {
		return true
	}
	return false
}

// Sign produces a token of the form base64url(claims) + "." + base64url(hmac).
func Sign(identity Identity, secret string) (string, error) {
	payload, err := json.Marshal(identity)
	if err != nil {
		return "", err
	}
	body := base64.RawURLEncoding.EncodeToString(payload)
	return body + "." + signature(body, secret), nil
}

// Parse verifies the token signature and returns the embedded identity.
func Parse(token, secret string) (Identity, error) {
	body, sig, found := strings.Cut(token, ".")
	if !found || body == "" || sig == "" {
		return Identity{}, ErrInvalidToken
	}
	if !hmac.Equal([]byte(sig), []byte(signature(body, secret))) {
		return Identity{}, ErrInvalidToken
	}

	payload, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}
	var identity Identity
	if err := json.Unmarshal(payload, &identity); err != nil {
		return Identity{}, ErrInvalidToken
	}
	return identity, nil
}

func signature(body, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

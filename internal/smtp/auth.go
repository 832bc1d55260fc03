// Package smtp implements an SMTP server with TLS, authentication, and provider-based delivery.
package smtp

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Authenticator handles SMTP AUTH verification against configured credentials.
type Authenticator struct {
	username string
	password string
}

// NewAuthenticator creates an Authenticator with the given credentials.
// If both username and password are empty, authentication is disabled.
func NewAuthenticator(username, password string) *Authenticator {
	return &Authenticator{
		username: username,
		password: password,
	}
}

// Enabled returns true if authentication credentials are configured.
func (a *Authenticator) Enabled() bool {
	return a.username != "" && a.password != ""
}

// VerifyPlain decodes and verifies an AUTH PLAIN response.
// AUTH PLAIN format: base64(authzid\0authcid\0password); the authorization
// identity is ignored.
func (a *Authenticator) VerifyPlain(encoded string) error {
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("invalid base64 encoding")
	}

	parts := strings.SplitN(string(decoded), "\x00", 3)
	if len(parts) != 3 {
		return fmt.Errorf("invalid AUTH PLAIN format")
	}

	return a.check(parts[1], parts[2])
}

// VerifyLogin verifies AUTH LOGIN credentials after the challenge-response
// flow. Both username and password arrive base64-encoded.
func (a *Authenticator) VerifyLogin(encodedUser, encodedPass string) error {
	user, err := base64.StdEncoding.DecodeString(encodedUser)
	if err != nil {
		return fmt.Errorf("invalid base64 username")
	}

	pass, err := base64.StdEncoding.DecodeString(encodedPass)
	if err != nil {
		return fmt.Errorf("invalid base64 password")
	}

	return a.check(string(user), string(pass))
}

func (a *Authenticator) check(user, pass string) error {
	if user != a.username || pass != a.password {
		return fmt.Errorf("authentication failed")
	}
	return nil
}

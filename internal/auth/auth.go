// Package auth supplies the credentials handed to the feed client.
//
// The feed does not perform login itself: it receives an opaque bearer
// token, and the admin role gate is enforced by the caller before any
// connection is opened.
package auth

import (
	"fmt"
	"os"
	"strings"
)

// Role values recognized by the platform.
const (
	RoleAdmin = "admin"
	RoleAgent = "agent"
)

// Environment variables consulted by FromEnv.
const (
	EnvToken     = "ADMINFEED_TOKEN"
	EnvTokenFile = "ADMINFEED_TOKEN_FILE"
	EnvUserID    = "ADMINFEED_USER_ID"
	EnvRole      = "ADMINFEED_ROLE"
)

// Credentials identify the operator connecting to the admin feed.
type Credentials struct {
	UserID string // Platform user ID, informational
	Role   string // Role string; only admins may connect
	Token  string // Opaque bearer token for the endpoint handshake
}

// FromEnv loads credentials from the environment. The token comes from
// ADMINFEED_TOKEN, or from the file named by ADMINFEED_TOKEN_FILE.
func FromEnv() (*Credentials, error) {
	token := os.Getenv(EnvToken)
	if token == "" {
		if path := os.Getenv(EnvTokenFile); path != "" {
			var err error
			token, err = LoadToken(path)
			if err != nil {
				return nil, err
			}
		}
	}

	creds := &Credentials{
		UserID: os.Getenv(EnvUserID),
		Role:   os.Getenv(EnvRole),
		Token:  token,
	}
	if creds.Role == "" {
		creds.Role = RoleAdmin
	}

	if err := creds.Validate(); err != nil {
		return nil, err
	}
	return creds, nil
}

// LoadToken reads a bearer token from a file, trimming whitespace.
func LoadToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("token file %s is empty", path)
	}
	return token, nil
}

// Validate checks that the credentials can be used at all.
func (c *Credentials) Validate() error {
	if c.Token == "" {
		return fmt.Errorf("token is required (set %s or %s)", EnvToken, EnvTokenFile)
	}
	return nil
}

// IsAdmin reports whether these credentials pass the admin role gate.
func (c *Credentials) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package auth

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"gorm.io/gorm"

	"github.com/tejzpr/memorybook/internal/database"
)

// LocalAuthenticator resolves the OS user running the stdio server to an account
type LocalAuthenticator struct {
	useAccessingUser bool // If true, use ACCESSING_USER env var instead of whoami
	lookup           func() (string, error)
}

// NewLocalAuthenticator creates a local authenticator using whoami
func NewLocalAuthenticator() *LocalAuthenticator {
	return &LocalAuthenticator{}
}

// NewLocalAuthenticatorWithAccessingUser creates a local authenticator that uses ACCESSING_USER env var
func NewLocalAuthenticatorWithAccessingUser() *LocalAuthenticator {
	return &LocalAuthenticator{useAccessingUser: true}
}

// GetLocalUsername gets the username based on configuration:
// - If useAccessingUser is true: use ACCESSING_USER env var (for MCP servers called by authenticated systems)
// - Otherwise: use whoami (default for standalone usage)
func (l *LocalAuthenticator) GetLocalUsername() (string, error) {
	if l.lookup != nil {
		return l.lookup()
	}

	if l.useAccessingUser {
		username := os.Getenv("ACCESSING_USER")
		if username == "" {
			return "", fmt.Errorf("ACCESSING_USER environment variable is required but not set")
		}
		return strings.TrimSpace(username), nil
	}

	output, err := exec.Command("whoami").Output()
	if err != nil {
		return "", fmt.Errorf("failed to get username via whoami: %w", err)
	}
	username := strings.TrimSpace(string(output))
	if username == "" {
		return "", fmt.Errorf("whoami returned empty username")
	}
	return username, nil
}

// Authenticate finds or creates the account for the local user. Local
// accounts have no password and cannot log in over HTTP.
func (l *LocalAuthenticator) Authenticate(ctx context.Context, db *gorm.DB) (*database.User, error) {
	username, err := l.GetLocalUsername()
	if err != nil {
		return nil, err
	}

	var user database.User
	result := db.WithContext(ctx).Where("username = ?", username).FirstOrCreate(&user, database.User{
		Username: username,
		Email:    username + "@local",
	})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to create/find user: %w", result.Error)
	}
	return &user, nil
}

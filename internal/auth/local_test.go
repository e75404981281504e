// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package auth

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tejzpr/memorybook/internal/database"
)

func setupAuthDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(&database.Config{
		Type:       "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
		LogLevel:   logger.Silent,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func TestGetLocalUsername_AccessingUser(t *testing.T) {
	t.Setenv("ACCESSING_USER", "  alice  ")

	username, err := NewLocalAuthenticatorWithAccessingUser().GetLocalUsername()
	require.NoError(t, err)
	assert.Equal(t, "alice", username)
}

func TestGetLocalUsername_AccessingUserMissing(t *testing.T) {
	t.Setenv("ACCESSING_USER", "")

	_, err := NewLocalAuthenticatorWithAccessingUser().GetLocalUsername()
	assert.Error(t, err)
}

func TestLocalAuthenticate(t *testing.T) {
	db := setupAuthDB(t)
	t.Setenv("ACCESSING_USER", "alice")
	localAuth := NewLocalAuthenticatorWithAccessingUser()

	user, err := localAuth.Authenticate(context.Background(), db)
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice@local", user.Email)
	assert.Empty(t, user.PasswordHash)
}

func TestLocalAuthenticate_ExistingUser(t *testing.T) {
	db := setupAuthDB(t)
	localAuth := &LocalAuthenticator{lookup: func() (string, error) { return "bob", nil }}

	user1, err := localAuth.Authenticate(context.Background(), db)
	require.NoError(t, err)

	user2, err := localAuth.Authenticate(context.Background(), db)
	require.NoError(t, err)

	assert.Equal(t, user1.ID, user2.ID)
	assert.Equal(t, user1.Username, user2.Username)
}

func TestLocalAccount_CannotLogIn(t *testing.T) {
	db := setupAuthDB(t)
	localAuth := &LocalAuthenticator{lookup: func() (string, error) { return "bob", nil }}

	_, err := localAuth.Authenticate(context.Background(), db)
	require.NoError(t, err)

	_, err = NewAccounts(db).Authenticate(context.Background(), "bob", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/tejzpr/memorybook/internal/database"
)

var (
	ErrAccountExists      = errors.New("account already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// Accounts registers and authenticates password accounts
type Accounts struct {
	db   *gorm.DB
	cost int
}

// NewAccounts creates an account store over db
func NewAccounts(db *gorm.DB) *Accounts {
	return &Accounts{db: db, cost: bcrypt.DefaultCost}
}

// WithCost sets the bcrypt cost
func (a *Accounts) WithCost(cost int) *Accounts {
	a.cost = cost
	return a
}

// Register creates an account. Usernames and emails are unique.
func (a *Accounts) Register(ctx context.Context, username, email, password string) (*database.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	var count int64
	err := a.db.WithContext(ctx).Model(&database.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error
	if err != nil {
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}
	if count > 0 {
		return nil, ErrAccountExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &database.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := a.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAccountExists
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return user, nil
}

// Authenticate checks a username and password
func (a *Accounts) Authenticate(ctx context.Context, username, password string) (*database.User, error) {
	var user database.User
	err := a.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	if user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

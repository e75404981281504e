// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package locking

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ShareLock is a leased lock row serialising work on one key, such as all
// shares of a single user
type ShareLock struct {
	Key       string    `gorm:"column:lock_key;primaryKey" json:"key"`
	Version   int64     `gorm:"not null;default:1" json:"version"`
	LockedBy  string    `gorm:"not null" json:"locked_by"`
	LockedAt  time.Time `gorm:"not null" json:"locked_at"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
}

// TableName specifies the table name for ShareLock
func (ShareLock) TableName() string {
	return "share_locks"
}

// MigrateLocks runs migrations for the share_locks table
func MigrateLocks(db *gorm.DB) error {
	return db.AutoMigrate(&ShareLock{})
}

// IsExpired returns true if the lock has expired
func (l *ShareLock) IsExpired() bool {
	return time.Now().After(l.ExpiresAt)
}

// ConflictError represents a version conflict during update
type ConflictError struct {
	Table           string
	ID              uint
	ExpectedVersion int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("version conflict on %s %d: expected version %d", e.Table, e.ID, e.ExpectedVersion)
}

// LockError represents a locking failure
type LockError struct {
	Key      string
	LockedBy string
	Message  string
}

func (e *LockError) Error() string {
	return e.Message
}
